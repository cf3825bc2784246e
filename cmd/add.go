package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recon-ai/enumd/internal/cmd"
	cmdopts "github.com/recon-ai/enumd/internal/cmd/options"
	"github.com/recon-ai/enumd/internal/config"
	"github.com/recon-ai/enumd/internal/flags"
)

// AddCmd should be used to represent the 'add' command.
type AddCmd struct {
	*cmd.BaseCmd
	Command    string
	Args       []string
	Env        []string
	WorkingDir string
	Disabled   bool
	cfgLoader  config.Loader
}

// NewAddCmd creates a newly configured (Cobra) command.
func NewAddCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &AddCmd{
		BaseCmd:   baseCmd,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "add <server-name>",
		Short: "Adds an MCP server to the project configuration",
		Long: "Adds an MCP server to the project configuration. " +
			"The server is launched from the given command when the daemon starts or an enumeration runs.",
		RunE: c.run,
	}

	cobraCommand.Flags().StringVar(
		&c.Command,
		"cmd",
		"",
		"Command used to launch the MCP server (required)",
	)

	cobraCommand.Flags().StringArrayVar(
		&c.Args,
		"arg",
		nil,
		"Optional, argument passed to the command (can be repeated)",
	)

	cobraCommand.Flags().StringArrayVar(
		&c.Env,
		"env",
		nil,
		"Optional, KEY=VALUE environment override for the server process (can be repeated)",
	)

	cobraCommand.Flags().StringVar(
		&c.WorkingDir,
		"working-dir",
		"",
		"Optional, working directory for the server process",
	)

	cobraCommand.Flags().BoolVar(
		&c.Disabled,
		"disabled",
		false,
		"Optional, register the server without enabling it",
	)

	_ = cobraCommand.MarkFlagRequired("cmd")

	return cobraCommand, nil
}

// run is configured (via NewAddCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *AddCmd) run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("server name is required and cannot be empty")
	}

	name := strings.TrimSpace(args[0])
	logger := c.Logger()

	env := make(map[string]string, len(c.Env))
	for _, kv := range c.Env {
		key, value, found := strings.Cut(kv, "=")
		if !found || strings.TrimSpace(key) == "" {
			return fmt.Errorf("invalid --env value '%s', expected KEY=VALUE", kv)
		}
		env[strings.TrimSpace(key)] = value
	}

	entry := config.ServerEntry{
		Name:       name,
		Command:    strings.TrimSpace(c.Command),
		Args:       c.Args,
		WorkingDir: strings.TrimSpace(c.WorkingDir),
	}
	if len(env) > 0 {
		entry.Env = env
	}
	if c.Disabled {
		disabled := false
		entry.Enabled = &disabled
	}

	if err := entry.Validate(); err != nil {
		return err
	}

	cfg, err := c.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	if err := cfg.AddServer(entry); err != nil {
		return err
	}

	logger.Debug("Server added", "name", name, "command", entry.Command)
	if _, err := fmt.Fprintf(
		cmd.OutOrStdout(),
		"✓ Added server '%s'\n", name,
	); err != nil {
		return err
	}

	return nil
}
