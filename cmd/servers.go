package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recon-ai/enumd/internal/cmd"
	cmdopts "github.com/recon-ai/enumd/internal/cmd/options"
	"github.com/recon-ai/enumd/internal/cmd/output"
	"github.com/recon-ai/enumd/internal/config"
	"github.com/recon-ai/enumd/internal/flags"
)

// ServersCmd should be used to represent the 'servers' command.
type ServersCmd struct {
	*cmd.BaseCmd
	Format    cmd.OutputFormat
	cfgLoader config.Loader
}

// NewServersCmd creates a newly configured (Cobra) command.
func NewServersCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &ServersCmd{
		BaseCmd:   baseCmd,
		Format:    cmd.FormatText,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "servers",
		Short: "Lists the MCP servers in the project configuration",
		Long:  "Lists the MCP servers in the project configuration",
		RunE:  c.run,
	}

	cobraCommand.Flags().Var(
		&c.Format,
		"format",
		fmt.Sprintf("Output format, one of: %s", cmd.AllowedOutputFormats().String()),
	)

	return cobraCommand, nil
}

// run is configured (via NewServersCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *ServersCmd) run(cobraCmd *cobra.Command, _ []string) error {
	cfg, err := c.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	entries := cfg.ListServers()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return serversHandler(cobraCmd.OutOrStdout(), c.Format).HandleResults(entries...)
}

// serversHandler selects the output handler for server entries based on the format.
func serversHandler(w io.Writer, format cmd.OutputFormat) output.Handler[config.ServerEntry] {
	switch format {
	case cmd.FormatJSON:
		return output.NewJSONHandler[config.ServerEntry](w, 2)
	case cmd.FormatYAML:
		return output.NewYAMLHandler[config.ServerEntry](w, 2)
	default:
		return output.NewTextHandler(w, writeServerEntry)
	}
}

// writeServerEntry renders one server entry as a text listing line.
func writeServerEntry(w io.Writer, entry config.ServerEntry) error {
	state := "enabled"
	if !entry.IsEnabled() {
		state = "disabled"
	}

	command := entry.Command
	if len(entry.Args) > 0 {
		command = fmt.Sprintf("%s %s", command, strings.Join(entry.Args, " "))
	}

	_, err := fmt.Fprintf(w, "%s (%s): %s\n", entry.Name, state, command)
	return err
}
