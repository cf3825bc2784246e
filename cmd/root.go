package cmd

import (
	"github.com/spf13/cobra"

	"github.com/recon-ai/enumd/internal/cmd"
	cmdopts "github.com/recon-ai/enumd/internal/cmd/options"
	"github.com/recon-ai/enumd/internal/flags"
)

// RootCmd should be used to represent the root 'enumd' command.
type RootCmd struct {
	*cmd.BaseCmd
}

// Execute builds and runs the root command.
func Execute() error {
	rootCmd, err := NewRootCmd(&cmd.BaseCmd{})
	if err != nil {
		return err
	}

	return rootCmd.Execute()
}

// NewRootCmd creates a newly configured root (Cobra) command.
func NewRootCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	c := &RootCmd{
		BaseCmd: baseCmd,
	}

	rootCmd := &cobra.Command{
		Use:          "enumd <command> [args]",
		Short:        "'enumd' supervises MCP subdomain enumeration servers and fans tool calls out across them.",
		Long:         c.longDescription(),
		SilenceUsage: true,
		Version:      cmd.Version(),
	}

	// Global flags
	flags.InitFlags(rootCmd.PersistentFlags())

	commands := []func(*cmd.BaseCmd, ...cmdopts.CmdOption) (*cobra.Command, error){
		NewInitCmd,
		NewAddCmd,
		NewRemoveCmd,
		NewServersCmd,
		NewEnumerateCmd,
		NewDaemonCmd,
	}
	for _, newCmd := range commands {
		sub, err := newCmd(baseCmd, opt...)
		if err != nil {
			return nil, err
		}
		rootCmd.AddCommand(sub)
	}

	return rootCmd, nil
}

func (c *RootCmd) longDescription() string {
	return `The 'enumd' CLI manages a set of MCP servers that expose subdomain enumeration
tools over stdio. It supervises their processes, speaks line-delimited JSON-RPC
to them, and consolidates enumeration results across all of them.`
}
