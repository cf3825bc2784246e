package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/recon-ai/enumd/internal/cmd"
	cmdopts "github.com/recon-ai/enumd/internal/cmd/options"
	"github.com/recon-ai/enumd/internal/cmd/output"
	"github.com/recon-ai/enumd/internal/config"
	"github.com/recon-ai/enumd/internal/domain"
	"github.com/recon-ai/enumd/internal/errors"
	"github.com/recon-ai/enumd/internal/flags"
	"github.com/recon-ai/enumd/internal/recon"
	"github.com/recon-ai/enumd/internal/session"
)

// EnumerateCmd should be used to represent the 'enumerate' command.
type EnumerateCmd struct {
	*cmd.BaseCmd
	Method    string
	Servers   []string
	Sources   []string
	Brute     bool
	Timeout   time.Duration
	Format    cmd.OutputFormat
	cfgLoader config.Loader
}

// NewEnumerateCmd creates a newly configured (Cobra) command.
func NewEnumerateCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &EnumerateCmd{
		BaseCmd:   baseCmd,
		Format:    cmd.FormatJSON,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "enumerate <domain>",
		Short: "Enumerates subdomains of a domain across the configured MCP servers",
		Long: "Enumerates subdomains of a domain across the configured MCP servers. " +
			"All enabled servers are started, queried concurrently and shut down again; " +
			"their results are consolidated into one deduplicated listing.",
		RunE: c.run,
	}

	cobraCommand.Flags().StringVar(
		&c.Method,
		"method",
		string(domain.EnumerationPassive),
		"Enumeration method: passive, active or combined",
	)

	cobraCommand.Flags().StringArrayVar(
		&c.Servers,
		"server",
		nil,
		"Optional, restrict the enumeration to the named server (can be repeated)",
	)

	cobraCommand.Flags().StringArrayVar(
		&c.Sources,
		"source",
		nil,
		"Optional, restrict passive enumeration to the named data source (can be repeated)",
	)

	cobraCommand.Flags().BoolVar(
		&c.Brute,
		"brute",
		false,
		"Enable brute forcing during active enumeration",
	)

	cobraCommand.Flags().DurationVar(
		&c.Timeout,
		"timeout",
		session.DefaultCallTimeout,
		"Per-server call timeout",
	)

	cobraCommand.Flags().Var(
		&c.Format,
		"format",
		fmt.Sprintf("Output format, one of: %s", cmd.AllowedOutputFormats().String()),
	)

	return cobraCommand, nil
}

// run is configured (via NewEnumerateCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *EnumerateCmd) run(cobraCmd *cobra.Command, args []string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("domain is required and cannot be empty")
	}

	targetDomain := strings.TrimSpace(args[0])
	logger := c.Logger()
	handler := enumerateHandler(cobraCmd.OutOrStdout(), c.Format)

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer cancel()

	// An enumeration with nothing to query should fail at load time.
	loader := config.NewValidatingLoader(c.cfgLoader, config.RequireEnabledServers())
	cfg, err := loader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	manager, err := session.NewManager(logger)
	if err != nil {
		return err
	}
	if err := manager.RegisterAll(cfg.ListServers()); err != nil {
		return err
	}

	// Every started process is torn down again on all return paths.
	defer manager.DisconnectAll()

	connected := manager.ConnectAll(ctx)
	for name, ok := range connected {
		if !ok {
			logger.Error("failed to connect server", "name", name)
		}
	}

	enumerator, err := recon.NewEnumerator(recon.Deps{
		Accessor: manager,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	agg, err := enumerator.Enumerate(ctx, domain.EnumerationRequest{
		Domain:     targetDomain,
		Method:     domain.EnumerationMethod(strings.ToLower(strings.TrimSpace(c.Method))),
		Servers:    c.Servers,
		Sources:    c.Sources,
		BruteForce: c.Brute,
		Timeout:    c.Timeout,
	})
	if err != nil {
		if handleErr := handler.HandleError(err); handleErr != nil && handleErr != err {
			return handleErr
		}
		return err
	}

	if err := handler.HandleResult(agg); err != nil {
		return err
	}

	if !agg.Success {
		return fmt.Errorf("%w: servers: %s", errors.ErrEnumerationFailed, strings.Join(agg.FailedServers, ", "))
	}

	return nil
}

// enumerateHandler selects the output handler for the aggregate result based on the format.
func enumerateHandler(w io.Writer, format cmd.OutputFormat) output.Handler[domain.AggregateResult] {
	switch format {
	case cmd.FormatYAML:
		return output.NewYAMLHandler[domain.AggregateResult](w, 2)
	case cmd.FormatText:
		return output.NewTextHandler(w, writeAggregateResult)
	default:
		return output.NewJSONHandler[domain.AggregateResult](w, 2)
	}
}

// writeAggregateResult renders a consolidated enumeration as a text listing.
func writeAggregateResult(w io.Writer, agg domain.AggregateResult) error {
	if _, err := fmt.Fprintf(
		w,
		"%s (%s): %d subdomains, servers succeeded: %s, failed: %s\n",
		agg.Domain,
		agg.Method,
		agg.TotalCount,
		joinOrNone(agg.SucceededServers),
		joinOrNone(agg.FailedServers),
	); err != nil {
		return err
	}

	for _, sub := range agg.Subdomains {
		if _, err := fmt.Fprintf(w, "  %s\n", sub); err != nil {
			return err
		}
	}

	return nil
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
