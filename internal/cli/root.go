// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/riggraph/internal/app"
	"github.com/specialistvlad/riggraph/internal/config"
	"github.com/specialistvlad/riggraph/internal/ctxlog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Exit codes.
const (
	ExitCodeError = 1
	ExitCodeUsage = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: ExitCodeUsage, Message: fmt.Sprintf(format, args...)}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath   string
	logLevel     string
	logFormat    string
	target       string
	libraryPaths []string
}

// NewRootCommand builds the riggraph command tree. Command results go to
// outW, logs and diagnostics to errW.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "riggraph",
		Short: "Inspect, convert and serve hierarchical rig graphs",
		Long: `riggraph works with node documents: hierarchical graphs of typed ports
and connections, built from library definitions.

Library roots come from the configuration file (riggraph.hcl), the
RIGGRAPH_LIBRARY_PATH environment variable and --library-path flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%v", err)
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to the configuration file (default ./"+config.DefaultFile+" when present).")
	pf.StringVar(&flags.logLevel, "log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log output format. Options: 'text' or 'json'.")
	pf.StringVarP(&flags.target, "target", "t", "", "Definition target used to resolve library instances.")
	pf.StringArrayVarP(&flags.libraryPaths, "library-path", "L", nil, "Additional library root. May be repeated.")

	newApp := func(cmd *cobra.Command) (*app.App, error) {
		return flags.build(cmd.Context(), cmd.Flags(), errW)
	}

	root.AddCommand(
		newLibrariesCommand(newApp),
		newInspectCommand(newApp),
		newRoundtripCommand(newApp),
		newServeCommand(newApp),
		newWatchCommand(newApp),
	)
	return root
}

// build loads the configuration, applies flag overrides and creates the app.
func (f *globalFlags) build(ctx context.Context, fs *pflag.FlagSet, errW io.Writer) (*app.App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	// Logger used until the configured one exists.
	bootCtx := ctxlog.WithLogger(ctx, slog.New(slog.NewTextHandler(errW, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg, err := config.Load(bootCtx, f.configPath)
	if err != nil {
		return nil, &ExitError{Code: ExitCodeUsage, Message: err.Error()}
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = strings.ToLower(f.logLevel)
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = strings.ToLower(f.logFormat)
	}
	if fs.Changed("target") {
		cfg.Target = f.target
	}
	cfg.LibraryPaths = append(cfg.LibraryPaths, f.libraryPaths...)

	if err := cfg.Validate(); err != nil {
		return nil, &ExitError{Code: ExitCodeUsage, Message: err.Error()}
	}
	return app.New(ctx, errW, cfg)
}

func exactArgs(n int, names string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError("%s requires %s, got %d argument(s)", cmd.CommandPath(), names, len(args))
		}
		return nil
	}
}
