// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/riggraph/internal/app"
	"github.com/spf13/cobra"
)

type appFactory func(cmd *cobra.Command) (*app.App, error)

func newLibrariesCommand(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "libraries",
		Short: "List discovered libraries, their targets and node types",
		Args:  exactArgs(0, "no arguments"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.ListLibraries(cmd.OutOrStdout())
		},
	}
}

func newInspectCommand(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the node tree described by a document",
		Args:  exactArgs(1, "a document path"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.Inspect(args[0], cmd.OutOrStdout())
		},
	}
}

func newRoundtripCommand(newApp appFactory) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "roundtrip FILE",
		Short: "Decode a document and print it re-encoded",
		Args:  exactArgs(1, "a document path"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.Roundtrip(args[0], check, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Fail when the output differs from the file.")
	return cmd
}

func newServeCommand(newApp appFactory) *cobra.Command {
	var (
		address string
		watch   bool
	)
	cmd := &cobra.Command{
		Use:   "serve [FILE...]",
		Short: "Load documents into a session and relay its changes over socket.io",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			sess := a.NewSession()
			for _, path := range args {
				if _, err := sess.Import(path); err != nil {
					return err
				}
			}
			ctx, stop := signal.NotifyContext(a.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Serve(ctx, sess, app.ServeOptions{Address: address, WatchLibraries: watch})
		},
	}
	cmd.Flags().StringVarP(&address, "address", "a", "", "Listen address (default from configuration).")
	cmd.Flags().BoolVar(&watch, "watch-libraries", true, "Reload libraries when their files change.")
	return cmd
}

func newWatchCommand(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "watch URL",
		Short: "Print the events relayed by a serving session as JSON lines",
		Args:  exactArgs(1, "a relay URL"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(a.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Watch(ctx, args[0], cmd.OutOrStdout())
		},
	}
}
