// Package main implements the entry point for the task service: the HTTP API,
// the background job runner and scheduler, and a few maintenance commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/task-service/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running the binary without a
// subcommand starts the server.
func newRootCmd() *cobra.Command {
	var configPath string

	load := func() (*config.Config, error) {
		if configPath != "" {
			return config.LoadFile(configPath)
		}
		return config.Load()
	}

	serve := serveCmd(load)
	root := &cobra.Command{
		Use:           "task-service",
		Short:         "Task management service with lifecycle auditing and background jobs",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a config file (defaults to ./config.yaml when present)")

	root.AddCommand(serve)
	root.AddCommand(migrateCmd(load))
	root.AddCommand(sweepCmd(load))
	root.AddCommand(reportCmd(load))
	return root
}
