/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/wisecow/wisecow/pkg/logging"
	"github.com/wisecow/wisecow/pkg/serializer"
)

const (
	name           = "wisecow"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Flags shared by the reporting commands.
var (
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file path (default: stdout)",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatYAML),
		Usage: fmt.Sprintf("Output format (supported values: %v)",
			serializer.SupportedFormats()),
	}

	kubeconfigFlag = &cli.StringFlag{
		Name:    "kubeconfig",
		Sources: cli.EnvVars("KUBECONFIG"),
		Usage:   "Path to kubeconfig file (default: in-cluster config or ~/.kube/config)",
	}
)

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Serve cow-framed wisdom over TCP and keep an eye on the herd",
		Version:               fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			serveCmd(),
			checkCmd(),
			monitorCmd(),
			statusCmd(),
			versionCmd(),
		},
	}
}

// exitError carries a process exit code out of a command action. It
// deliberately does not implement the framework's ExitCoder, whose default
// handling calls os.Exit before the error reaches the caller.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitError) Unwrap() error {
	return e.err
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// Run executes the CLI with the given arguments.
func Run(ctx context.Context, args []string) error {
	return rootCmd().Run(ctx, args)
}

// Execute runs the CLI with OS arguments and signal handling, and returns
// the process exit code. This is called by main.main().
func Execute() int {
	logging.SetDefaultStructuredLogger(name, version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)

		var xe *exitError
		if errors.As(err, &xe) {
			return xe.code
		}
		return 1
	}
	return 0
}

// parseOutputFormat reads and validates the format flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q (supported values: %v)",
			f, serializer.SupportedFormats())
	}
	return f, nil
}

// writeReport serializes v per the command's format and output flags.
func writeReport(cmd *cli.Command, v any) error {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	ser := serializer.NewFileWriterOrStdout(format, cmd.String("output"))
	defer func() {
		if err := ser.Close(); err != nil {
			slog.Warn("failed to close serializer", "error", err)
		}
	}()

	return ser.Serialize(v)
}
