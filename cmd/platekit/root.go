package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wudi/platekit/config"
	"github.com/wudi/platekit/observability"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error { return &exitError{code: exitUsage, err: err} }

type app struct {
	stdout, stderr io.Writer

	cfgFile   string
	logLevel  string
	logFormat string
	noColor   bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		fmt.Fprintf(stderr, "platekit: %v\n", ee.err)
		return ee.code
	}
	// anything cobra rejects before RunE is a usage problem
	fmt.Fprintf(stderr, "platekit: %v\n", err)
	return exitUsage
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "platekit",
		Short:         "Locate license plates in photos and read them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.noColor {
				color.NoColor = true
			}
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file path (YAML)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: console or json")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(a.detectCmd(), a.presetsCmd(), a.versionCmd())
	return root
}

// loadConfig reads the config file and applies the persistent flags.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return nil, usageError(err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	return cfg, nil
}

func (a *app) logger(cfg *config.Config) observability.Logger {
	return observability.NewZerologLogger(observability.LogConfig{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  a.stderr,
		NoColor: a.noColor || color.NoColor,
		Service: "platekit",
	})
}
