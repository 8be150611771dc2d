package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/wudi/platekit/ocr/tesseract"
	"github.com/wudi/platekit/pipeline"
)

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and engine information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			version := "(devel)"
			if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
				version = info.Main.Version
			}
			fmt.Fprintf(a.stdout, "platekit %s\n", version)
			fmt.Fprintf(a.stdout, "backends: %v\n", pipeline.BackendNames())
			fmt.Fprintf(a.stdout, "tesseract: %s\n", tesseract.Version())
		},
	}
}
