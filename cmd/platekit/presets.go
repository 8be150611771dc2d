package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wudi/platekit/pipeline"
)

func (a *app) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the tuning presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tEDGES\tBILATERAL\tPSM\tWHITELIST")
			for _, name := range pipeline.PresetNames() {
				c := pipeline.Preset(name)
				def := ""
				if name == pipeline.PresetCharacter {
					def = " (default)"
				}
				fmt.Fprintf(tw, "%s%s\t%g/%g\t%d/%g/%g\t%d\t%s\n", name, def,
					c.EdgeLow, c.EdgeHigh,
					c.Bilateral.Diameter, c.Bilateral.SigmaColor, c.Bilateral.SigmaSpace,
					c.PSM, c.Whitelist)
			}
			return tw.Flush()
		},
	}
}
