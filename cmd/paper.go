package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"print-layout/internal/layout"
)

func newPaperSizesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paper-sizes",
		Short: "List the paper size catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tWIDTH MM\tHEIGHT MM\tMEDIA")
			for _, p := range layout.PaperSizes() {
				w, h := p.Dimensions()
				fmt.Fprintf(tw, "%s\t%g\t%g\t%s\n", p.Name(), w, h, p.MediaKeyword())
			}
			fmt.Fprintln(tw, "<w>x<h>mm\t\t\tCustom.<w>x<h>mm")
			return tw.Flush()
		},
	}
}
