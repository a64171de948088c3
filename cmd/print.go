package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"print-layout/internal/app"
	"print-layout/internal/config"
	"print-layout/internal/layout"
	"print-layout/internal/printing"
	"print-layout/internal/raster"
)

func newPrintersCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "printers",
		Short: "List printers known to the spooler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printers, err := printing.NewCUPS().Discover(cmd.Context())
			if err != nil {
				return err
			}
			if len(printers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no printers configured")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSTATE\tDEFAULT\tDESCRIPTION")
			for _, p := range printers {
				def := ""
				if p.IsDefault || p.Name == g.cfg.Printer {
					def = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.State, def, p.Description)
			}
			return tw.Flush()
		},
	}
}

func newPrintCmd(g *globals) *cobra.Command {
	var (
		printer string
		copies  int
		dpi     int
		media   string
		options []string
	)

	cmd := &cobra.Command{
		Use:   "print <project.pxl>",
		Short: "Rasterize a layout and submit it to a printer",
		Example: `  # Two copies on the default printer
  print-layout print album.pxl --copies 2

  # A 4x6 page on Letter paper loaded in the printer
  print-layout print postcard.pxl --media Letter

  # A named printer with an extra spooler option
  print-layout print album.pxl --printer Photo_R2000 -o ColorModel=RGB16`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			extra, err := parseOptions(options)
			if err != nil {
				return err
			}
			resampler, err := g.resampler()
			if err != nil {
				return err
			}
			var mediaSize *layout.PaperSize
			if media != "" {
				size, err := layout.ParsePaperSize(media)
				if err != nil {
					return fmt.Errorf("--media: %w", err)
				}
				mediaSize = &size
			}
			if !cmd.Flags().Changed("dpi") {
				dpi = g.cfg.DPI
			}
			if !cmd.Flags().Changed("copies") {
				copies = g.cfg.Copies
			}

			spooler := printing.NewCUPS()
			if printer == "" {
				if printer, err = defaultPrinter(cmd, spooler, g.cfg); err != nil {
					return err
				}
			}

			s := app.NewSession(app.Options{
				Spooler:   spooler,
				BackupDir: config.BackupDir(),
				Render:    raster.Options{Resampler: resampler},
			})
			defer s.Close()
			if err := s.Load(args[0]); err != nil {
				return err
			}

			outcome := <-s.Print(ctx, app.PrintRequest{
				Printer:   printer,
				Copies:    copies,
				DPI:       dpi,
				Options:   extra,
				PaperSize: mediaSize,
			})
			if outcome.Err != nil {
				return outcome.Err
			}
			for _, w := range outcome.Receipt.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", w)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "request id is %s\n", outcome.Receipt.JobID)

			var paper string
			s.View(func(l *layout.Layout) { paper = l.Page.PaperSize.Name() })
			if mediaSize != nil {
				paper = mediaSize.Name()
			}
			g.cfg.RememberPrint(config.PrintSettings{Printer: printer, Copies: copies, DPI: dpi, PaperSize: paper})
			g.cfg.AddRecentFile(args[0])
			g.saveConfig()
			return nil
		},
	}
	cmd.Flags().StringVarP(&printer, "printer", "p", "", "Printer name (default from $PRINT_LAYOUT_PRINTER, config or the spooler)")
	cmd.Flags().IntVarP(&copies, "copies", "n", 1, "Number of copies")
	cmd.Flags().IntVar(&dpi, "dpi", printing.DefaultDPI, "Print resolution (default from config)")
	cmd.Flags().StringVar(&media, "media", "", "Paper loaded in the printer, a size name or <w>x<h>mm (default the page's paper size)")
	cmd.Flags().StringArrayVarP(&options, "option", "o", nil, "Extra spooler option name=value (repeatable)")
	return cmd
}

// defaultPrinter picks the configured printer, else the spooler's default.
func defaultPrinter(cmd *cobra.Command, sp printing.Spooler, cfg *config.Config) (string, error) {
	if cfg.Printer != "" {
		return cfg.Printer, nil
	}
	printers, err := sp.Discover(cmd.Context())
	if err != nil {
		return "", err
	}
	for _, p := range printers {
		if p.IsDefault {
			slog.Debug("using spooler default printer", "printer", p.Name)
			return p.Name, nil
		}
	}
	if len(printers) == 1 {
		return printers[0].Name, nil
	}
	return "", fmt.Errorf("%w: no default printer, use --printer", printing.ErrPrinterNotFound)
}

func parseOptions(raw []string) ([]printing.Option, error) {
	opts := make([]printing.Option, 0, len(raw))
	for _, r := range raw {
		name, value, _ := strings.Cut(r, "=")
		if name == "" {
			return nil, fmt.Errorf("invalid option %q", r)
		}
		opts = append(opts, printing.Option{Name: name, Value: value})
	}
	return opts, nil
}
