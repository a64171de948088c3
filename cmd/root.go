package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"print-layout/internal/config"
	plimage "print-layout/internal/image"
	"print-layout/internal/image/cv"
)

// globals are the persistent flags and the loaded configuration shared by
// every subcommand.
type globals struct {
	verbose  bool
	resample string
	cfg      *config.Config
}

func NewRootCmd() *cobra.Command {
	g := &globals{cfg: config.Default()}

	cmd := &cobra.Command{
		Use:   "print-layout",
		Short: "Arrange photos on a page and send them to a printer",
		Long: `print-layout places photos on a page of a chosen paper size, lets you
rotate, flip, fade and stack them, and prints the composed page through the
system spooler (CUPS) at a chosen resolution.

Layouts are saved as .pxl project files.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if g.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

			g.cfg = config.LoadDefault()
			if !cmd.Flags().Changed("resample") {
				g.resample = g.cfg.Resampler
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&g.resample, "resample", "auto", "Resampling kernel: auto, catmullrom, bilinear, nearest or lanczos (auto picks by print quality)")

	cmd.AddCommand(newNewCmd(g))
	cmd.AddCommand(newAddCmd(g))
	cmd.AddCommand(newInfoCmd(g))
	cmd.AddCommand(newRecoverCmd(g))
	cmd.AddCommand(newRenderCmd(g))
	cmd.AddCommand(newPreviewCmd(g))
	cmd.AddCommand(newPrintersCmd(g))
	cmd.AddCommand(newPrintCmd(g))
	cmd.AddCommand(newPaperSizesCmd())

	return cmd
}

// resampler returns the kernel named by --resample. "auto" leaves the
// choice to the rasterizer.
func (g *globals) resampler() (plimage.Resampler, error) {
	switch strings.ToLower(g.resample) {
	case "", "auto":
		return nil, nil
	case "lanczos":
		return cv.Lanczos{}, nil
	}
	k, err := plimage.KernelByName(g.resample)
	if err != nil {
		return nil, fmt.Errorf("--resample: %w", err)
	}
	return k, nil
}

// remember records path in the recent files list.
func (g *globals) remember(path string) {
	g.cfg.AddRecentFile(path)
	g.saveConfig()
}

func (g *globals) saveConfig() {
	if err := g.cfg.Save(); err != nil {
		slog.Warn("failed to save config", "path", g.cfg.FilePath(), "error", err)
	}
}
