package cmd

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"print-layout/internal/project"
	"print-layout/internal/raster"
	"print-layout/ui/canvas"
)

func newRenderCmd(g *globals) *cobra.Command {
	var (
		output string
		dpi    int
	)

	cmd := &cobra.Command{
		Use:   "render <project.pxl>",
		Short: "Rasterize a layout to a PNG at print resolution",
		Example: `  # What the printer would receive at 300 DPI
  print-layout render album.pxl -o album.png

  # Quick low-resolution proof
  print-layout render album.pxl -o proof.png --dpi 72 --resample bilinear`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := project.Load(args[0])
			if err != nil {
				return err
			}
			resampler, err := g.resampler()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("dpi") {
				dpi = g.cfg.DPI
			}

			res, err := raster.Render(cmd.Context(), proj.Layout, dpi, raster.Options{Resampler: resampler})
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", w)
			}
			if output == "" {
				output = projectName(args[0]) + ".png"
			}
			if err := writePNG(output, res.Image); err != nil {
				return err
			}
			slog.Info("rendered layout", "path", output, "dpi", dpi, "size", res.Image.Rect.Size().String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PNG (default <project>.png)")
	cmd.Flags().IntVar(&dpi, "dpi", 300, "Print resolution (default from config)")
	return cmd
}

func newPreviewCmd(g *globals) *cobra.Command {
	var (
		output   string
		zoom     float64
		noLabels bool
		selectID string
	)

	cmd := &cobra.Command{
		Use:   "preview <project.pxl>",
		Short: "Render the on-screen canvas view of a layout",
		Long: `Renders the layout the way the interactive canvas shows it: the page, its
margins, each image or a placeholder for missing files, file name labels,
and the selection outline with its resize handles.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := project.Load(args[0])
			if err != nil {
				return err
			}
			l := proj.Layout
			if selectID != "" && !l.Select(selectID) {
				return fmt.Errorf("no image with id %s", selectID)
			}
			if !cmd.Flags().Changed("zoom") {
				zoom = g.cfg.Zoom
			}

			p := canvas.NewPreview(nil)
			p.ShowLabels = !noLabels
			frame := p.Render(l, zoom)
			for _, id := range frame.Missing {
				slog.Warn("source missing, drawn as placeholder", "id", id, "path", l.Image(id).Path)
			}
			if output == "" {
				output = projectName(args[0]) + "_preview.png"
			}
			return writePNG(output, frame.Image)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PNG (default <project>_preview.png)")
	cmd.Flags().Float64Var(&zoom, "zoom", 1, "Zoom level (default from config)")
	cmd.Flags().BoolVar(&noLabels, "no-labels", false, "Hide file name labels")
	cmd.Flags().StringVar(&selectID, "select", "", "Show the selection handles of this image id")
	return cmd
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := png.Encode(w, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
