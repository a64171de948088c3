package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"print-layout/internal/app"
	"print-layout/internal/config"
	plimage "print-layout/internal/image"
	"print-layout/internal/layout"
	"print-layout/internal/project"
)

// pageFlags are the page settings shared by commands that create layouts.
type pageFlags struct {
	paper      string
	landscape  bool
	borderless bool
	margin     float64
	paperType  string
	quality    string
	color      string
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.paper, "paper", "", "Paper size name or <w>x<h>mm (default from config)")
	cmd.Flags().BoolVar(&f.landscape, "landscape", false, "Landscape orientation")
	cmd.Flags().BoolVar(&f.borderless, "borderless", false, "Zero margins")
	cmd.Flags().Float64Var(&f.margin, "margin", -1, "Margin on every side in mm (default from config)")
	cmd.Flags().StringVar(&f.paperType, "paper-type", "Plain", "Plain, SuperHighGloss, Glossy, SemiGloss, Matte or FineArt")
	cmd.Flags().StringVar(&f.quality, "quality", "High", "Highest, High, Standard or Draft")
	cmd.Flags().StringVar(&f.color, "color", "ICC", "ICC, DriverMatching, NoCorrection or BlackAndWhite")
}

func (f *pageFlags) layout(cfg *config.Config) (*layout.Layout, error) {
	name := f.paper
	if name == "" {
		name = cfg.PaperSize
	}
	size, err := layout.ParsePaperSize(name)
	if err != nil {
		return nil, err
	}
	l := layout.New(size)
	p := &l.Page

	if err := p.PaperType.UnmarshalText([]byte(f.paperType)); err != nil {
		return nil, err
	}
	if err := p.PrintQuality.UnmarshalText([]byte(f.quality)); err != nil {
		return nil, err
	}
	if err := p.ColorMode.UnmarshalText([]byte(f.color)); err != nil {
		return nil, err
	}
	if f.landscape {
		p.SetOrientation(layout.Landscape)
	}

	margin := f.margin
	if margin < 0 {
		margin = cfg.MarginMM
	}
	if f.borderless {
		p.SetBorderless(true)
	} else if margin != layout.DefaultMarginMM {
		for _, side := range []layout.Side{layout.SideTop, layout.SideBottom, layout.SideLeft, layout.SideRight} {
			if err := p.SetMargin(side, margin); err != nil {
				return nil, err
			}
		}
	}
	return l, nil
}

func newNewCmd(g *globals) *cobra.Command {
	var (
		pf          pageFlags
		description string
	)

	cmd := &cobra.Command{
		Use:   "new <project.pxl>",
		Short: "Create an empty layout",
		Example: `  # A4 portrait with default margins
  print-layout new album.pxl

  # Borderless 4x6 glossy
  print-layout new postcard.pxl --paper 4x6 --borderless --paper-type Glossy`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := pf.layout(g.cfg)
			if err != nil {
				return err
			}
			path := withExtension(args[0])
			proj := project.New(projectName(path), l)
			proj.Description = description
			if err := proj.Save(path); err != nil {
				return fmt.Errorf("save %s: %w", path, err)
			}
			slog.Info("created layout", "path", path, "paper", l.Page.PaperSize.Name(), "orientation", l.Page.Orientation)
			g.remember(path)
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&description, "description", "", "Project description")
	return cmd
}

func newAddCmd(g *globals) *cobra.Command {
	var (
		rotate  int
		opacity float64
		lock    bool
	)

	cmd := &cobra.Command{
		Use:   "add <project.pxl> <image>...",
		Short: "Place image files on a layout",
		Long: `Adds each image at the default position, 100mm wide with its own aspect
ratio. The last image added becomes the selection; --rotate, --opacity and
--lock apply to every image added by this call.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := app.NewSession(app.Options{
				BackupDir:        config.BackupDir(),
				KeepAspect:       g.cfg.KeepAspect,
				AutoSaveDir:      config.CacheDir(),
				AutoSaveInterval: g.cfg.AutoSaveInterval,
			})
			defer s.Close()
			if err := s.Load(args[0]); err != nil {
				return err
			}

			var failed error
			for _, path := range args[1:] {
				ids, err := s.AddImages(path)
				if err != nil {
					failed = err
					continue
				}
				for range ids {
					for i := 0; i < ((rotate%4)+4)%4; i++ {
						s.RotateSelected(true)
					}
					if cmd.Flags().Changed("opacity") {
						s.SetSelectedOpacity(opacity)
					}
					if lock {
						s.SetSelectedLocked(true)
					}
				}
			}
			if !s.Modified() {
				return failed
			}
			if err := s.Save(""); err != nil {
				return err
			}
			g.remember(s.Path())
			return failed
		},
	}
	cmd.Flags().IntVar(&rotate, "rotate", 0, "Quarter turns clockwise")
	cmd.Flags().Float64Var(&opacity, "opacity", 1, "Opacity from 0 to 1")
	cmd.Flags().BoolVar(&lock, "lock", false, "Lock the images against dragging")
	return cmd
}

func newInfoCmd(g *globals) *cobra.Command {
	var minDPI float64

	cmd := &cobra.Command{
		Use:   "info <project.pxl>",
		Short: "Show the page and the images of a layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := project.Load(args[0])
			if err != nil {
				return err
			}
			l := proj.Layout
			p := l.Page
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "%s", proj.Name)
			if proj.Description != "" {
				fmt.Fprintf(out, ": %s", proj.Description)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "paper      %s %s, %gx%g mm\n", p.PaperSize.Name(), p.Orientation, p.WidthMM, p.HeightMM)
			fmt.Fprintf(out, "margins    top %g, bottom %g, left %g, right %g (borderless %t)\n",
				p.MarginTopMM, p.MarginBottomMM, p.MarginLeftMM, p.MarginRightMM, p.Borderless)
			fmt.Fprintf(out, "media      %s, quality %s, color %s\n\n", p.PaperType, p.PrintQuality, p.ColorMode)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "Z\tID\tFILE\tPOSITION\tSIZE\tROT\tFLIP\tOPACITY\tDPI\tNATIVE\t")
			for _, img := range l.Images() {
				sel := ""
				if img.ID == l.SelectedID() {
					sel = "*"
				}
				dx, dy := img.EffectiveDPI()
				fmt.Fprintf(tw, "%d%s\t%s\t%s\t%.1f,%.1f\t%.1fx%.1f\t%g\t%s\t%.0f%%\t%.0f\t%s\t\n",
					img.ZIndex, sel, shortID(img.ID), img.Name(), img.XMM, img.YMM,
					img.WidthMM, img.HeightMM, img.RotationDegrees, flips(img), img.Opacity*100, min(dx, dy),
					nativeDPI(img.Path))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			for _, img := range l.LowDPIImages(minDPI) {
				dx, dy := img.EffectiveDPI()
				slog.Warn("image will print below the minimum resolution", "file", img.Name(), "dpi", int(min(dx, dy)), "min", minDPI)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&minDPI, "min-dpi", 150, "Warn about images below this effective DPI")
	return cmd
}

// nativeDPI is the density stored in the image file, or "-".
func nativeDPI(path string) string {
	dpi, err := plimage.EmbeddedDPI(path)
	if err != nil || dpi <= 0 {
		return "-"
	}
	return strconv.FormatFloat(dpi, 'f', -1, 64)
}

func flips(img *layout.PlacedImage) string {
	var s []string
	if img.FlipHorizontal {
		s = append(s, "h")
	}
	if img.FlipVertical {
		s = append(s, "v")
	}
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, "+")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func withExtension(path string) string {
	if filepath.Ext(path) == "" {
		return path + project.Extension
	}
	return path
}

func projectName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newRecoverCmd(g *globals) *cobra.Command {
	var discard bool

	cmd := &cobra.Command{
		Use:   "recover <project.pxl>",
		Short: "Save the auto-saved layout of an interrupted session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := config.CacheDir()
			if !project.HasAutoSave(dir) {
				return fmt.Errorf("no auto-save in %s", dir)
			}
			if discard {
				return project.DeleteAutoSave(dir)
			}
			proj, err := project.LoadAutoSave(dir)
			if err != nil {
				return err
			}

			s := app.NewSession(app.Options{BackupDir: config.BackupDir(), AutoSaveDir: dir})
			defer s.Close()
			s.Restore(proj)
			if err := s.Save(withExtension(args[0])); err != nil {
				return err
			}
			slog.Info("recovered layout", "path", s.Path(), "images", proj.Layout.Len())
			g.remember(s.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&discard, "discard", false, "Delete the auto-save instead of restoring it")
	return cmd
}
