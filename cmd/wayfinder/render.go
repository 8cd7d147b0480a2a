package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"wayfinder/internal/domain"
	"wayfinder/internal/floor"
	"wayfinder/internal/minimap"
	"wayfinder/internal/render"
)

type renderOptions struct {
	floor  string
	format string
	out    string
	width  float64
	height float64
	route  string
	active string
	assets string
}

func newRenderCommand() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a floor of the minimap to SVG or PNG",
		Example: `  wayfinder render --floor 1 > floor1.svg
  wayfinder render --route lobby,hall_b --format png -o route.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if opts.format != "svg" && opts.format != "png" {
				return fmt.Errorf("unknown format %q (svg or png)", opts.format)
			}

			rm := newRemote(cfg)
			ctx := cmd.Context()
			g, err := rm.syncer.Load(ctx)
			if err != nil {
				return err
			}

			var images floor.ImageSource = rm.images
			assetBase := rm.base
			if opts.assets != "" {
				images = floor.NewFileLoader(opts.assets)
				assetBase = ""
			}

			mmOpts := cfg.MinimapOptions()
			mmOpts.Viewport.Duration = -1 // jump cuts
			ctrl := minimap.New(mmOpts, rm.floors, images, minimap.Hooks{
				OnNotice: func(msg string) { log.Printf("render: %s", msg) },
			})
			tree, err := renderTree(ctrl, g, rm.syncer.Scenes(), opts)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if opts.out != "" && opts.out != "-" {
				f, err := os.Create(opts.out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", opts.out, err)
				}
				defer f.Close()
				w = f
			}

			if opts.format == "svg" {
				return render.WriteSVG(w, tree, render.SVGOptions{
					Title:     "wayfinder floor " + tree.Floor,
					AssetBase: assetBase,
					ApplyView: true,
				})
			}

			bg := loadBackground(ctx, images, tree)
			pngOpts := render.DefaultPNGOptions()
			pngOpts.ApplyView = true
			return render.RasterizePNG(w, tree, bg, pngOpts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.floor, "floor", "", "floor key (default: the route destination's floor, else --active's, else the lowest)")
	flags.StringVar(&opts.format, "format", "svg", "output format: svg or png")
	flags.StringVarP(&opts.out, "output", "o", "", "output file (default stdout)")
	flags.Float64Var(&opts.width, "width", 1200, "viewport width in pixels")
	flags.Float64Var(&opts.height, "height", 800, "viewport height in pixels")
	flags.StringVar(&opts.route, "route", "", "highlight the route between two scenes, as from,to")
	flags.StringVar(&opts.active, "active", "", "scene to mark as current")
	flags.StringVar(&opts.assets, "assets", "", "read floor images from this directory instead of the server")

	return cmd
}

// renderTree drives a headless controller. Without a Loop the controller
// completes floor loads inline, so every call below is synchronous.
func renderTree(ctrl *minimap.Controller, g *domain.Graph, scenes []domain.Scene, opts renderOptions) (render.Tree, error) {
	ctrl.Resize(opts.width, opts.height)
	ctrl.SetScenes(scenes)
	ctrl.Refresh(g)

	key := opts.floor
	if key == "" {
		key = startFloor(g, opts)
	}
	ctrl.SetFloor(key)

	if opts.active != "" {
		ctrl.SetActive(opts.active)
	}
	if opts.route != "" {
		from, to, ok := strings.Cut(opts.route, ",")
		if !ok || from == "" || to == "" {
			return render.Tree{}, fmt.Errorf("--route must be from,to")
		}
		if _, err := ctrl.Route(strings.TrimSpace(from), strings.TrimSpace(to)); err != nil {
			return render.Tree{}, fmt.Errorf("no route from %s to %s", from, to)
		}
	}
	if opts.floor != "" {
		ctrl.SetFloor(opts.floor)
	}

	return ctrl.Tree(), nil
}

func startFloor(g *domain.Graph, opts renderOptions) string {
	id := opts.active
	if _, to, ok := strings.Cut(opts.route, ","); ok {
		id = strings.TrimSpace(to)
	}
	if n := g.Node(id); n != nil {
		return domain.FloorKey(n.Floor)
	}
	if floors := g.Floors(); len(floors) > 0 {
		return domain.FloorKey(slices.Min(floors))
	}
	return "0"
}

func loadBackground(ctx context.Context, images floor.ImageSource, tree render.Tree) image.Image {
	if tree.Background == nil {
		return nil
	}
	img, err := images.Image(ctx, tree.Background.Path)
	if err != nil {
		log.Printf("render: background for floor %s: %v", tree.Floor, err)
		return nil
	}
	return img
}
