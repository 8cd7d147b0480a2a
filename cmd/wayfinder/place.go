package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wayfinder/internal/geometry"
)

func newPlaceCommand() *cobra.Command {
	var width, height float64

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Grid-place nodes that have no coordinates and save them to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			rm := newRemote(cfg)
			ctx := cmd.Context()

			g, err := rm.syncer.Load(ctx)
			if err != nil {
				return err
			}
			missing := 0
			for i := range g.Nodes {
				if !g.Nodes[i].HasPosition() {
					missing++
				}
			}

			placed, err := rm.syncer.EnsurePositions(ctx, g, geometry.Size{W: width, H: height})
			out := cmd.OutOrStdout()
			switch {
			case err != nil:
				fmt.Fprintln(out, warn.Sprintf("  placed %d nodes locally but saving failed", missing))
				return err
			case !placed:
				fmt.Fprintln(out, good.Sprint("  every node already has a position"))
			default:
				fmt.Fprintln(out, good.Sprintf("  placed and saved %d of %d nodes", missing, len(g.Nodes)))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&width, "width", 1200, "stage width used for the grid")
	cmd.Flags().Float64Var(&height, "height", 800, "stage height used for the grid")
	return cmd
}
