package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"wayfinder/internal/domain"
	"wayfinder/internal/route"
)

func newRouteCommand() *cobra.Command {
	var server bool

	cmd := &cobra.Command{
		Use:   "route <from> <to>",
		Short: "Print the shortest path between two scenes",
		Example: `  wayfinder route lobby hall_b
  wayfinder route lobby rooftop --server`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			from, to := args[0], args[1]
			ctx := cmd.Context()
			rm := newRemote(cfg)

			g, err := rm.syncer.Load(ctx)
			if err != nil {
				return err
			}

			var path []string
			if server {
				path, err = rm.client.Route(ctx, from, to)
			} else {
				path, err = route.New(g).Find(from, to)
			}
			if errors.Is(err, route.ErrNoRoute) {
				return fmt.Errorf("no route from %s to %s", from, to)
			}
			if err != nil {
				return err
			}

			printRoute(cmd.OutOrStdout(), g, path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&server, "server", false, "let the server compute the route")
	return cmd
}

// printRoute lists each step with its label and marks floor changes
func printRoute(w io.Writer, g *domain.Graph, path []string) {
	idx := g.Index()
	cost := route.New(g).Cost(path)

	fmt.Fprintf(w, "%s %s → %s  %s\n\n", brand.Sprint("route"), path[0], path[len(path)-1],
		subtle.Sprintf("(%d steps, cost %g)", len(path)-1, cost))

	prevFloor := ""
	for i, id := range path {
		label, floorKey := id, ""
		if n, ok := idx[id]; ok {
			if n.Label != "" {
				label = n.Label
			}
			floorKey = domain.FloorKey(n.Floor)
		}

		if prevFloor != "" && floorKey != prevFloor {
			fmt.Fprintf(w, "     %s\n", warn.Sprintf("↕ floor %s → %s", prevFloor, floorKey))
		}
		prevFloor = floorKey

		marker := info.Sprint("•")
		if i == 0 || i == len(path)-1 {
			marker = good.Sprint("●")
		}
		fmt.Fprintf(w, "  %s %-3d %s %s\n", marker, i, label, subtle.Sprintf("[%s, floor %s]", id, floorKey))
	}
}
