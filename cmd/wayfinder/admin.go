package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wayfinder/internal/service"
)

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <scenes-file>",
		Short: "Import a JSON or YAML scene catalogue into the local database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, closeDB, err := openLocal(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			n, err := svc.ImportScenesFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), good.Sprintf("  imported %d scenes", n)+subtle.Sprintf(" into %s", cfg.Database.Path))
			return nil
		},
	}
}

func newRegenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate",
		Short: "Rebuild nodes and edges from scene hotspots, keeping positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, closeDB, err := openLocal(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			res, err := svc.Regenerate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %d nodes (%d with positions), %d edges\n",
				good.Sprint("regenerated"), res.Nodes, res.NodesWithPositions, res.Edges)
			return nil
		},
	}
}

func newCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove nodes that no longer have a scene, and their edges",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, closeDB, err := openLocal(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			res, err := svc.Cleanup(cmd.Context())
			if errors.Is(err, service.ErrNoScenes) {
				return fmt.Errorf("%w; import scenes first", err)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.RemovedCount == 0 {
				fmt.Fprintln(out, good.Sprint("  nothing to remove"))
			} else {
				fmt.Fprintf(out, "  %s %d: %s\n", warn.Sprint("removed"), res.RemovedCount, strings.Join(res.RemovedNodes, ", "))
			}
			fmt.Fprintln(out, subtle.Sprintf("  %d nodes and %d edges remain", res.RemainingNodes, res.RemainingEdges))
			return nil
		},
	}
}
