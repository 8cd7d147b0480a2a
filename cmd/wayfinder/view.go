package main

import (
	"fmt"
	"io"
	"log"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"wayfinder/internal/tui"
)

func newViewCommand() *cobra.Command {
	var floorKey string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse and edit the minimap in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			rm := newRemote(cfg)

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("failed to create screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("failed to initialize screen: %w", err)
			}
			defer screen.Fini()
			screen.EnableMouse()
			screen.Clear()

			// log lines would tear the screen
			log.SetOutput(io.Discard)
			defer log.SetOutput(cmd.ErrOrStderr())

			v := tui.New(screen, tui.Options{
				Minimap: cfg.MinimapOptions(),
				Floors:  rm.floors,
				Loader:  rm.images,
				Syncer:  rm.syncer,
				Floor:   floorKey,
			})
			return v.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&floorKey, "floor", "", "floor to open on")
	return cmd
}
