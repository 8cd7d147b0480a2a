package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"wayfinder/internal/config"
)

var version = "0.3.0"

var configPath string

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	rootCmd := &cobra.Command{
		Use:   "wayfinder",
		Short: "Indoor wayfinding minimap",
		Long: `wayfinder serves and edits the navigation graph of a multi-floor venue:
scene nodes placed on floor plan images, hotspot edges between them, and
shortest-path routing across floors.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: search "+config.EnvConfigPath+", ./"+config.ConfigFileName+", ...)")

	rootCmd.AddCommand(
		newServeCommand(),
		newRouteCommand(),
		newRenderCommand(),
		newPlaceCommand(),
		newViewCommand(),
		newImportCommand(),
		newRegenerateCommand(),
		newCleanupCommand(),
		newConfigCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, bad.Sprint("error: ")+err.Error())
		os.Exit(1)
	}
}

// loadConfig reads --config if given, otherwise searches the default
// locations
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		cfg, _, err := config.LoadFromPath(configPath)
		return cfg, err
	}
	cfg, path, err := config.Load()
	if err != nil {
		return nil, err
	}
	if path != "" {
		log.Printf("config: loaded %s", path)
	}
	return cfg, nil
}
