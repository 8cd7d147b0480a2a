package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"wayfinder/internal/config"
	"wayfinder/internal/floor"
	"wayfinder/internal/handler"
	"wayfinder/internal/hub"
	"wayfinder/internal/repository/sqlite"
	"wayfinder/internal/service"
	"wayfinder/internal/watcher"
)

//go:embed web/*
var webFS embed.FS

func newServeCommand() *cobra.Command {
	var (
		addr     string
		dbPath   string
		assetDir string
		scenes   string
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the graph API, live minimap sessions and the web client",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Server.Addr = addr
			}
			if flags.Changed("db") {
				cfg.Database.Path = dbPath
			}
			if flags.Changed("assets") {
				cfg.Server.AssetDir = assetDir
			}
			if flags.Changed("scenes") {
				cfg.Scenes.File = scenes
			}
			if flags.Changed("watch") {
				cfg.Scenes.Watch = watch
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().StringVar(&assetDir, "assets", "", "directory floor image paths resolve against")
	cmd.Flags().StringVar(&scenes, "scenes", "", "scene catalogue (JSON or YAML) imported at startup")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-import the scene catalogue when it changes")

	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Starting wayfinder server...")

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	eventBus := service.NewEventBus()
	graphSvc := service.NewGraphService(repo, eventBus)

	if cfg.Scenes.File != "" {
		n, err := graphSvc.ImportScenesFile(ctx, cfg.Scenes.File)
		if err != nil {
			log.Printf("Failed to import scenes from %s: %v", cfg.Scenes.File, err)
		} else {
			log.Printf("Imported %d scenes from %s", n, cfg.Scenes.File)
		}
	}

	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		return fmt.Errorf("failed to get embedded web content: %w", err)
	}

	floors := cfg.FloorSet()
	sseHub := hub.New()
	router := handler.NewRouter(handler.Routes{
		Graph:    handler.NewGraphHandler(graphSvc, floors),
		Events:   sseHub,
		Live:     handler.NewLiveHandler(graphSvc, eventBus, floors, floor.NewFileLoader(cfg.Server.AssetDir), cfg.MinimapOptions()),
		Web:      http.FileServer(http.FS(webContent)),
		AssetDir: cfg.Server.AssetDir,
	})

	g, gctx := errgroup.WithContext(ctx)

	// no WriteTimeout: /events and /ws/minimap are long-lived. Request
	// contexts derive from gctx so live sessions end on shutdown.
	server := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error { return sseHub.Run(gctx) })
	g.Go(func() error { return sseHub.Relay(gctx, eventBus) })

	if cfg.Scenes.File != "" && cfg.Scenes.Watch {
		file := cfg.Scenes.File
		w := watcher.New(file, func(ctx context.Context) error {
			n, err := graphSvc.ImportScenesFile(ctx, file)
			if err != nil {
				return err
			}
			log.Printf("Re-imported %d scenes from %s", n, file)
			return nil
		})
		g.Go(func() error { return w.Watch(gctx) })
	}

	g.Go(func() error {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	log.Println("Server stopped")
	return err
}
