package main

import (
	"fmt"
	"strings"

	"wayfinder/internal/config"
	"wayfinder/internal/floor"
	"wayfinder/internal/handler"
	"wayfinder/internal/persist"
	"wayfinder/internal/repository/sqlite"
	"wayfinder/internal/service"
)

// remote bundles the API client used by commands that talk to a running
// server
type remote struct {
	client *persist.Client
	syncer *persist.Syncer
	floors floor.Floors
	images *floor.HTTPLoader
	base   string
}

func newRemote(cfg *config.Config) *remote {
	timeout := cfg.API.Timeout.Duration()
	client := persist.NewClient(cfg.API.BaseURL, timeout)
	assetBase := strings.TrimRight(cfg.API.BaseURL, "/") + handler.FloorAssetPrefix
	return &remote{
		client: client,
		syncer: persist.NewSyncer(client, cfg.Language),
		floors: cfg.FloorSet(),
		images: floor.NewHTTPLoader(assetBase, timeout),
		base:   assetBase,
	}
}

// openLocal opens the configured database for admin commands that work
// without a server
func openLocal(cfg *config.Config) (*service.GraphService, func(), error) {
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return service.NewGraphService(repo, service.NewEventBus()), func() { repo.Close() }, nil
}
