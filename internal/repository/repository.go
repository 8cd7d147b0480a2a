package repository

import (
	"context"

	"wayfinder/internal/domain"
)

// Repository defines the interface for graph and scene storage
type Repository interface {
	// Graph
	GetGraph(ctx context.Context) (*domain.Graph, error)
	SaveGraph(ctx context.Context, g *domain.Graph) error

	// Scenes
	ListScenes(ctx context.Context) ([]domain.Scene, error)
	GetScene(ctx context.Context, id string) (*domain.Scene, error)
	UpsertScenes(ctx context.Context, scenes []domain.Scene) error

	// Close releases resources
	Close() error
}
