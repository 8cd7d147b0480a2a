package floor

import (
	"context"
	"errors"

	"wayfinder/internal/domain"
	"wayfinder/internal/geometry"
)

// ErrNoImage is returned when a floor has no background configured
var ErrNoImage = errors.New("no background image configured")

// Stage is the drawing plane for one floor. It spans the viewport; the
// background occupies Fit's display rectangle.
type Stage struct {
	Floor string           `json:"floor"`
	Path  string           `json:"path,omitempty"`
	Fit   geometry.FitInfo `json:"fit"`
	W     float64          `json:"width"`
	H     float64          `json:"height"`
	// Missing marks a configured background that failed to load. The
	// floor's nodes keep their positions but are not drawn.
	Missing bool `json:"missing,omitempty"`
}

// HasBackground reports whether the background loaded
func (s Stage) HasBackground() bool {
	return s.Fit.Valid()
}

// Size of the stage plane
func (s Stage) Size() geometry.Size {
	return geometry.Size{W: s.W, H: s.H}
}

// Controller tracks the current floor and its fitted background
type Controller struct {
	floors Floors
	loader ImageLoader

	current string
	stage   Stage
}

// NewController creates a floor controller
func NewController(floors Floors, loader ImageLoader) *Controller {
	if floors == nil {
		floors = DefaultFloors()
	}
	return &Controller{floors: floors, loader: loader, current: DefaultKey}
}

// Floors returns the configured floor map
func (c *Controller) Floors() Floors {
	return c.floors
}

// Current returns the active floor key
func (c *Controller) Current() string {
	return c.current
}

// Stage returns the stage computed by the last Switch
func (c *Controller) Stage() Stage {
	return c.stage
}

// Switch makes key the active floor and fits its background to the
// viewport. On an AssetError the returned stage has no background but is
// still usable; the floor is switched either way.
func (c *Controller) Switch(ctx context.Context, key string, viewport geometry.Size) (Stage, error) {
	stage, err := Prepare(ctx, c.floors, c.loader, key, viewport)
	c.Apply(stage)
	return stage, err
}

// Apply installs a stage computed elsewhere (e.g. by an async Prepare)
func (c *Controller) Apply(stage Stage) {
	c.current = stage.Floor
	c.stage = stage
}

// Prepare resolves and measures a floor background without touching any
// controller state, so it can run off the event loop.
func Prepare(ctx context.Context, floors Floors, loader ImageLoader, key string, viewport geometry.Size) (Stage, error) {
	stage := Stage{Floor: key, W: viewport.W, H: viewport.H}

	path, ok := floors.Path(key)
	if !ok {
		return stage, &domain.AssetError{Floor: key, Err: ErrNoImage}
	}
	stage.Path = path

	if loader == nil {
		return stage, &domain.AssetError{Floor: key, Path: path, Err: errors.New("no image loader")}
	}
	natural, err := loader.Load(ctx, path)
	if err != nil {
		stage.Missing = true
		return stage, &domain.AssetError{Floor: key, Path: path, Err: err}
	}

	stage.Fit = geometry.FitImageToViewport(natural.W, natural.H, viewport.W, viewport.H)
	return stage, nil
}

// Refit recomputes the fit of the current background for a new viewport
// size without reloading the image
func (c *Controller) Refit(viewport geometry.Size) Stage {
	c.stage.W, c.stage.H = viewport.W, viewport.H
	if c.stage.Fit.Valid() {
		c.stage.Fit = geometry.FitImageToViewport(c.stage.Fit.OriginalW, c.stage.Fit.OriginalH, viewport.W, viewport.H)
	}
	return c.stage
}
