// Package domain defines the core types for indoor wayfinding.
//
// A Graph holds Nodes (scenes placed on floor schematics) and undirected
// Edges between them. Coordinates are stored in original background-image
// pixels, per floor, with a legacy single x/y pair for older data.
//
// # Position Resolution
//
// Node.PositionOn resolves a floor position by checking the floor's own
// entry, then the first per-floor entry, then the legacy x/y pair. Older
// nodes that only carry x/y keep working on every floor.
//
// # Merging
//
// Merge combines fresh data with the graph already held without losing
// information: coordinates survive unless explicitly overridden and nodes
// missing from the fresh payload are retained.
//
// # Scenes
//
// Scene carries the display name (optionally localized) and floor of a
// location. ApplyScenes projects them onto graph nodes and GraphFromScenes
// derives a graph from scene hotspots.
//
// # Design Principles
//
// - Value types with deep Clone helpers
// - No database or network dependencies
// - Malformed input is dropped, never fatal
package domain
