// Package handler implements the wayfinder HTTP API.
//
// # Endpoints
//
//	GET  /api/graph             graph re-synced from scenes
//	PUT  /api/graph             merge-save (POST is accepted too)
//	POST /api/graph/regenerate  rebuild nodes and edges from scene hotspots
//	POST /api/graph/cleanup     drop nodes without a scene
//	GET  /api/scenes            scene catalogue (?format=yaml for YAML)
//	POST /api/scenes            import a JSON or YAML catalogue
//	GET  /api/route             ?from=&to= cheapest path
//	GET  /api/floors            floor keys and image URLs
//	GET  /assets/floors/...     floor images
//	GET  /events                Server-Sent Events
//	GET  /ws/minimap            live minimap session over WebSocket
//
// Errors are returned as JSON with {error, details}.
package handler
