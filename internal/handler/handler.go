package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"wayfinder/internal/codec"
	"wayfinder/internal/domain"
	"wayfinder/internal/floor"
	"wayfinder/internal/route"
	"wayfinder/internal/service"
)

// MaxBodyBytes bounds request bodies
const MaxBodyBytes = 8 << 20

// GraphHandler handles graph and scene API requests
type GraphHandler struct {
	svc    *service.GraphService
	floors floor.Floors
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(svc *service.GraphService, floors floor.Floors) *GraphHandler {
	return &GraphHandler{svc: svc, floors: floors}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GetGraph returns the complete graph
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := h.svc.GetGraph(r.Context())
	if err != nil {
		log.Printf("handler: failed to get graph: %v", err)
		writeError(w, "Failed to get graph", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, graph, http.StatusOK)
}

// graphRequest distinguishes a missing field from an empty one
type graphRequest struct {
	Nodes *[]domain.Node `json:"nodes"`
	Edges *[]domain.Edge `json:"edges"`
}

// SaveGraph merges the posted graph into the stored one
func (h *GraphHandler) SaveGraph(w http.ResponseWriter, r *http.Request) {
	var req graphRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&req); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Nodes == nil || req.Edges == nil {
		writeError(w, "Invalid graph data", "must have 'nodes' and 'edges'", http.StatusBadRequest)
		return
	}

	merged, err := h.svc.SaveGraph(r.Context(), &domain.Graph{Nodes: *req.Nodes, Edges: *req.Edges})
	if err != nil {
		log.Printf("handler: failed to save graph: %v", err)
		writeError(w, "Failed to save graph", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"nodes":  len(merged.Nodes),
		"edges":  len(merged.Edges),
	}, http.StatusOK)
}

// Regenerate rebuilds the graph from scene hotspots
func (h *GraphHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Regenerate(r.Context())
	if err != nil {
		log.Printf("handler: failed to regenerate graph: %v", err)
		writeError(w, "Failed to regenerate graph", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// Cleanup removes nodes that no longer have a scene
func (h *GraphHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Cleanup(r.Context())
	if errors.Is(err, service.ErrNoScenes) {
		writeError(w, "Nothing to clean against", err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		log.Printf("handler: failed to clean graph: %v", err)
		writeError(w, "Failed to clean graph", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// ListScenes returns the scene catalogue as JSON, or YAML with ?format=yaml
func (h *GraphHandler) ListScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := h.svc.ListScenes(r.Context())
	if err != nil {
		log.Printf("handler: failed to list scenes: %v", err)
		writeError(w, "Failed to list scenes", err.Error(), http.StatusInternalServerError)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" || format == "json" {
		writeJSON(w, scenes, http.StatusOK)
		return
	}

	c, err := codec.ForFormat(format)
	if err != nil {
		writeError(w, "Invalid format", err.Error(), http.StatusBadRequest)
		return
	}
	var buf bytes.Buffer
	if err := c.Export(scenes, &buf); err != nil {
		writeError(w, "Failed to export scenes", err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ImportScenes upserts a posted catalogue. YAML is accepted when the
// Content-Type says so.
func (h *GraphHandler) ImportScenes(w http.ResponseWriter, r *http.Request) {
	format := "json"
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && strings.Contains(mt, "yaml") {
		format = "yaml"
	}
	c, _ := codec.ForFormat(format)

	scenes, err := c.Parse(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		writeError(w, "Invalid scenes", err.Error(), http.StatusBadRequest)
		return
	}

	n, err := h.svc.ImportScenes(r.Context(), scenes)
	if err != nil {
		log.Printf("handler: failed to import scenes: %v", err)
		writeError(w, "Failed to import scenes", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]int{"imported": n}, http.StatusOK)
}

// Route returns the cheapest path between two scenes
func (h *GraphHandler) Route(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, "Invalid route", "'from' and 'to' are required", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Route(r.Context(), from, to)
	if errors.Is(err, route.ErrNoRoute) {
		writeError(w, "Not found", "no route from "+from+" to "+to, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("handler: failed to route: %v", err)
		writeError(w, "Failed to route", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// FloorInfo describes one floor background
type FloorInfo struct {
	Key  string `json:"key"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

// ListFloors returns the configured floors in numeric order
func (h *GraphHandler) ListFloors(w http.ResponseWriter, r *http.Request) {
	keys := h.floors.Keys()
	floors := make([]FloorInfo, 0, len(keys))
	for _, key := range keys {
		p, _ := h.floors.Path(key)
		floors = append(floors, FloorInfo{Key: key, Path: p, URL: FloorAssetURL(p)})
	}
	writeJSON(w, floors, http.StatusOK)
}

// FloorAssetPrefix is where floor images are served
const FloorAssetPrefix = "/assets/floors"

// FloorAssetURL maps a configured image path to its served URL
func FloorAssetURL(p string) string {
	u := url.URL{Path: FloorAssetPrefix + "/" + strings.TrimLeft(p, "/")}
	return u.EscapedPath()
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("handler: failed to encode JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		log.Printf("handler: failed to encode error response: %v", err)
	}
}
