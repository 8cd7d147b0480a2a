package handler

import (
	"net/http"
)

// Routes holds everything the router serves
type Routes struct {
	Graph    *GraphHandler
	Events   http.Handler
	Live     http.Handler
	// Web serves the browser client at /
	Web      http.Handler
	AssetDir string
}

// NewRouter builds the API mux wrapped in the standard middleware chain
func NewRouter(rt Routes) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/graph", rt.Graph.GetGraph)
	mux.HandleFunc("PUT /api/graph", rt.Graph.SaveGraph)
	mux.HandleFunc("POST /api/graph", rt.Graph.SaveGraph)
	mux.HandleFunc("POST /api/graph/regenerate", rt.Graph.Regenerate)
	mux.HandleFunc("POST /api/graph/cleanup", rt.Graph.Cleanup)

	mux.HandleFunc("GET /api/scenes", rt.Graph.ListScenes)
	mux.HandleFunc("POST /api/scenes", rt.Graph.ImportScenes)

	mux.HandleFunc("GET /api/route", rt.Graph.Route)
	mux.HandleFunc("GET /api/floors", rt.Graph.ListFloors)

	if rt.AssetDir != "" {
		mux.Handle("GET "+FloorAssetPrefix+"/", http.StripPrefix(FloorAssetPrefix, http.FileServer(http.Dir(rt.AssetDir))))
	}
	if rt.Events != nil {
		mux.Handle("GET /events", rt.Events)
	}
	if rt.Live != nil {
		mux.Handle("GET /ws/minimap", rt.Live)
	}

	if rt.Web != nil {
		mux.Handle("GET /", rt.Web)
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	return Chain(mux, Recover, CORS, Logger)
}
