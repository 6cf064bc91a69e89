package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kwv/lloydmesh/mesh"
)

// maxRelaxIterations caps a single POST /relax
const maxRelaxIterations = 10000

// newHTTPServer creates an HTTP server with all endpoints. publisher may be
// nil, in which case relax and reset do not publish.
func newHTTPServer(session *mesh.Session, publisher *mesh.Publisher, config *mesh.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := struct {
			Status     string    `json:"status"`
			Timestamp  time.Time `json:"timestamp"`
			RunID      string    `json:"runId"`
			Iteration  int       `json:"iteration"`
			Publishing bool      `json:"publishing"`
		}{
			Status:     "ok",
			Timestamp:  time.Now(),
			RunID:      session.RunID(),
			Iteration:  session.Iterations(),
			Publishing: publisher != nil,
		}
		writeJSON(w, http.StatusOK, status)
	})

	r.Get("/points", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, session.Snapshot())
	})

	r.Get("/cells.geojson", func(w http.ResponseWriter, r *http.Request) {
		cells := session.Cells()
		if tol := r.URL.Query().Get("simplify"); tol != "" {
			v, err := strconv.ParseFloat(tol, 64)
			if err != nil || v < 0 {
				http.Error(w, fmt.Sprintf("invalid simplify tolerance %q", tol), http.StatusBadRequest)
				return
			}
			cells = mesh.SimplifyCells(cells, v)
		}

		fc := mesh.DiagramFeatureCollection(session.Region(), session.Points(), cells)
		w.Header().Set("Content-Type", "application/geo+json")
		if err := mesh.WriteGeoJSON(w, fc); err != nil {
			log.Error("Error encoding GeoJSON", "err", err)
		}
	})

	r.Get("/render.svg", func(w http.ResponseWriter, r *http.Request) {
		renderer := mesh.NewVectorRenderer(session.Region(), session.Points(), session.Cells())
		renderer.ApplyConfig(config.Render)

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToSVG(w); err != nil {
			log.Error("Error rendering SVG", "err", err)
			http.Error(w, "Failed to render SVG", http.StatusInternalServerError)
		}
	})

	r.Get("/render.png", func(w http.ResponseWriter, r *http.Request) {
		renderer := mesh.NewVectorRenderer(session.Region(), session.Points(), session.Cells())
		renderer.ApplyConfig(config.Render)

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToPNG(w); err != nil {
			log.Error("Error rendering PNG", "err", err)
			http.Error(w, "Failed to render PNG", http.StatusInternalServerError)
		}
	})

	r.Post("/relax", func(w http.ResponseWriter, r *http.Request) {
		n := config.Iterations
		if raw := r.URL.Query().Get("iterations"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 0 || v > maxRelaxIterations {
				http.Error(w, fmt.Sprintf("iterations must be an integer in [0, %d]", maxRelaxIterations), http.StatusBadRequest)
				return
			}
			n = v
		}

		snap, err := session.Relax(n)
		if err != nil {
			log.Error("Relaxation failed", "err", err)
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		publish(publisher, snap)
		writeJSON(w, http.StatusOK, snap)
	})

	r.Post("/reset", func(w http.ResponseWriter, r *http.Request) {
		if err := session.Reset(); err != nil {
			log.Error("Reset failed", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		snap := session.Snapshot()
		publish(publisher, snap)
		writeJSON(w, http.StatusOK, snap)
	})

	return r
}

// publish sends snap when a publisher is configured. Failures are logged;
// the HTTP response does not depend on the broker.
func publish(publisher *mesh.Publisher, snap mesh.Snapshot) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishSnapshot(snap); err != nil {
		log.Warn("Error publishing snapshot", "run", snap.RunID, "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error encoding response", "err", err)
	}
}

// requestLogger logs each request at debug level
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"remote", r.RemoteAddr,
			"elapsed", time.Since(start).Round(time.Microsecond))
	})
}
