package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/openroads/crashmap/internal/filter"
	"github.com/openroads/crashmap/internal/session"
	"github.com/openroads/crashmap/internal/store"
	"github.com/openroads/crashmap/internal/viz"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve projections and statistics to the map frontend",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := newSession(ctx)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		api := apiHandlers{session: s, store: st}
		r.Route("/api", func(r chi.Router) {
			r.Get("/stats", api.stats)
			r.Get("/points", api.points)
			r.Get("/density", api.density)
			r.Get("/choropleth", api.choropleth)
			r.Get("/boundaries", api.boundaries)
			r.Get("/layers", api.getLayers)
			r.Put("/layers", api.putLayers)
			r.Post("/presets", api.savePreset)
			r.Get("/presets", api.listPresets)
			r.Get("/presets/{code}", api.getPreset)
			r.Delete("/presets/{code}", api.deletePreset)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: r}

		go func() {
			<-ctx.Done()
			_ = srv.Close()
		}()

		zap.L().Info("serving", zap.Int("port", port))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

type apiHandlers struct {
	session *session.Session
	store   store.Store
}

// filterView decodes the request's query string as a filter specification and
// applies it. The full query string is the shareable encoding, so pasting a
// shared URL straight at the API works.
func (h *apiHandlers) filterView(w http.ResponseWriter, r *http.Request) *session.View {
	spec, err := filter.Decode(r.URL.RawQuery)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid filter")
		return nil
	}
	view, err := h.session.ApplyFilter(r.Context(), spec, nil)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "filter failed")
		return nil
	}
	return view
}

func (h *apiHandlers) stats(w http.ResponseWriter, r *http.Request) {
	view := h.filterView(w, r)
	if view == nil {
		return
	}
	writeJSON(w, http.StatusOK, view.Totals)
}

// layerEnabled gates a projection endpoint on its layer toggle; a disabled
// layer's projection is never computed.
func (h *apiHandlers) layerEnabled(w http.ResponseWriter, enabled bool) bool {
	if !enabled {
		httpError(w, http.StatusNotFound, "layer disabled")
	}
	return enabled
}

// points streams newline-delimited GeoJSON feature collections so the
// frontend renders markers progressively instead of blocking on the full set.
func (h *apiHandlers) points(w http.ResponseWriter, r *http.Request) {
	if !h.layerEnabled(w, h.session.ActiveLayers().Points) {
		return
	}
	view := h.filterView(w, r)
	if view == nil {
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)

	err := viz.EmitPoints(view.Records, viz.DefaultPointBatch, func(fc *geojson.FeatureCollection) error {
		if err := enc.Encode(fc); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		zap.L().Warn("point stream aborted", zap.Error(err))
	}
}

func (h *apiHandlers) density(w http.ResponseWriter, r *http.Request) {
	if !h.layerEnabled(w, h.session.ActiveLayers().Density) {
		return
	}
	view := h.filterView(w, r)
	if view == nil {
		return
	}
	writeJSON(w, http.StatusOK, viz.DensitySamples(view.Records))
}

func (h *apiHandlers) choropleth(w http.ResponseWriter, r *http.Request) {
	if !h.layerEnabled(w, h.session.ActiveLayers().Choropleth) {
		return
	}
	view := h.filterView(w, r)
	if view == nil {
		return
	}
	writeJSON(w, http.StatusOK, h.session.Choropleth(view))
}

func (h *apiHandlers) boundaries(w http.ResponseWriter, r *http.Request) {
	if !h.layerEnabled(w, h.session.ActiveLayers().Choropleth) {
		return
	}
	view := h.filterView(w, r)
	if view == nil {
		return
	}
	fc := h.session.Boundaries().FeatureCollection(h.session.Choropleth(view))
	writeJSON(w, http.StatusOK, fc)
}

func (h *apiHandlers) getLayers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.session.ActiveLayers())
}

func (h *apiHandlers) putLayers(w http.ResponseWriter, r *http.Request) {
	var layers session.Layers
	if err := json.NewDecoder(r.Body).Decode(&layers); err != nil {
		httpError(w, http.StatusBadRequest, "invalid layer toggles")
		return
	}
	h.session.SetLayers(layers)
	writeJSON(w, http.StatusOK, layers)
}

func (h *apiHandlers) savePreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Filter string `json:"filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		httpError(w, http.StatusBadRequest, "name and filter are required")
		return
	}
	spec, err := filter.Decode(req.Filter)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid filter")
		return
	}

	p, err := h.store.SavePreset(r.Context(), req.Name, filter.Encode(spec))
	if err != nil {
		httpError(w, http.StatusInternalServerError, "save failed")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *apiHandlers) listPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := h.store.ListPresets(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, presets)
}

func (h *apiHandlers) getPreset(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetPreset(r.Context(), chi.URLParam(r, "code"))
	if errors.Is(err, store.ErrNotFound) {
		httpError(w, http.StatusNotFound, "unknown preset")
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *apiHandlers) deletePreset(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeletePreset(r.Context(), chi.URLParam(r, "code"))
	if errors.Is(err, store.ErrNotFound) {
		httpError(w, http.StatusNotFound, "unknown preset")
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
