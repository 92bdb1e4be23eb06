package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/system", s.handleSystem)
		r.Get("/status", s.handleStatus)
		r.Get("/mode", s.handleMode)

		r.Route("/controllers", func(r chi.Router) {
			r.Get("/", s.handleListControllers)
			r.Post("/", s.handleAddController)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/signals", s.handleListSignals)
				r.Post("/signals", s.handleRegisterSignal)
				r.Post("/modeswitch", s.handleRegisterModeSwitch)
			})
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", s.handleListClients)
			r.Post("/", s.handleAddClient)
			r.Route("/{name}/tracks", func(r chi.Router) {
				r.Get("/", s.handleListTracks)
				r.Post("/", s.handleAddTrack)
				r.Post("/{label}/record", s.handleToggleRecord)
			})
		})

		r.Get("/trigger-map", s.handleGetTriggerMap)
		r.Post("/trigger-map", s.handleAssignTrack)
		r.Get("/scene-map", s.handleGetSceneMap)
		r.Post("/scene-map", s.handleAssignScene)
		r.Get("/mode-switch", s.handleGetModeSwitch)
		r.Post("/mode-switch", s.handleAssignModeSwitch)

		r.Route("/scenes", func(r chi.Router) {
			r.Get("/", s.handleListScenes)
			r.Post("/", s.handleCreateSceneFromCurrent)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetScene)
				r.Post("/tracks", s.handleAddTrackToScene)
				r.Post("/activate", s.handleActivateScene)
			})
		})

		r.Post("/routing/save", s.handleSave)
		r.Post("/routing/load", s.handleLoad)

		r.Get("/activity", s.handleListActivity)
		r.Get("/activity/{id}", s.handleGetActivity)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
