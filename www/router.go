// Package www serves the monitor's JSON API, its SSE event stream and the
// Prometheus endpoint.
package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"antmonitor/engine"
)

type Handlers struct {
	engine   *engine.Engine
	sessions *sessions.CookieStore
	eventHub *EventHub
}

func NewRouter(eng *engine.Engine) (http.Handler, func()) {
	hub := NewEventHub()
	hub.Start()
	subID := hub.SetupEngineListeners(eng)

	cfg := eng.AppConfig()
	cfg.RLock()
	secret := cfg.Web.SessionSecret
	cfg.RUnlock()

	h := &Handlers{
		engine:   eng,
		sessions: newSessionStore(secret),
		eventHub: hub,
	}

	ensureDefaultAdmin(eng.DB())

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/events", hub.SSEHandler)
	r.Handle("/metrics", eng.Metrics().Handler())

	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/password", h.handleChangePassword)
	})

	r.Route("/api", func(r chi.Router) {
		// Read-only, no auth required
		r.Get("/status", h.apiStatus)
		r.Get("/nodes", h.apiNodes)
		r.Get("/routes", h.apiListRoutes)
		r.Get("/templates", h.apiListTemplates)
		r.Get("/audit", h.apiAudit)
		for _, kind := range viewKinds {
			base := "/" + string(kind)
			r.Get(base, h.apiItems(kind))
			r.Get(base+"/stats", h.apiStats(kind))
			r.Get(base+"/criteria", h.apiGetCriteria(kind))
			// View criteria are display state, not fleet commands.
			r.Post(base+"/criteria", h.apiSetCriteria(kind))
		}

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/connect", h.apiConnect)
			r.Post("/disconnect", h.apiDisconnect)
			r.Post("/refresh", h.apiRefreshAll)
			r.Post("/refresh/{kind}", h.apiRefresh)
			r.Post("/vehicles/{name}/insert", h.apiInsertVehicle)
			r.Post("/vehicles/{name}/extract", h.apiExtractVehicle)
			r.Post("/missions", h.apiCreateMission)
			r.Delete("/missions/{id}", h.apiCancelMission)
			r.Put("/routes/{name}", h.apiSaveRoute)
			r.Delete("/routes/{name}", h.apiDeleteRoute)
			r.Post("/routes/{name}/dispatch", h.apiDispatchRoute)
			r.Post("/templates", h.apiCreateTemplate)
			r.Delete("/templates/{name}", h.apiDeleteTemplate)
			r.Post("/templates/{name}/dispatch", h.apiDispatchTemplate)
		})
	})

	stopFn := func() {
		eng.Events.Unsubscribe(subID)
		hub.Stop()
	}
	return r, stopFn
}
