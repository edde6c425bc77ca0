package www

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"antmonitor/engine"
	"antmonitor/fleet"
	"antmonitor/store"
	"antmonitor/view"
)

// viewKinds are the collections served through a filtered, sorted view.
var viewKinds = []fleet.Kind{fleet.KindVehicles, fleet.KindMissions, fleet.KindAlarms}

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// decode reads a JSON body into v, answering 400 itself on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.jsonError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// fleetError answers with a status matching the kind of a fleet failure.
func (h *Handlers) fleetError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrInvalidRequest):
		code = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, fleet.ErrNotConnected):
		code = http.StatusConflict
	case errors.Is(err, fleet.ErrAuth):
		code = http.StatusForbidden
	case errors.Is(err, fleet.ErrNetwork):
		code = http.StatusGatewayTimeout
	case errors.Is(err, fleet.ErrServer), errors.Is(err, fleet.ErrParse):
		code = http.StatusBadGateway
	}
	h.jsonError(w, err.Error(), code)
}

func (h *Handlers) apiStatus(w http.ResponseWriter, r *http.Request) {
	type refreshStatus struct {
		Kind    fleet.Kind `json:"kind"`
		Phase   string     `json:"phase"`
		Message string     `json:"message,omitempty"`
		Text    string     `json:"text"`
		At      string     `json:"at"`
	}
	var refresh []refreshStatus
	for _, st := range h.engine.Statuses() {
		refresh = append(refresh, refreshStatus{
			Kind:    st.Kind,
			Phase:   string(st.Phase),
			Message: st.Message,
			Text:    st.String(),
			At:      st.At.Format(time.RFC3339),
		})
	}
	sched := h.engine.Scheduler()
	h.jsonOK(w, map[string]any{
		"connection": h.engine.Connection(),
		"backend":    h.engine.Fleet().Name(),
		"scheduler": map[string]any{
			"state":       sched.State().String(),
			"interval_ms": sched.Interval().Milliseconds(),
			"in_flight":   sched.InFlight(),
		},
		"refresh":       refresh,
		"authenticated": h.isAuthenticated(r),
	})
}

func (h *Handlers) apiNodes(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.Nodes())
}

func (h *Handlers) apiItems(kind fleet.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.engine.Items(kind)
		if err != nil {
			h.jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		h.jsonOK(w, items)
	}
}

func (h *Handlers) apiStats(kind fleet.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := h.engine.Stats(kind)
		if err != nil {
			h.jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		h.jsonOK(w, st)
	}
}

func (h *Handlers) apiGetCriteria(kind fleet.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := h.engine.Criteria(kind)
		if err != nil {
			h.jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		filters, _ := h.engine.FilterNames(kind)
		h.jsonOK(w, map[string]any{"criteria": c, "filters": filters})
	}
}

func (h *Handlers) apiSetCriteria(kind fleet.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c view.Criteria
		if !h.decode(w, r, &c) {
			return
		}
		if err := h.engine.SetCriteria(kind, c); err != nil {
			h.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		got, _ := h.engine.Criteria(kind)
		h.jsonOK(w, got)
	}
}

func (h *Handlers) apiListRoutes(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.Routes())
}

func (h *Handlers) apiListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.DB().ListMissionTemplates()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*store.MissionTemplate{}
	}
	h.jsonOK(w, list)
}

func (h *Handlers) apiAudit(w http.ResponseWriter, r *http.Request) {
	var (
		entries []*store.AuditEntry
		err     error
	)
	if typ, id := r.URL.Query().Get("entity_type"), r.URL.Query().Get("entity_id"); typ != "" && id != "" {
		entries, err = h.engine.DB().ListEntityAudit(typ, id)
	} else {
		limit := 100
		if s := r.URL.Query().Get("limit"); s != "" {
			if n, perr := strconv.Atoi(s); perr == nil && n > 0 {
				limit = n
			}
		}
		entries, err = h.engine.DB().ListAuditLog(limit)
	}
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*store.AuditEntry{}
	}
	h.jsonOK(w, entries)
}
