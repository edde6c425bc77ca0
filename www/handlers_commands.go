package www

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"antmonitor/fleet"
	"antmonitor/store"
)

func (h *Handlers) apiConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Server   string `json:"server"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Username == "" {
		h.jsonError(w, "username is required", http.StatusBadRequest)
		return
	}
	if err := h.engine.Connect(r.Context(), req.Server, req.Username, req.Password); err != nil {
		h.fleetError(w, err)
		return
	}
	h.jsonOK(w, h.engine.Connection())
}

func (h *Handlers) apiDisconnect(w http.ResponseWriter, r *http.Request) {
	h.engine.Disconnect(r.Context())
	h.jsonOK(w, h.engine.Connection())
}

func (h *Handlers) apiRefresh(w http.ResponseWriter, r *http.Request) {
	kind, ok := fleet.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		h.jsonError(w, "unknown kind", http.StatusNotFound)
		return
	}
	if err := h.engine.Refresh(r.Context(), kind); err != nil {
		h.fleetError(w, err)
		return
	}
	st, _ := h.engine.Status(kind)
	h.jsonOK(w, map[string]string{"status": "ok", "text": st.String()})
}

func (h *Handlers) apiRefreshAll(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.RefreshAll(r.Context()); err != nil {
		h.fleetError(w, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiInsertVehicle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Node string `json:"node"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Node == "" {
		h.jsonError(w, "node is required", http.StatusBadRequest)
		return
	}
	if err := h.engine.InsertVehicle(r.Context(), chi.URLParam(r, "name"), req.Node, h.getUsername(r)); err != nil {
		h.fleetError(w, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiExtractVehicle(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ExtractVehicle(r.Context(), chi.URLParam(r, "name"), h.getUsername(r)); err != nil {
		h.fleetError(w, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}

type missionRequest struct {
	Type     int    `json:"type"`
	FromNode string `json:"from_node"`
	ToNode   string `json:"to_node"`
	Vehicle  string `json:"vehicle"`
	Priority int    `json:"priority"`
	// Deadline is RFC 3339; empty means none.
	Deadline string `json:"deadline"`
}

func (h *Handlers) apiCreateMission(w http.ResponseWriter, r *http.Request) {
	var req missionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.FromNode == "" && req.ToNode == "" {
		h.jsonError(w, "from_node or to_node is required", http.StatusBadRequest)
		return
	}
	mr := fleet.MissionRequest{
		Type:     fleet.MissionType(req.Type),
		FromNode: req.FromNode,
		ToNode:   req.ToNode,
		Vehicle:  req.Vehicle,
		Priority: req.Priority,
	}
	if req.Deadline != "" {
		t, err := time.Parse(time.RFC3339, req.Deadline)
		if err != nil {
			h.jsonError(w, "invalid deadline: "+err.Error(), http.StatusBadRequest)
			return
		}
		mr.Deadline = t
	}
	id, err := h.engine.CreateMission(r.Context(), mr, h.getUsername(r))
	if err != nil {
		h.fleetError(w, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok", "mission_id": id})
}

func (h *Handlers) apiCancelMission(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.CancelMission(r.Context(), chi.URLParam(r, "id"), h.getUsername(r)); err != nil {
		h.fleetError(w, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiSaveRoute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string   `json:"description"`
		Nodes       []string `json:"nodes"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	route := &store.Route{Name: chi.URLParam(r, "name"), Description: req.Description, Nodes: req.Nodes}
	if err := h.engine.SaveRoute(route, h.getUsername(r)); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.jsonOK(w, route)
}

func (h *Handlers) apiDeleteRoute(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteRoute(chi.URLParam(r, "name"), h.getUsername(r)); err != nil {
		h.fleetError(w, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiDispatchRoute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vehicle  string `json:"vehicle"`
		Priority int    `json:"priority"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	ids, err := h.engine.DispatchRoute(r.Context(), chi.URLParam(r, "name"), req.Vehicle, req.Priority, h.getUsername(r))
	if err != nil {
		h.fleetError(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"status": "ok", "mission_ids": ids})
}

func (h *Handlers) apiCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t store.MissionTemplate
	if !h.decode(w, r, &t) {
		return
	}
	if t.Name == "" {
		h.jsonError(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := h.engine.DB().CreateMissionTemplate(&t); err != nil {
		h.jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	h.engine.DB().AppendAudit("template", t.Name, "create", "", t.FromNode+" -> "+t.ToNode, h.getUsername(r))
	h.jsonOK(w, t)
}

func (h *Handlers) apiDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.engine.DB().DeleteMissionTemplate(name); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.DB().AppendAudit("template", name, "delete", "", "", h.getUsername(r))
	h.jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiDispatchTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := h.engine.CreateFromTemplate(r.Context(), chi.URLParam(r, "name"), h.getUsername(r))
	if err != nil {
		h.fleetError(w, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok", "mission_id": id})
}
