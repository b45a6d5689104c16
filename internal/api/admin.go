package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Versus/internal/comparison"
	"github.com/MikeSquared-Agency/Versus/internal/resolver"
)

type AdminHandler struct {
	resolver *resolver.Resolver
	registry *comparison.Registry
}

func NewAdminHandler(res *resolver.Resolver, reg *comparison.Registry) *AdminHandler {
	return &AdminHandler{resolver: res, registry: reg}
}

type Stats struct {
	Sessions int `json:"sessions"`
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Stats{Sessions: h.registry.Len()})
}

// Refresh drops every cached snapshot so the next read goes to the catalog.
func (h *AdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.resolver.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (h *AdminHandler) ClearCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.resolver.ClearCategory(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "category": id})
}
