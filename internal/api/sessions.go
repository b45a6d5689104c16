package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Versus/internal/comparison"
	"github.com/MikeSquared-Agency/Versus/internal/hermes"
	"github.com/MikeSquared-Agency/Versus/internal/resolver"
	"github.com/MikeSquared-Agency/Versus/internal/scan"
	"github.com/MikeSquared-Agency/Versus/internal/scoring"
)

type SessionsHandler struct {
	resolver *resolver.Resolver
	registry *comparison.Registry
	hermes   hermes.Client
	logger   *slog.Logger
}

func NewSessionsHandler(res *resolver.Resolver, reg *comparison.Registry, h hermes.Client, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{resolver: res, registry: reg, hermes: h, logger: logger}
}

type AddProductRequest struct {
	ProductID string `json:"product_id"`
}

type ScanRequest struct {
	Code string `json:"code"`
}

type AddProductResponse struct {
	Outcome string              `json:"outcome"`
	Session comparison.Snapshot `json:"session"`
}

// weightInput accepts a weight typed as a JSON string or number. Numbers keep
// their literal text so parsing stays in one place.
type weightInput string

func (w *weightInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*w = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = weightInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*w = weightInput(n.String())
	return nil
}

type WeightsRequest struct {
	Enabled bool                   `json:"enabled"`
	Weights map[string]weightInput `json:"weights"`
}

func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.registry.Create()
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.registry.Delete(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product_id required"})
		return
	}
	h.add(w, r, req.ProductID)
}

// Scan adds the product named by a scanned code or product link.
func (h *SessionsHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	id := scan.ExtractProductID(req.Code)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code required"})
		return
	}
	h.add(w, r, id)
}

func (h *SessionsHandler) add(w http.ResponseWriter, r *http.Request, productID string) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	p, err := h.resolver.Product(r.Context(), productID)
	if err != nil {
		writeError(w, err)
		return
	}
	outcome, err := s.Add(*p)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if outcome == comparison.Added {
		status = http.StatusCreated
	}
	writeJSON(w, status, AddProductResponse{Outcome: outcome.String(), Session: s.Snapshot()})
}

func (h *SessionsHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if !s.Remove(chi.URLParam(r, "product_id")) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not in session"})
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *SessionsHandler) ClearProducts(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Clear()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// Config returns the config for the session's active category.
func (h *SessionsHandler) Config(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	cfg, err := s.Config(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// SetWeights stores the custom weight draft. An invalid draft is kept and
// reported with 422; the previous weights stay in effect.
func (h *SessionsHandler) SetWeights(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req WeightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	raw := make(map[string]string, len(req.Weights))
	for k, v := range req.Weights {
		raw[k] = string(v)
	}
	if err := s.SetOverrides(req.Enabled, raw); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *SessionsHandler) Compare(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	cmp, err := s.Compare(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if h.hermes != nil {
		snap := s.Snapshot()
		evt := completedEvent(s.ID, snap.CustomWeights, cmp)
		if err := h.hermes.Publish(hermes.SubjectComparisonCompleted(s.ID), evt); err != nil {
			h.logger.Warn("publish comparison event failed", "session", s.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, cmp)
}

func completedEvent(sessionID string, custom bool, cmp *scoring.Comparison) hermes.ComparisonCompletedEvent {
	evt := hermes.ComparisonCompletedEvent{
		SessionID:     sessionID,
		Category:      cmp.Category,
		CustomWeights: custom,
		Ranking:       make([]hermes.RankedProduct, 0, len(cmp.Results)),
		Timestamp:     time.Now(),
	}
	for _, res := range cmp.Results {
		evt.Ranking = append(evt.Ranking, hermes.RankedProduct{ProductID: res.Product.ID, TotalScore: res.TotalScore})
	}
	return evt
}

func (h *SessionsHandler) session(w http.ResponseWriter, r *http.Request) (*comparison.Session, bool) {
	id := chi.URLParam(r, "id")
	s, ok := h.registry.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session " + strconv.Quote(id) + " not found"})
		return nil, false
	}
	return s, true
}
