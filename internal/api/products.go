package api

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Versus/internal/catalog"
	"github.com/MikeSquared-Agency/Versus/internal/resolver"
)

type CatalogHandler struct {
	resolver *resolver.Resolver
}

func NewCatalogHandler(res *resolver.Resolver) *CatalogHandler {
	return &CatalogHandler{resolver: res}
}

// ListProducts serves the catalog snapshot filtered by ?q and ?category.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.resolver.Products(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, catalog.Filter(products, q.Get("q"), q.Get("category")))
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolver.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type CategorySummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Products int    `json:"products"`
}

// ListCategories summarises the categories present in the catalog snapshot.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	products, err := h.resolver.Products(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	counts := make(map[string]int)
	for _, p := range products {
		counts[p.Category]++
	}
	out := make([]CategorySummary, 0, len(counts))
	for id, n := range counts {
		out = append(out, CategorySummary{ID: id, Name: catalog.CategoryDisplayName(id), Products: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

type AttributeInfo struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

type CategoryDetail struct {
	*catalog.CategoryConfig
	Name       string          `json:"name"`
	Attributes []AttributeInfo `json:"attributes"`
}

// GetCategory returns the resolved config with labelled attributes.
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.resolver.ResolveConfig(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	attrs := cfg.Attributes(cfg.Weights)
	detail := CategoryDetail{
		CategoryConfig: cfg,
		Name:           catalog.CategoryDisplayName(cfg.ID),
		Attributes:     make([]AttributeInfo, 0, len(attrs)),
	}
	for _, a := range attrs {
		detail.Attributes = append(detail.Attributes, AttributeInfo{
			Key:    a,
			Label:  catalog.DisplayName(a),
			Weight: cfg.Weights[a],
		})
	}
	writeJSON(w, http.StatusOK, detail)
}
