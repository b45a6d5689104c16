package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/MikeSquared-Agency/Versus/internal/catalog"
)

// HTTPClient reads products and category configs from a remote document
// store. Requests are rate limited client-side and never retried.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ catalog.Source = (*HTTPClient)(nil)

// NewHTTPClient creates a client. A non-positive requestsPerSecond disables
// rate limiting.
func NewHTTPClient(baseURL, token string, requestsPerSecond float64) *HTTPClient {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(limit, 5),
	}
}

type listEnvelope struct {
	Data []catalog.Product `json:"data"`
}

func (c *HTTPClient) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	body, err := c.get(ctx, "/products")
	if err != nil {
		return nil, err
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var products []catalog.Product
		if err := json.Unmarshal(body, &products); err != nil {
			return nil, fmt.Errorf("decode products: %w", err)
		}
		return products, nil
	}
	var env listEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return env.Data, nil
}

func (c *HTTPClient) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	body, err := c.get(ctx, "/products/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var p catalog.Product
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", id, err)
	}
	if p.ID == "" {
		p.ID = id
	}
	return &p, nil
}

func (c *HTTPClient) GetCategoryConfig(ctx context.Context, id string) (*catalog.CategoryConfig, error) {
	body, err := c.get(ctx, "/categories/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var cfg catalog.CategoryConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		return nil, fmt.Errorf("decode category %s: %w", id, err)
	}
	cfg.ID = id
	return &cfg, nil
}

func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "versus/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, catalog.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("docstore: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
