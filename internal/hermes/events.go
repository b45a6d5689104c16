package hermes

import "time"

// RankedProduct is one row of a published ranking.
type RankedProduct struct {
	ProductID  string `json:"product_id"`
	TotalScore int    `json:"total_score"`
}

type ComparisonCompletedEvent struct {
	SessionID     string          `json:"session_id"`
	Category      string          `json:"category"`
	CustomWeights bool            `json:"custom_weights"`
	Ranking       []RankedProduct `json:"ranking"`
	Timestamp     time.Time       `json:"timestamp"`
}

// CacheInvalidatedEvent is published after a force refresh (Scope "all") or a
// single category clear (Scope "category").
type CacheInvalidatedEvent struct {
	Scope      string    `json:"scope"`
	CategoryID string    `json:"category_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// CatalogUpdatedEvent is consumed from catalog writers. An empty CategoryID
// means the whole catalog changed.
type CatalogUpdatedEvent struct {
	CategoryID string `json:"category_id,omitempty"`
}
