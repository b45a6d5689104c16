package catalog

import "strings"

// Product is a catalog entry. Products are treated as immutable once fetched.
type Product struct {
	ID         string           `json:"id"`
	Category   string           `json:"category"`
	Name       string           `json:"name"`
	Brand      string           `json:"brand"`
	Price      Value            `json:"price"`
	Attributes map[string]Value `json:"specs"`
	Image      string           `json:"image,omitempty"`
	BuyURL     string           `json:"buy,omitempty"`
}

// Lookup resolves attr against the product's attributes. The key is tried as
// given, then as the raw catalog key mapped to it, then as the internal key of
// a raw name. The price attribute falls back to the product price.
func (p Product) Lookup(attr string) Value {
	if v, ok := p.Attributes[attr]; ok {
		return v
	}
	if raw, ok := RawKey(attr); ok {
		if v, ok := p.Attributes[raw]; ok {
			return v
		}
	}
	if internal := InternalKey(attr); internal != attr {
		if v, ok := p.Attributes[internal]; ok {
			return v
		}
	}
	if InternalKey(attr) == "price" {
		return p.Price
	}
	return Missing()
}

// Matches reports whether the product passes the catalog search filter: term
// is a case-insensitive substring of the name or brand, and category is "all",
// empty, or the product's category.
func (p Product) Matches(term, category string) bool {
	if category != "" && category != "all" && p.Category != category {
		return false
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Brand), term)
}

// Filter returns the products matching term and category, in catalog order.
func Filter(products []Product, term, category string) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Matches(term, category) {
			out = append(out, p)
		}
	}
	return out
}
