package comparison

import (
	"errors"

	"github.com/MikeSquared-Agency/Versus/internal/catalog"
)

const (
	// MaxProducts is the capacity of a comparison set.
	MaxProducts = 4
	// MinProducts is the smallest set that can be compared.
	MinProducts = 2
)

// ErrCategoryMismatch is returned when a product's category differs from the
// category of a non-empty set. The set must be cleared first.
var ErrCategoryMismatch = errors.New("product category does not match comparison set")

// AddOutcome describes what Add did with a product.
type AddOutcome int

const (
	Added AddOutcome = iota
	AlreadyPresent
	Full
	Rejected
)

func (o AddOutcome) String() string {
	switch o {
	case Added:
		return "added"
	case AlreadyPresent:
		return "already_present"
	case Full:
		return "full"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Set is an ordered group of up to MaxProducts products sharing one category.
// It is not safe for concurrent use; Session guards it.
type Set struct {
	products []catalog.Product
}

// Add appends p. A full set ignores the call without error, a category
// mismatch is rejected, and a duplicate identifier is a no-op.
func (s *Set) Add(p catalog.Product) (AddOutcome, error) {
	if len(s.products) >= MaxProducts {
		return Full, nil
	}
	if len(s.products) > 0 && p.Category != s.products[0].Category {
		return Rejected, ErrCategoryMismatch
	}
	if s.Contains(p.ID) {
		return AlreadyPresent, nil
	}
	s.products = append(s.products, p)
	return Added, nil
}

// Remove drops the product with the given id and reports whether it was present.
func (s *Set) Remove(id string) bool {
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i:i], s.products[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Set) Clear() { s.products = nil }

// Products returns the members in insertion order.
func (s *Set) Products() []catalog.Product {
	out := make([]catalog.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Category returns the shared category, or "" for an empty set.
func (s *Set) Category() string {
	if len(s.products) == 0 {
		return ""
	}
	return s.products[0].Category
}

func (s *Set) Len() int { return len(s.products) }

func (s *Set) Contains(id string) bool {
	for i := range s.products {
		if s.products[i].ID == id {
			return true
		}
	}
	return false
}
