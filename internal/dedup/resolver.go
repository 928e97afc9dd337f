// Package dedup decides whether a candidate book already exists in the
// catalog, matching on its identity keys in a fixed order.
package dedup

import (
	"fmt"

	"readingroom/internal/entities"
)

// CatalogIndex provides the exact-equality identity lookups the resolver
// needs. Both return (nil, nil) when no record matches.
type CatalogIndex interface {
	FindByISBN(isbn string) (*entities.Book, error)
	FindByDoubanID(doubanID string) (*entities.Book, error)
}

// Match identifies an existing record that collides with a candidate.
type Match struct {
	Book *entities.Book
	Key  string // "isbn" or "douban_id"
}

// Reason describes the collision for skip lists and conflict responses.
func (m *Match) Reason() string {
	return fmt.Sprintf("duplicate %s of existing book #%d (%s)", m.Key, m.Book.ID, m.Book.Title)
}

// Resolver checks candidate identity keys against the catalog.
type Resolver struct {
	index CatalogIndex
}

// NewResolver creates a resolver over the given catalog index.
func NewResolver(index CatalogIndex) *Resolver {
	return &Resolver{index: index}
}

// Resolve reports whether a record with the candidate's ISBN or external
// catalog ID already exists. ISBN is checked first; the external ID only
// when the ISBN is absent or unmatched. Returns nil when neither key is
// present or neither lookup matches. Read-only.
func (r *Resolver) Resolve(isbn, doubanID string) (*Match, error) {
	if isbn != "" {
		book, err := r.index.FindByISBN(isbn)
		if err != nil {
			return nil, fmt.Errorf("isbn lookup: %w", err)
		}
		if book != nil {
			return &Match{Book: book, Key: "isbn"}, nil
		}
	}

	if doubanID != "" {
		book, err := r.index.FindByDoubanID(doubanID)
		if err != nil {
			return nil, fmt.Errorf("douban id lookup: %w", err)
		}
		if book != nil {
			return &Match{Book: book, Key: "douban_id"}, nil
		}
	}

	return nil, nil
}
