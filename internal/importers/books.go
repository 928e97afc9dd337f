// Package importers runs batch book imports: per-candidate dedup, cover
// localization and insert, with partial failure accounted per item.
package importers

import (
	"fmt"
	"log"

	"readingroom/internal/dedup"
	"readingroom/internal/entities"
)

// Candidate is a book record offered to the batch importer.
type Candidate struct {
	Title           string               `json:"title"`
	Author          string               `json:"author"`
	ISBN            string               `json:"isbn,omitempty"`
	DoubanID        string               `json:"doubanId,omitempty"`
	CoverURL        string               `json:"coverUrl,omitempty"`
	Status          string               `json:"status,omitempty"`
	Rating          float64              `json:"rating,omitempty"`
	UserRating      *float64             `json:"userRating,omitempty"`
	Summary         string               `json:"summary,omitempty"`
	Review          string               `json:"review,omitempty"`
	Quotes          entities.QuoteList   `json:"quotes,omitempty"`
	ReadingDate     string               `json:"readingDate,omitempty"`
	TotalPages      int                  `json:"totalPages,omitempty"`
	ReadingProgress int                  `json:"readingProgress,omitempty"`
}

// SkippedItem names a candidate the importer did not insert and why.
type SkippedItem struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// Result summarizes one batch import run.
type Result struct {
	Imported     int           `json:"imported"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	SkippedItems []SkippedItem `json:"skipped_items,omitempty"`
}

// BookStore persists imported books.
type BookStore interface {
	Create(book *entities.Book) error
}

// CoverLocalizer resolves a cover reference before storage.
type CoverLocalizer interface {
	Localize(rawURL, key string) string
}

// Importer wires the dedup resolver, cover localizer and book store into
// the batch import procedure.
type Importer struct {
	resolver  *dedup.Resolver
	localizer CoverLocalizer
	store     BookStore
}

// NewImporter creates a batch importer.
func NewImporter(resolver *dedup.Resolver, localizer CoverLocalizer, store BookStore) *Importer {
	return &Importer{
		resolver:  resolver,
		localizer: localizer,
		store:     store,
	}
}

// Import processes candidates strictly one at a time: duplicate identity
// keys skip the item, cover download failures fall back to the remote
// URL inside the localizer, and an insert error fails only that item.
// The batch always runs to the end.
func (i *Importer) Import(candidates []Candidate) (Result, error) {
	var result Result

	for _, candidate := range candidates {
		if candidate.Title == "" || candidate.Author == "" {
			result.Skipped++
			result.SkippedItems = append(result.SkippedItems, SkippedItem{
				Title:  candidate.Title,
				Reason: "title and author are required",
			})
			continue
		}

		match, err := i.resolver.Resolve(candidate.ISBN, candidate.DoubanID)
		if err != nil {
			return result, fmt.Errorf("dedup lookup for %q: %w", candidate.Title, err)
		}
		if match != nil {
			result.Skipped++
			result.SkippedItems = append(result.SkippedItems, SkippedItem{
				Title:  candidate.Title,
				Reason: match.Reason(),
			})
			continue
		}

		book := candidate.toBook()
		book.CoverURL = i.localizer.Localize(candidate.CoverURL, candidate.coverKey())

		if err := i.store.Create(book); err != nil {
			log.Printf("Import failed for %q: %v", candidate.Title, err)
			result.Failed++
			continue
		}
		result.Imported++
	}

	return result, nil
}

func (c Candidate) toBook() *entities.Book {
	status := c.Status
	if !entities.ValidStatus(status) {
		if mapped, ok := entities.LegacyStatuses[status]; ok {
			status = string(mapped)
		} else {
			status = string(entities.StatusWantToRead)
		}
	}

	rating := c.Rating
	if rating == 0 {
		rating = 5
	}

	quotes := c.Quotes
	if quotes == nil {
		quotes = entities.QuoteList{}
	}

	book := &entities.Book{
		Title:           c.Title,
		Author:          c.Author,
		Status:          status,
		Rating:          rating,
		UserRating:      c.UserRating,
		Summary:         c.Summary,
		Review:          c.Review,
		Quotes:          quotes,
		ReadingDate:     c.ReadingDate,
		TotalPages:      c.TotalPages,
		ReadingProgress: c.ReadingProgress,
	}
	if c.ISBN != "" {
		isbn := c.ISBN
		book.ISBN = &isbn
	}
	if c.DoubanID != "" {
		doubanID := c.DoubanID
		book.DoubanID = &doubanID
	}
	return book
}

// coverKey picks the identity key used in generated cover filenames:
// ISBN when present, then the external catalog ID.
func (c Candidate) coverKey() string {
	if c.ISBN != "" {
		return c.ISBN
	}
	return c.DoubanID
}
