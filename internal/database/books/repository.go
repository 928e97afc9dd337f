// Package books provides database operations for catalog book records.
//
// The repository implements dedup.CatalogIndex through its FindByISBN
// and FindByDoubanID lookups.
package books

import (
	"strings"

	"gorm.io/gorm"

	"readingroom/internal/entities"
)

// Sort orders accepted by List.
const (
	SortByRating = "rating"
	SortByDate   = "date"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns books, optionally filtered by a substring match on title
// or author and ordered by the requested sort key (default: newest first).
func (r *Repository) List(search, sort string) ([]entities.Book, error) {
	query := r.db.Model(&entities.Book{})

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title LIKE ? OR author LIKE ?", pattern, pattern)
	}

	switch sort {
	case SortByRating:
		query = query.Order("rating DESC")
	case SortByDate:
		query = query.Order("reading_date DESC")
	default:
		query = query.Order("id DESC")
	}

	var books []entities.Book
	err := query.Find(&books).Error
	return books, err
}

// GetByID retrieves a single book.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByISBN looks up a book by exact ISBN. Returns (nil, nil) when no
// record carries that ISBN.
func (r *Repository) FindByISBN(isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("isbn = ?", isbn).First(&book).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByDoubanID looks up a book by exact external catalog identifier.
// Returns (nil, nil) when no record carries that identifier.
func (r *Repository) FindByDoubanID(doubanID string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("douban_id = ?", doubanID).First(&book).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Create inserts a new book record.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Create(book).Error
}

// UpdateFields applies a partial patch to a book. Only the supplied
// columns change.
func (r *Repository) UpdateFields(id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&entities.Book{}).Where("id = ?", id).Updates(updates).Error
}

// Delete removes a book and all notes referencing it in one transaction.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&entities.Note{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Book{}, id).Error
	})
}

// ListRemoteCovers returns books whose cover reference still points at a
// remote host, for the scheduled localization sweep.
func (r *Repository) ListRemoteCovers() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.
		Where("cover_url LIKE ? OR cover_url LIKE ?", "http://%", "https://%").
		Find(&books).Error
	return books, err
}

// BooksMissingISBN returns books whose ISBN column is null or empty,
// for the CLI backfill command.
func (r *Repository) BooksMissingISBN() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.
		Where("isbn IS NULL OR isbn = ''").
		Find(&books).Error
	return books, err
}

// SetISBN records an ISBN for a book, trimming surrounding whitespace.
func (r *Repository) SetISBN(id uint, isbn string) error {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil
	}
	return r.db.Model(&entities.Book{}).Where("id = ?", id).Update("isbn", isbn).Error
}
