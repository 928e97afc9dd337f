// Package notes provides database operations for book annotations.
package notes

import (
	"gorm.io/gorm"

	"readingroom/internal/entities"
)

// Repository handles all note database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new notes repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByBook returns all notes for a book, newest first.
func (r *Repository) ListByBook(bookID uint) ([]entities.Note, error) {
	var notes []entities.Note
	err := r.db.
		Where("book_id = ?", bookID).
		Order("created_at DESC").
		Find(&notes).Error
	return notes, err
}

// GetByID retrieves a single note.
func (r *Repository) GetByID(id uint) (*entities.Note, error) {
	var note entities.Note
	if err := r.db.First(&note, id).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// Create inserts a single note.
func (r *Repository) Create(note *entities.Note) error {
	return r.db.Create(note).Error
}

// BulkImport inserts one note per content line inside a single
// transaction. The batch is all-or-nothing.
func (r *Repository) BulkImport(bookID uint, contents []string) (int, error) {
	if len(contents) == 0 {
		return 0, nil
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, content := range contents {
			note := entities.Note{BookID: bookID, Content: content}
			if err := tx.Create(&note).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(contents), nil
}

// UpdateContent replaces a note's text.
func (r *Repository) UpdateContent(id uint, content string) error {
	return r.db.Model(&entities.Note{}).Where("id = ?", id).Update("content", content).Error
}

// Delete removes a single note.
func (r *Repository) Delete(id uint) error {
	return r.db.Delete(&entities.Note{}, id).Error
}
