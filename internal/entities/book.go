package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReadingStatus describes where a book sits in the reading lifecycle.
type ReadingStatus string

const (
	StatusWantToRead ReadingStatus = "want-to-read"
	StatusReading    ReadingStatus = "reading"
	StatusRead       ReadingStatus = "read"
)

// LegacyStatuses maps retired status values onto current ones.
// Collapsed once at startup by the collapse-legacy-status migration.
var LegacyStatuses = map[string]ReadingStatus{
	"想读":       StatusWantToRead,
	"在读":       StatusReading,
	"已读":       StatusRead,
	"读过":       StatusRead,
	"finished": StatusRead,
}

// ValidStatus reports whether s is one of the current status values.
func ValidStatus(s string) bool {
	switch ReadingStatus(s) {
	case StatusWantToRead, StatusReading, StatusRead:
		return true
	}
	return false
}

// Quote is a single memorable passage stored with the book.
type Quote struct {
	Content string `json:"content"`
	ID      int    `json:"id"`
}

// QuoteList is stored as a JSON text column, matching the catalog's
// on-disk format where quotes live inline with the book row.
type QuoteList []Quote

// Value serializes the quote list to JSON for storage.
func (q QuoteList) Value() (driver.Value, error) {
	if q == nil {
		return "[]", nil
	}
	data, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan deserializes the JSON text column into the quote list.
func (q *QuoteList) Scan(value any) error {
	if value == nil {
		*q = QuoteList{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported quotes column type %T", value)
	}

	if len(data) == 0 {
		*q = QuoteList{}
		return nil
	}
	return json.Unmarshal(data, q)
}

// Book is the catalog's unit of storage.
type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"index;size:512;not null" json:"title"`
	Author          string    `gorm:"index;size:256;not null" json:"author"`
	ISBN            *string   `gorm:"uniqueIndex;size:20" json:"isbn,omitempty"`
	DoubanID        *string   `gorm:"uniqueIndex;size:64" json:"doubanId,omitempty"`
	CoverURL        string    `gorm:"size:2048" json:"coverUrl,omitempty"`
	Status          string    `gorm:"size:20;default:'want-to-read'" json:"status"`
	Rating          float64   `gorm:"default:5" json:"rating"`
	UserRating      *float64  `json:"userRating,omitempty"`
	Summary         string    `gorm:"type:text" json:"summary,omitempty"`
	Review          string    `gorm:"type:text" json:"review,omitempty"`
	Quotes          QuoteList `gorm:"type:text" json:"quotes"`
	ReadingDate     string    `gorm:"size:10" json:"readingDate,omitempty"`
	TotalPages      int       `gorm:"default:0" json:"totalPages"`
	ReadingProgress int       `gorm:"default:0" json:"readingProgress"`
	FileURL         string    `gorm:"size:2048" json:"fileUrl,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// Note is an annotation attached to exactly one book.
type Note struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BookID     uint      `gorm:"index;not null" json:"book_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	PageNumber *int      `json:"page_number,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Note) TableName() string {
	return "notes"
}

// MigrationHistory records named one-shot data migrations so each
// executes at most once across restarts.
type MigrationHistory struct {
	Name      string    `gorm:"primaryKey;size:128" json:"name"`
	AppliedAt time.Time `json:"applied_at"`
}

func (MigrationHistory) TableName() string {
	return "migration_history"
}
