package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"readingroom/internal/entities"
)

// NoteStore defines the note operations the controller needs.
type NoteStore interface {
	ListByBook(bookID uint) ([]entities.Note, error)
	GetByID(id uint) (*entities.Note, error)
	Create(note *entities.Note) error
	BulkImport(bookID uint, contents []string) (int, error)
	UpdateContent(id uint, content string) error
	Delete(id uint) error
}

type NotesController struct {
	store NoteStore
	books BookStore
}

func NewNotesController(store NoteStore, books BookStore) *NotesController {
	return &NotesController{store: store, books: books}
}

// ListNotes returns all notes of a book, newest first.
// GET /api/books/:id/notes
func (nc *NotesController) ListNotes(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	notes, err := nc.store.ListByBook(bookID)
	if err != nil {
		respondInternalError(c, err, "list notes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes, "count": len(notes)})
}

type createNoteRequest struct {
	Content    string `json:"content"`
	PageNumber *int   `json:"page_number"`
}

// CreateNote attaches a single note to a book.
// POST /api/books/:id/notes
func (nc *NotesController) CreateNote(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondBadRequest(c, "content is required")
		return
	}

	if _, err := nc.books.GetByID(bookID); err != nil {
		if err == gorm.ErrRecordNotFound {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	note := &entities.Note{
		BookID:     bookID,
		Content:    req.Content,
		PageNumber: req.PageNumber,
	}
	if err := nc.store.Create(note); err != nil {
		respondInternalError(c, err, "create note")
		return
	}
	respondCreated(c, note)
}

type importNotesRequest struct {
	Content json.RawMessage `json:"content"`
}

// ImportNotes bulk-creates notes from either an array of note lines or a
// single block of text split on newlines. The whole batch is inserted in
// one transaction.
// POST /api/books/:id/notes/import
func (nc *NotesController) ImportNotes(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req importNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	contents, ok := splitNoteContents(req.Content)
	if !ok || len(contents) == 0 {
		respondBadRequest(c, "content is required")
		return
	}

	if _, err := nc.books.GetByID(bookID); err != nil {
		if err == gorm.ErrRecordNotFound {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	count, err := nc.store.BulkImport(bookID, contents)
	if err != nil {
		respondInternalError(c, err, "import notes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// UpdateNote replaces a note's content.
// PUT /api/notes/:id
func (nc *NotesController) UpdateNote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondBadRequest(c, "content is required")
		return
	}

	if _, err := nc.store.GetByID(id); err != nil {
		if err == gorm.ErrRecordNotFound {
			respondNotFound(c, "note")
			return
		}
		respondInternalError(c, err, "get note")
		return
	}

	if err := nc.store.UpdateContent(id, req.Content); err != nil {
		respondInternalError(c, err, "update note")
		return
	}
	respondSuccess(c, "note updated")
}

// DeleteNote removes a single note.
// DELETE /api/notes/:id
func (nc *NotesController) DeleteNote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := nc.store.Delete(id); err != nil {
		respondInternalError(c, err, "delete note")
		return
	}
	respondSuccess(c, "note deleted")
}

// splitNoteContents accepts the three shapes the import payload may
// take: a string of newline-separated notes, an array of strings, or an
// array of {content} objects. Blank lines are dropped.
func splitNoteContents(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		var contents []string
		for _, line := range strings.Split(text, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				contents = append(contents, trimmed)
			}
		}
		return contents, true
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		var contents []string
		for _, line := range lines {
			if strings.TrimSpace(line) != "" {
				contents = append(contents, line)
			}
		}
		return contents, true
	}

	var objects []struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &objects); err == nil {
		var contents []string
		for _, obj := range objects {
			if strings.TrimSpace(obj.Content) != "" {
				contents = append(contents, obj.Content)
			}
		}
		return contents, true
	}

	return nil, false
}
