package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"readingroom/internal/dedup"
	"readingroom/internal/entities"
)

// BookStore defines the catalog operations the books controller needs.
type BookStore interface {
	List(search, sort string) ([]entities.Book, error)
	GetByID(id uint) (*entities.Book, error)
	Create(book *entities.Book) error
	UpdateFields(id uint, updates map[string]any) error
	Delete(id uint) error
}

// CoverLocalizer resolves a cover reference before storage.
type CoverLocalizer interface {
	Localize(rawURL, key string) string
	UploadsDir() string
}

type BooksController struct {
	store     BookStore
	resolver  *dedup.Resolver
	localizer CoverLocalizer
}

func NewBooksController(store BookStore, resolver *dedup.Resolver, localizer CoverLocalizer) *BooksController {
	return &BooksController{
		store:     store,
		resolver:  resolver,
		localizer: localizer,
	}
}

// ListBooks returns the whole catalog, optionally filtered and sorted.
// GET /api/books?search=&sort=
func (bc *BooksController) ListBooks(c *gin.Context) {
	books, err := bc.store.List(c.Query("search"), c.Query("sort"))
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// GetBook returns a single book.
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

type createBookRequest struct {
	Title           string             `json:"title"`
	Author          string             `json:"author"`
	ISBN            string             `json:"isbn"`
	DoubanID        string             `json:"doubanId"`
	CoverURL        string             `json:"coverUrl"`
	Status          string             `json:"status"`
	Rating          *float64           `json:"rating"`
	UserRating      *float64           `json:"userRating"`
	Summary         string             `json:"summary"`
	Review          string             `json:"review"`
	Quotes          entities.QuoteList `json:"quotes"`
	ReadingDate     string             `json:"readingDate"`
	TotalPages      int                `json:"totalPages"`
	ReadingProgress int                `json:"readingProgress"`
	FileURL         string             `json:"fileUrl"`
}

// CreateBook inserts a new catalog record. A candidate whose ISBN or
// external catalog ID already exists is rejected with 409 naming the
// existing record. Remote cover URLs are localized before persisting;
// a multipart "cover" file is stored directly into the uploads directory.
// POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	req, uploadedCover, ok := bc.bindBookPayload(c)
	if !ok {
		return
	}

	if req.Title == "" || req.Author == "" {
		respondBadRequest(c, "title and author are required")
		return
	}
	if req.Status != "" && !entities.ValidStatus(req.Status) {
		respondBadRequest(c, "invalid status: "+req.Status)
		return
	}

	match, err := bc.resolver.Resolve(req.ISBN, req.DoubanID)
	if err != nil {
		respondInternalError(c, err, "dedup lookup")
		return
	}
	if match != nil {
		respondConflict(c, match.Reason(), match.Book.ID, match.Book.Title)
		return
	}

	coverRef := uploadedCover
	if coverRef == "" {
		coverRef = bc.localizer.Localize(req.CoverURL, coverKey(req.ISBN, req.DoubanID))
	}

	book := req.toBook()
	book.CoverURL = coverRef

	if err := bc.store.Create(book); err != nil {
		respondInternalError(c, err, "create book")
		return
	}
	respondCreated(c, gin.H{"id": book.ID})
}

// UpdateBook applies a partial patch: only supplied fields change. A
// remote coverUrl passes through the localizer; explicit null clears the
// cover. Updates never re-run the dedup check.
// PUT /api/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	updates, ok := bc.bindBookPatch(c, book)
	if !ok {
		return
	}
	if len(updates) == 0 {
		respondBadRequest(c, "no fields to update")
		return
	}

	if err := bc.store.UpdateFields(id, updates); err != nil {
		respondInternalError(c, err, "update book")
		return
	}
	respondSuccess(c, "book updated")
}

// DeleteBook removes a book and, in the same transaction, every note
// attached to it.
// DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.store.Delete(id); err != nil {
		respondInternalError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}

// bindBookPayload reads the create payload from JSON or multipart form.
// When a multipart "cover" file is attached it is written to the uploads
// directory and its public reference returned.
func (bc *BooksController) bindBookPayload(c *gin.Context) (createBookRequest, string, bool) {
	var req createBookRequest

	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body: "+err.Error())
			return req, "", false
		}
		return req, "", true
	}

	req.Title = c.PostForm("title")
	req.Author = c.PostForm("author")
	req.ISBN = c.PostForm("isbn")
	req.DoubanID = c.PostForm("doubanId")
	req.CoverURL = c.PostForm("coverUrl")
	req.Status = c.PostForm("status")
	req.Summary = c.PostForm("summary")
	req.Review = c.PostForm("review")
	req.ReadingDate = c.PostForm("readingDate")
	req.FileURL = c.PostForm("fileUrl")
	if v := c.PostForm("rating"); v != "" {
		if rating, err := strconv.ParseFloat(v, 64); err == nil {
			req.Rating = &rating
		}
	}
	if v := c.PostForm("totalPages"); v != "" {
		req.TotalPages, _ = strconv.Atoi(v)
	}
	if v := c.PostForm("readingProgress"); v != "" {
		req.ReadingProgress, _ = strconv.Atoi(v)
	}
	if v := c.PostForm("quotes"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Quotes); err != nil {
			respondBadRequest(c, "invalid quotes payload")
			return req, "", false
		}
	}

	uploadedCover, ok := bc.saveUploadedCover(c)
	if !ok {
		return req, "", false
	}
	return req, uploadedCover, true
}

// saveUploadedCover stores a multipart "cover" file, if any, under a
// timestamped filename. Returns the /uploads reference or "".
func (bc *BooksController) saveUploadedCover(c *gin.Context) (string, bool) {
	file, err := c.FormFile("cover")
	if err != nil {
		if err == http.ErrMissingFile {
			return "", true
		}
		// Multipart forms without a cover part are still valid payloads.
		return "", true
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		ext = ".jpg"
	}
	filename := fmt.Sprintf("%d%s", time.Now().UnixMilli(), ext)

	if err := c.SaveUploadedFile(file, filepath.Join(bc.localizer.UploadsDir(), filename)); err != nil {
		respondInternalError(c, err, "save uploaded cover")
		return "", false
	}
	return "/uploads/" + filename, true
}

// patchableStringFields maps the updatable string JSON keys onto columns.
var patchableStringFields = map[string]string{
	"title":       "title",
	"author":      "author",
	"readingDate": "reading_date",
	"summary":     "summary",
	"review":      "review",
	"fileUrl":     "file_url",
}

// patchableIntFields maps the updatable integer JSON keys onto columns.
var patchableIntFields = map[string]string{
	"totalPages":      "total_pages",
	"readingProgress": "reading_progress",
}

// bindBookPatch decodes the fixed, typed set of patchable fields from a
// JSON (or multipart) update payload into a column update map.
func (bc *BooksController) bindBookPatch(c *gin.Context, book *entities.Book) (map[string]any, bool) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return bc.bindBookPatchForm(c, book)
	}

	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return nil, false
	}

	updates := make(map[string]any)

	for key, column := range patchableStringFields {
		value, present := raw[key]
		if !present {
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			respondBadRequest(c, "invalid value for "+key)
			return nil, false
		}
		updates[column] = s
	}

	for key, column := range patchableIntFields {
		value, present := raw[key]
		if !present {
			continue
		}
		var n int
		if err := json.Unmarshal(value, &n); err != nil {
			respondBadRequest(c, "invalid value for "+key)
			return nil, false
		}
		updates[column] = n
	}

	if value, present := raw["status"]; present {
		var s string
		if err := json.Unmarshal(value, &s); err != nil || !entities.ValidStatus(s) {
			respondBadRequest(c, "invalid status")
			return nil, false
		}
		updates["status"] = s
	}

	if value, present := raw["rating"]; present {
		var f float64
		if err := json.Unmarshal(value, &f); err != nil {
			respondBadRequest(c, "invalid value for rating")
			return nil, false
		}
		updates["rating"] = f
	}

	if value, present := raw["userRating"]; present {
		if string(value) == "null" {
			updates["user_rating"] = nil
		} else {
			var f float64
			if err := json.Unmarshal(value, &f); err != nil {
				respondBadRequest(c, "invalid value for userRating")
				return nil, false
			}
			updates["user_rating"] = f
		}
	}

	if value, present := raw["quotes"]; present {
		var quotes entities.QuoteList
		if err := json.Unmarshal(value, &quotes); err != nil {
			respondBadRequest(c, "invalid quotes payload")
			return nil, false
		}
		serialized, err := quotes.Value()
		if err != nil {
			respondBadRequest(c, "invalid quotes payload")
			return nil, false
		}
		updates["quotes"] = serialized
	}

	if value, present := raw["coverUrl"]; present {
		if string(value) == "null" {
			updates["cover_url"] = ""
		} else {
			var coverURL string
			if err := json.Unmarshal(value, &coverURL); err != nil {
				respondBadRequest(c, "invalid value for coverUrl")
				return nil, false
			}
			updates["cover_url"] = bc.localizer.Localize(coverURL, bookCoverKey(book))
		}
	}

	return updates, true
}

// bindBookPatchForm handles multipart updates: form fields are patched
// and an attached cover file replaces the stored reference.
func (bc *BooksController) bindBookPatchForm(c *gin.Context, book *entities.Book) (map[string]any, bool) {
	updates := make(map[string]any)

	for key, column := range patchableStringFields {
		if value, present := c.GetPostForm(key); present {
			updates[column] = value
		}
	}
	for key, column := range patchableIntFields {
		if value, present := c.GetPostForm(key); present {
			n, err := strconv.Atoi(value)
			if err != nil {
				respondBadRequest(c, "invalid value for "+key)
				return nil, false
			}
			updates[column] = n
		}
	}
	if value, present := c.GetPostForm("status"); present {
		if !entities.ValidStatus(value) {
			respondBadRequest(c, "invalid status")
			return nil, false
		}
		updates["status"] = value
	}
	if value, present := c.GetPostForm("rating"); present {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			respondBadRequest(c, "invalid value for rating")
			return nil, false
		}
		updates["rating"] = f
	}
	if value, present := c.GetPostForm("quotes"); present {
		var quotes entities.QuoteList
		if err := json.Unmarshal([]byte(value), &quotes); err != nil {
			respondBadRequest(c, "invalid quotes payload")
			return nil, false
		}
		serialized, err := quotes.Value()
		if err != nil {
			respondBadRequest(c, "invalid quotes payload")
			return nil, false
		}
		updates["quotes"] = serialized
	}

	uploadedCover, ok := bc.saveUploadedCover(c)
	if !ok {
		return nil, false
	}
	if uploadedCover != "" {
		updates["cover_url"] = uploadedCover
	} else if value, present := c.GetPostForm("coverUrl"); present {
		updates["cover_url"] = bc.localizer.Localize(value, bookCoverKey(book))
	}

	return updates, true
}

func coverKey(isbn, doubanID string) string {
	if isbn != "" {
		return isbn
	}
	return doubanID
}

func bookCoverKey(book *entities.Book) string {
	if book.ISBN != nil && *book.ISBN != "" {
		return *book.ISBN
	}
	if book.DoubanID != nil && *book.DoubanID != "" {
		return *book.DoubanID
	}
	return fmt.Sprintf("book_%d", book.ID)
}

func (req createBookRequest) toBook() *entities.Book {
	status := req.Status
	if status == "" {
		status = string(entities.StatusWantToRead)
	}

	rating := 5.0
	if req.Rating != nil {
		rating = *req.Rating
	}

	quotes := req.Quotes
	if quotes == nil {
		quotes = entities.QuoteList{}
	}

	book := &entities.Book{
		Title:           req.Title,
		Author:          req.Author,
		Status:          status,
		Rating:          rating,
		UserRating:      req.UserRating,
		Summary:         req.Summary,
		Review:          req.Review,
		Quotes:          quotes,
		ReadingDate:     req.ReadingDate,
		TotalPages:      req.TotalPages,
		ReadingProgress: req.ReadingProgress,
		FileURL:         req.FileURL,
	}
	if req.ISBN != "" {
		isbn := req.ISBN
		book.ISBN = &isbn
	}
	if req.DoubanID != "" {
		doubanID := req.DoubanID
		book.DoubanID = &doubanID
	}
	return book
}
