package http

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readingroom/internal/entities"
)

func TestListNotes(t *testing.T) {
	env := setupTestEnv(t)
	book := env.createBook(t, &entities.Book{Title: "月亮与六便士", Author: "毛姆"})
	require.NoError(t, env.notes.Create(&entities.Note{BookID: book.ID, Content: "第一条笔记"}))
	require.NoError(t, env.notes.Create(&entities.Note{BookID: book.ID, Content: "第二条笔记"}))

	w := env.request(t, http.MethodGet, "/api/books/1/notes", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, float64(2), body["count"])
	assert.Len(t, body["notes"], 2)
}

func TestCreateNote(t *testing.T) {
	env := setupTestEnv(t)
	env.createBook(t, &entities.Book{Title: "书", Author: "人"})

	t.Run("creates a note", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/books/1/notes", gin.H{
			"content":     "印象深刻的一段",
			"page_number": 87,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		body := decodeJSON(t, w)
		assert.Equal(t, "印象深刻的一段", body["content"])
		assert.Equal(t, float64(87), body["page_number"])
	})

	t.Run("rejects blank content", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/books/1/notes", gin.H{"content": "   "})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "content is required", decodeJSON(t, w)["error"])
	})

	t.Run("rejects unknown book", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/books/999/notes", gin.H{"content": "笔记"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestImportNotes(t *testing.T) {
	env := setupTestEnv(t)
	book := env.createBook(t, &entities.Book{Title: "书", Author: "人"})

	t.Run("splits a text block on newlines", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/books/1/notes/import", gin.H{
			"content": "第一行\n\n  第二行  \n第三行\n   \n",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(3), decodeJSON(t, w)["count"])

		notes, err := env.notes.ListByBook(book.ID)
		require.NoError(t, err)
		assert.Len(t, notes, 3)
	})

	t.Run("accepts an array of lines", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/books/1/notes/import", gin.H{
			"content": []string{"甲", "乙", ""},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(2), decodeJSON(t, w)["count"])
	})

	t.Run("accepts an array of objects", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/books/1/notes/import", gin.H{
			"content": []gin.H{{"content": "丙"}, {"content": "丁"}},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(2), decodeJSON(t, w)["count"])
	})

	t.Run("rejects empty content", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/books/1/notes/import", gin.H{"content": "  \n  "})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "content is required", decodeJSON(t, w)["error"])
	})

	t.Run("rejects unknown book", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/books/999/notes/import", gin.H{"content": "笔记"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpdateNote(t *testing.T) {
	env := setupTestEnv(t)
	book := env.createBook(t, &entities.Book{Title: "书", Author: "人"})
	note := &entities.Note{BookID: book.ID, Content: "初稿"}
	require.NoError(t, env.notes.Create(note))

	t.Run("updates content", func(t *testing.T) {
		w := env.request(t, http.MethodPut, "/api/notes/1", gin.H{"content": "改定稿"})
		require.Equal(t, http.StatusOK, w.Code)

		got, err := env.notes.GetByID(note.ID)
		require.NoError(t, err)
		assert.Equal(t, "改定稿", got.Content)
	})

	t.Run("rejects blank content", func(t *testing.T) {
		w := env.request(t, http.MethodPut, "/api/notes/1", gin.H{"content": ""})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing note", func(t *testing.T) {
		w := env.request(t, http.MethodPut, "/api/notes/999", gin.H{"content": "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteNote(t *testing.T) {
	env := setupTestEnv(t)
	book := env.createBook(t, &entities.Book{Title: "书", Author: "人"})
	note := &entities.Note{BookID: book.ID, Content: "待删除"}
	require.NoError(t, env.notes.Create(note))

	w := env.request(t, http.MethodDelete, "/api/notes/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := env.notes.GetByID(note.ID)
	assert.Error(t, err)
}
