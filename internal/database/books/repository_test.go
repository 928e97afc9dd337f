package books

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"readingroom/internal/database"
	"readingroom/internal/entities"
)

func setupTestRepo(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewRepository(db.DB), db.DB
}

func strPtr(s string) *string {
	return &s
}

func TestCreateAndGetByID(t *testing.T) {
	repo, _ := setupTestRepo(t)

	book := &entities.Book{
		Title:  "平凡的世界",
		Author: "路遥",
		ISBN:   strPtr("9787530212004"),
		Status: string(entities.StatusRead),
		Quotes: entities.QuoteList{{Content: "生活不能等待别人来安排。", ID: 1}},
	}
	require.NoError(t, repo.Create(book))
	require.NotZero(t, book.ID)

	got, err := repo.GetByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "平凡的世界", got.Title)
	assert.Equal(t, "9787530212004", *got.ISBN)
	require.Len(t, got.Quotes, 1)
	assert.Equal(t, "生活不能等待别人来安排。", got.Quotes[0].Content)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, _ := setupTestRepo(t)

	_, err := repo.GetByID(99)
	assert.Equal(t, gorm.ErrRecordNotFound, err)
}

func TestList(t *testing.T) {
	repo, _ := setupTestRepo(t)

	require.NoError(t, repo.Create(&entities.Book{Title: "三体", Author: "刘慈欣", Rating: 5, ReadingDate: "2024-03-01"}))
	require.NoError(t, repo.Create(&entities.Book{Title: "球状闪电", Author: "刘慈欣", Rating: 4, ReadingDate: "2025-06-10"}))
	require.NoError(t, repo.Create(&entities.Book{Title: "百年孤独", Author: "马尔克斯", Rating: 5, ReadingDate: "2023-12-31"}))

	t.Run("default order is newest first", func(t *testing.T) {
		books, err := repo.List("", "")
		require.NoError(t, err)
		require.Len(t, books, 3)
		assert.Equal(t, "百年孤独", books[0].Title)
	})

	t.Run("search matches title and author", func(t *testing.T) {
		byAuthor, err := repo.List("刘慈欣", "")
		require.NoError(t, err)
		assert.Len(t, byAuthor, 2)

		byTitle, err := repo.List("孤独", "")
		require.NoError(t, err)
		require.Len(t, byTitle, 1)
		assert.Equal(t, "百年孤独", byTitle[0].Title)

		none, err := repo.List("不存在的书", "")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("sort by rating", func(t *testing.T) {
		books, err := repo.List("", SortByRating)
		require.NoError(t, err)
		require.Len(t, books, 3)
		assert.Equal(t, float64(4), books[2].Rating)
	})

	t.Run("sort by reading date", func(t *testing.T) {
		books, err := repo.List("", SortByDate)
		require.NoError(t, err)
		require.Len(t, books, 3)
		assert.Equal(t, "球状闪电", books[0].Title)
		assert.Equal(t, "百年孤独", books[2].Title)
	})
}

func TestFindByIdentityKeys(t *testing.T) {
	repo, _ := setupTestRepo(t)

	require.NoError(t, repo.Create(&entities.Book{
		Title:    "围城",
		Author:   "钱钟书",
		ISBN:     strPtr("9787020090006"),
		DoubanID: strPtr("1082154"),
	}))

	t.Run("isbn hit", func(t *testing.T) {
		book, err := repo.FindByISBN("9787020090006")
		require.NoError(t, err)
		require.NotNil(t, book)
		assert.Equal(t, "围城", book.Title)
	})

	t.Run("douban id hit", func(t *testing.T) {
		book, err := repo.FindByDoubanID("1082154")
		require.NoError(t, err)
		require.NotNil(t, book)
		assert.Equal(t, "围城", book.Title)
	})

	t.Run("misses return nil without error", func(t *testing.T) {
		book, err := repo.FindByISBN("9780000000000")
		require.NoError(t, err)
		assert.Nil(t, book)

		book, err = repo.FindByDoubanID("0")
		require.NoError(t, err)
		assert.Nil(t, book)
	})
}

func TestCreate_AllowsMultipleBooksWithoutIdentityKeys(t *testing.T) {
	repo, _ := setupTestRepo(t)

	require.NoError(t, repo.Create(&entities.Book{Title: "手抄本一", Author: "佚名"}))
	require.NoError(t, repo.Create(&entities.Book{Title: "手抄本二", Author: "佚名"}))

	books, err := repo.List("", "")
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func TestUpdateFields(t *testing.T) {
	repo, _ := setupTestRepo(t)

	book := &entities.Book{Title: "活着", Author: "余华", Status: string(entities.StatusReading), ReadingProgress: 40}
	require.NoError(t, repo.Create(book))

	require.NoError(t, repo.UpdateFields(book.ID, map[string]any{
		"status":           string(entities.StatusRead),
		"reading_progress": 100,
	}))

	got, err := repo.GetByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "read", got.Status)
	assert.Equal(t, 100, got.ReadingProgress)
	assert.Equal(t, "活着", got.Title, "untouched columns keep their values")

	t.Run("empty patch is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.UpdateFields(book.ID, map[string]any{}))
	})
}

func TestDelete_RemovesBookAndNotes(t *testing.T) {
	repo, db := setupTestRepo(t)

	book := &entities.Book{Title: "小王子", Author: "圣埃克苏佩里"}
	require.NoError(t, repo.Create(book))
	require.NoError(t, db.Create(&entities.Note{BookID: book.ID, Content: "驯养就是建立联系。"}).Error)
	require.NoError(t, db.Create(&entities.Note{BookID: book.ID, Content: "重要的东西用眼睛是看不见的。"}).Error)

	other := &entities.Book{Title: "夜航", Author: "圣埃克苏佩里"}
	require.NoError(t, repo.Create(other))
	require.NoError(t, db.Create(&entities.Note{BookID: other.ID, Content: "留下来的笔记"}).Error)

	require.NoError(t, repo.Delete(book.ID))

	_, err := repo.GetByID(book.ID)
	assert.Equal(t, gorm.ErrRecordNotFound, err)

	var noteCount int64
	require.NoError(t, db.Model(&entities.Note{}).Where("book_id = ?", book.ID).Count(&noteCount).Error)
	assert.Zero(t, noteCount)

	require.NoError(t, db.Model(&entities.Note{}).Where("book_id = ?", other.ID).Count(&noteCount).Error)
	assert.Equal(t, int64(1), noteCount, "notes of other books must survive")
}

func TestListRemoteCovers(t *testing.T) {
	repo, _ := setupTestRepo(t)

	require.NoError(t, repo.Create(&entities.Book{Title: "a", Author: "x", CoverURL: "https://img.example/a.jpg"}))
	require.NoError(t, repo.Create(&entities.Book{Title: "b", Author: "x", CoverURL: "http://img.example/b.jpg"}))
	require.NoError(t, repo.Create(&entities.Book{Title: "c", Author: "x", CoverURL: "/uploads/c.jpg"}))
	require.NoError(t, repo.Create(&entities.Book{Title: "d", Author: "x"}))

	books, err := repo.ListRemoteCovers()
	require.NoError(t, err)
	require.Len(t, books, 2)
	for _, book := range books {
		assert.Contains(t, []string{"a", "b"}, book.Title)
	}
}

func TestISBNBackfillQueries(t *testing.T) {
	repo, _ := setupTestRepo(t)

	withISBN := &entities.Book{Title: "有书号", Author: "x", ISBN: strPtr("9787111111111")}
	require.NoError(t, repo.Create(withISBN))
	missing := &entities.Book{Title: "无书号", Author: "x"}
	require.NoError(t, repo.Create(missing))

	books, err := repo.BooksMissingISBN()
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "无书号", books[0].Title)

	require.NoError(t, repo.SetISBN(missing.ID, "  9787222222222  "))
	got, err := repo.GetByID(missing.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ISBN)
	assert.Equal(t, "9787222222222", *got.ISBN)

	t.Run("blank isbn is ignored", func(t *testing.T) {
		require.NoError(t, repo.SetISBN(withISBN.ID, "   "))
		got, err := repo.GetByID(withISBN.ID)
		require.NoError(t, err)
		assert.Equal(t, "9787111111111", *got.ISBN)
	})
}
