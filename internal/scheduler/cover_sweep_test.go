package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readingroom/internal/entities"
)

type fakeSweepStore struct {
	remote  []entities.Book
	listErr error

	updates map[uint]string
}

func (f *fakeSweepStore) ListRemoteCovers() ([]entities.Book, error) {
	return f.remote, f.listErr
}

func (f *fakeSweepStore) UpdateFields(id uint, updates map[string]any) error {
	if f.updates == nil {
		f.updates = map[uint]string{}
	}
	f.updates[id] = updates["cover_url"].(string)
	return nil
}

type fakeSweepLocalizer struct {
	failFor map[string]bool
	keys    []string
}

func (f *fakeSweepLocalizer) Localize(rawURL, key string) string {
	f.keys = append(f.keys, key)
	if f.failFor[rawURL] {
		return rawURL
	}
	return "/uploads/cover_" + key + ".jpg"
}

func strPtr(s string) *string {
	return &s
}

func TestRunNow_LocalizesRemoteCovers(t *testing.T) {
	store := &fakeSweepStore{
		remote: []entities.Book{
			{ID: 1, ISBN: strPtr("9787111111111"), CoverURL: "https://img.example/a.jpg"},
			{ID: 2, DoubanID: strPtr("333"), CoverURL: "https://img.example/b.jpg"},
			{ID: 3, CoverURL: "https://img.example/c.jpg"},
		},
	}
	localizer := &fakeSweepLocalizer{}
	sweep := NewCoverSweep(store, localizer, "0 4 * * *")

	sweep.RunNow()

	require.Len(t, store.updates, 3)
	assert.Equal(t, "/uploads/cover_9787111111111.jpg", store.updates[1])
	assert.Equal(t, "/uploads/cover_333.jpg", store.updates[2])
	assert.Equal(t, "/uploads/cover_book_3.jpg", store.updates[3])
	assert.Equal(t, []string{"9787111111111", "333", "book_3"}, localizer.keys)
}

func TestRunNow_SkipsUnchangedReferences(t *testing.T) {
	store := &fakeSweepStore{
		remote: []entities.Book{
			{ID: 1, CoverURL: "https://img.example/ok.jpg"},
			{ID: 2, CoverURL: "https://img.example/broken.jpg"},
		},
	}
	localizer := &fakeSweepLocalizer{failFor: map[string]bool{"https://img.example/broken.jpg": true}}
	sweep := NewCoverSweep(store, localizer, "0 4 * * *")

	sweep.RunNow()

	require.Len(t, store.updates, 1)
	assert.Contains(t, store.updates[1], "/uploads/")
}

func TestRunNow_ListErrorIsNonFatal(t *testing.T) {
	store := &fakeSweepStore{listErr: errors.New("database is locked")}
	sweep := NewCoverSweep(store, &fakeSweepLocalizer{}, "0 4 * * *")

	sweep.RunNow()
	assert.Empty(t, store.updates)
}

func TestStartStop(t *testing.T) {
	sweep := NewCoverSweep(&fakeSweepStore{}, &fakeSweepLocalizer{}, "0 4 * * *")

	assert.False(t, sweep.IsRunning())
	assert.Nil(t, sweep.NextRun())

	require.NoError(t, sweep.Start())
	assert.True(t, sweep.IsRunning())
	next := sweep.NextRun()
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))

	require.NoError(t, sweep.Start(), "second start is a no-op")

	sweep.Stop()
	assert.False(t, sweep.IsRunning())
	sweep.Stop()
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	sweep := NewCoverSweep(&fakeSweepStore{}, &fakeSweepLocalizer{}, "not a schedule")
	assert.Error(t, sweep.Start())
	assert.False(t, sweep.IsRunning())
}
