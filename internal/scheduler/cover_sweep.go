// Package scheduler runs the periodic cover sweep: books whose cover
// reference still points at a remote host get another localization
// attempt on a cron schedule.
package scheduler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"readingroom/internal/entities"
)

// SweepStore lists remote-cover books and persists localized references.
type SweepStore interface {
	ListRemoteCovers() ([]entities.Book, error)
	UpdateFields(id uint, updates map[string]any) error
}

// SweepLocalizer downloads a remote cover, returning the input unchanged
// on failure.
type SweepLocalizer interface {
	Localize(rawURL, key string) string
}

// CoverSweep retries cover localization for the whole catalog on a
// schedule. Books process strictly one at a time, same as the import
// paths.
type CoverSweep struct {
	store     SweepStore
	localizer SweepLocalizer
	schedule  string

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.Mutex
	isRunning bool
}

// NewCoverSweep creates a sweep with the given cron schedule.
func NewCoverSweep(store SweepStore, localizer SweepLocalizer, schedule string) *CoverSweep {
	return &CoverSweep{
		store:     store,
		localizer: localizer,
		schedule:  schedule,
		cron:      cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start schedules the sweep.
func (s *CoverSweep) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.runSweep)
	if err != nil {
		return fmt.Errorf("failed to schedule cover sweep: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true
	log.Printf("Cover sweep: started with schedule '%s'", s.schedule)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *CoverSweep) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	log.Printf("Cover sweep: stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *CoverSweep) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// NextRun returns when the next sweep will occur.
func (s *CoverSweep) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// RunNow triggers an immediate sweep, for tests and manual kicks.
func (s *CoverSweep) RunNow() {
	s.runSweep()
}

func (s *CoverSweep) runSweep() {
	books, err := s.store.ListRemoteCovers()
	if err != nil {
		log.Printf("Cover sweep: failed to list remote covers: %v", err)
		return
	}
	if len(books) == 0 {
		log.Printf("Cover sweep: no remote covers to localize")
		return
	}

	startTime := time.Now()
	localized := 0
	for _, book := range books {
		key := sweepKey(book)
		ref := s.localizer.Localize(book.CoverURL, key)
		if ref == book.CoverURL {
			continue
		}
		if err := s.store.UpdateFields(book.ID, map[string]any{"cover_url": ref}); err != nil {
			log.Printf("Cover sweep: failed to persist cover for book #%d: %v", book.ID, err)
			continue
		}
		localized++
	}

	log.Printf("Cover sweep: localized %d of %d remote covers in %v",
		localized, len(books), time.Since(startTime).Round(time.Millisecond))
}

func sweepKey(book entities.Book) string {
	if book.ISBN != nil && *book.ISBN != "" {
		return *book.ISBN
	}
	if book.DoubanID != nil && *book.DoubanID != "" {
		return *book.DoubanID
	}
	return fmt.Sprintf("book_%d", book.ID)
}
