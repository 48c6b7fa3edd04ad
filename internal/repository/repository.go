package repository

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dan9191/credit-analytics/internal/models"
)

// ErrNoDataset is returned when nothing has been loaded yet
var ErrNoDataset = errors.New("no dataset loaded")

// Batch is an immutable, fully derived record collection
type Batch struct {
	Info    models.DatasetInfo
	Records []models.Record
}

// Repository keeps the current dataset batch in memory
type Repository struct {
	mu      sync.RWMutex
	current *Batch
	now     func() time.Time
}

// NewRepository initializes an empty repository
func NewRepository() *Repository {
	return &Repository{now: time.Now}
}

// ReplaceDataset stores records as the new current batch and returns its description.
// The caller must not modify records afterwards.
func (r *Repository) ReplaceDataset(records []models.Record, source string, seed *uint64, skipped int) models.DatasetInfo {
	info := models.DatasetInfo{
		BatchID:     uuid.NewString(),
		Source:      source,
		Records:     len(records),
		Seed:        seed,
		SkippedRows: skipped,
		LoadedAt:    r.now().UTC(),
	}

	r.mu.Lock()
	r.current = &Batch{Info: info, Records: records}
	r.mu.Unlock()
	return info
}

// CurrentDataset returns the batch currently held
func (r *Repository) CurrentDataset() (*Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil, ErrNoDataset
	}
	return r.current, nil
}
