// Package store persists campaigns, liked variations, saved credentials and
// trend reports with GORM.
package store

import (
	"errors"
	"time"

	"github.com/jimdaga/viralpilot/internal/aggregator"
	"gorm.io/gorm"
)

// DefaultLikedLimit caps the liked variations kept per user
const DefaultLikedLimit = 50

// ErrNotFound is returned when a record does not exist for the user
var ErrNotFound = errors.New("record not found")

// Store wraps a GORM connection
type Store struct {
	db           *gorm.DB
	historyLimit int
	likedLimit   int
	now          func() time.Time
}

// Options bounds the per-user lists
type Options struct {
	HistoryLimit int
	LikedLimit   int
}

// New creates a store over db. Zero limits use the defaults.
func New(db *gorm.DB, opts Options) *Store {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = aggregator.DefaultHistoryLimit
	}
	if opts.LikedLimit <= 0 {
		opts.LikedLimit = DefaultLikedLimit
	}
	return &Store{
		db:           db,
		historyLimit: opts.HistoryLimit,
		likedLimit:   opts.LikedLimit,
		now:          time.Now,
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
