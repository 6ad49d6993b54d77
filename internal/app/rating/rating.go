// Package rating implements the append-only peer-rating log.
// Ratings are unvalidated records beyond score bounds checked by the
// caller: once appended they are never mutated or deleted.
package rating

import (
	"sync"

	"github.com/paydirt-network/paydirt/internal/domain"
)

// Book holds the rating log. An optional store persists appends.
type Book struct {
	mu      sync.RWMutex
	ratings []domain.Rating
	store   domain.RatingStore
}

// NewBook creates an empty rating book. store may be nil.
func NewBook(store domain.RatingStore) *Book {
	return &Book{store: store}
}

// Append adds a rating to the log.
func (b *Book) Append(r domain.Rating) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.store != nil {
		if err := b.store.InsertRating(r); err != nil {
			return err
		}
	}
	b.ratings = append(b.ratings, r)
	return nil
}

// ForTask returns all ratings recorded against a task.
func (b *Book) ForTask(taskID string) []domain.Rating {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []domain.Rating
	for _, r := range b.ratings {
		if r.TaskID == taskID {
			out = append(out, r)
		}
	}
	return out
}

// ForRatee returns all ratings received by a principal.
func (b *Book) ForRatee(p domain.Principal) []domain.Rating {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []domain.Rating
	for _, r := range b.ratings {
		if r.Ratee == p {
			out = append(out, r)
		}
	}
	return out
}

// Average returns the mean score received by a principal (0 if unrated).
func (b *Book) Average(p domain.Principal) float64 {
	ratings := b.ForRatee(p)
	if len(ratings) == 0 {
		return 0
	}
	var total int
	for _, r := range ratings {
		total += r.Score
	}
	return float64(total) / float64(len(ratings))
}

// Restore replays persisted ratings (daemon start).
func (b *Book) Restore(ratings []domain.Rating) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ratings = append(b.ratings, ratings...)
}
