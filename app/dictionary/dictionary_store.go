package dictionary

import (
	"context"
	"strings"
)

// WordStore persists bigrams keyed by (word, previous). The Dictionary only
// calls it from its owner goroutine.
type WordStore interface {
	Init() error
	LoadAll(ctx context.Context) ([]Word, error)

	// Insert adds new bigrams. A bigram that already exists is updated
	// instead.
	Insert(ctx context.Context, ws []Word) error

	// Update writes the counts of known bigrams, matched by word and
	// previous. A bigram missing from the store is inserted.
	Update(ctx context.Context, ws []Word) error

	// Merge adds the counts of dropIDs to keepID and removes dropIDs.
	Merge(ctx context.Context, keepID int64, dropIDs []int64) error

	Delete(ctx context.Context, ids []int64) error

	// Match returns up to limit bigrams whose whole word matches the
	// regular expression, most frequent first.
	Match(ctx context.Context, pattern string, limit int) ([]Word, error)
}

func isUniqueViolation(err error) bool {
	// both SQLite drivers report constraint failures with this text
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
