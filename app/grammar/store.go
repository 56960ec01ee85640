package grammar

import (
	"context"
	"database/sql"
	"fmt"
)

// Store persists tuple weights and the word to role lexicon. Writes add to
// the stored weights.
type Store interface {
	Init() error
	LoadTuples(ctx context.Context) (map[Tuple]float64, error)
	LoadLexicon(ctx context.Context) ([]LexiconEntry, error)
	AddTuples(ctx context.Context, deltas map[Tuple]float64) error
	AddLexicon(ctx context.Context, deltas []LexiconEntry) error
}

type SQLiteGrammarStore struct {
	db *sql.DB
}

func NewSQLiteGrammarStore(db *sql.DB) *SQLiteGrammarStore {
	return &SQLiteGrammarStore{db: db}
}

var _ Store = &SQLiteGrammarStore{}

func (s *SQLiteGrammarStore) Init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS qalam_grammar_tuples (
			x1 TEXT NOT NULL,
			x2 TEXT NOT NULL,
			y TEXT NOT NULL,
			z TEXT NOT NULL,
			weight REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (x1, x2, y, z)
		);
		CREATE TABLE IF NOT EXISTS qalam_grammar_lexicon (
			word TEXT NOT NULL,
			role TEXT NOT NULL,
			weight REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (word, role)
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create grammar tables: %w", err)
	}
	return nil
}

func (s *SQLiteGrammarStore) LoadTuples(ctx context.Context) (map[Tuple]float64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT x1, x2, y, z, weight FROM qalam_grammar_tuples")
	if err != nil {
		return nil, fmt.Errorf("loading grammar tuples: %w", err)
	}
	defer rows.Close()

	out := make(map[Tuple]float64)
	for rows.Next() {
		var t Tuple
		var w float64
		if err := rows.Scan(&t.X1, &t.X2, &t.Y, &t.Z, &w); err != nil {
			return nil, err
		}
		out[t] = w
	}
	return out, rows.Err()
}

func (s *SQLiteGrammarStore) LoadLexicon(ctx context.Context) ([]LexiconEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT word, role, weight FROM qalam_grammar_lexicon")
	if err != nil {
		return nil, fmt.Errorf("loading grammar lexicon: %w", err)
	}
	defer rows.Close()

	var out []LexiconEntry
	for rows.Next() {
		var e LexiconEntry
		if err := rows.Scan(&e.Word, &e.Role, &e.Weight); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteGrammarStore) AddTuples(ctx context.Context, deltas map[Tuple]float64) error {
	if len(deltas) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO qalam_grammar_tuples (x1, x2, y, z, weight) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(x1, x2, y, z) DO UPDATE SET weight = weight + excluded.weight`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for t, w := range deltas {
		if _, err := stmt.ExecContext(ctx, t.X1, t.X2, t.Y, t.Z, w); err != nil {
			return fmt.Errorf("writing tuple %v: %w", t, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteGrammarStore) AddLexicon(ctx context.Context, deltas []LexiconEntry) error {
	if len(deltas) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO qalam_grammar_lexicon (word, role, weight) VALUES (?, ?, ?)
		ON CONFLICT(word, role) DO UPDATE SET weight = weight + excluded.weight`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range deltas {
		if _, err := stmt.ExecContext(ctx, e.Word, e.Role, e.Weight); err != nil {
			return fmt.Errorf("writing lexicon entry %q: %w", e.Word, err)
		}
	}
	return tx.Commit()
}
