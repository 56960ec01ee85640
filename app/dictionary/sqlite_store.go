package dictionary

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

type SQLiteWordStore struct {
	db      *sql.DB
	rootLen int
}

func NewSQLiteWordStore(db *sql.DB, rootLen int) *SQLiteWordStore {
	return &SQLiteWordStore{db: db, rootLen: rootLen}
}

var _ WordStore = &SQLiteWordStore{}

func (s *SQLiteWordStore) Init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS qalam_words (
			id INTEGER PRIMARY KEY,
			word TEXT NOT NULL,
			previous TEXT NOT NULL DEFAULT '',
			root TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 1,
			UNIQUE(word, previous)
		);
		CREATE INDEX IF NOT EXISTS idx_words_root ON qalam_words(root);
	`)
	if err != nil {
		return fmt.Errorf("failed to create qalam_words table: %w", err)
	}
	return nil
}

func (s *SQLiteWordStore) LoadAll(ctx context.Context) ([]Word, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, word, previous, root, count FROM qalam_words")
	if err != nil {
		return nil, fmt.Errorf("loading words: %w", err)
	}
	defer rows.Close()

	var words []Word
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.ID, &w.Text, &w.Previous, &w.Root, &w.Count); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

func (s *SQLiteWordStore) root(w *Word) string {
	if root, ok := RootOf(w.Text, s.rootLen); ok {
		return root
	}
	return w.Text
}

func (s *SQLiteWordStore) Insert(ctx context.Context, ws []Word) error {
	return s.write(ctx, ws, true)
}

func (s *SQLiteWordStore) Update(ctx context.Context, ws []Word) error {
	return s.write(ctx, ws, false)
}

// write inserts or updates ws in one transaction, falling back to the other
// statement when a row exists or is missing.
func (s *SQLiteWordStore) write(ctx context.Context, ws []Word, insertFirst bool) error {
	if len(ws) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insStmt, err := tx.PrepareContext(ctx, "INSERT INTO qalam_words (word, previous, root, count) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer insStmt.Close()

	updStmt, err := tx.PrepareContext(ctx, "UPDATE qalam_words SET count = ? WHERE word = ? AND previous = ?")
	if err != nil {
		return err
	}
	defer updStmt.Close()

	insert := func(w *Word) error {
		_, err := insStmt.ExecContext(ctx, w.Text, w.Previous, s.root(w), w.Count)
		return err
	}
	update := func(w *Word) (bool, error) {
		res, err := updStmt.ExecContext(ctx, w.Count, w.Text, w.Previous)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		return n > 0, err
	}

	for i := range ws {
		w := &ws[i]
		if insertFirst {
			err := insert(w)
			if isUniqueViolation(err) {
				slog.Debug("bigram exists, updating instead", "word", w.Text, "previous", w.Previous)
				_, err = update(w)
			}
			if err != nil {
				return fmt.Errorf("inserting %q: %w", w.Text, err)
			}
			continue
		}

		found, err := update(w)
		if err == nil && !found {
			slog.Debug("bigram missing, inserting instead", "word", w.Text, "previous", w.Previous)
			err = insert(w)
		}
		if err != nil {
			return fmt.Errorf("updating %q: %w", w.Text, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteWordStore) Merge(ctx context.Context, keepID int64, dropIDs []int64) error {
	if len(dropIDs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	args := idArgs(dropIDs)
	placeholders := "?" + strings.Repeat(",?", len(dropIDs)-1)

	var extra sql.NullInt64
	err = tx.QueryRowContext(ctx, "SELECT SUM(count) FROM qalam_words WHERE id IN ("+placeholders+")", args...).Scan(&extra)
	if err != nil {
		return fmt.Errorf("summing merged counts: %w", err)
	}

	res, err := tx.ExecContext(ctx, "UPDATE qalam_words SET count = count + ? WHERE id = ?", extra.Int64, keepID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no word with id %d", keepID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM qalam_words WHERE id IN ("+placeholders+")", args...); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteWordStore) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := "DELETE FROM qalam_words WHERE id IN (?" + strings.Repeat(",?", len(ids)-1) + ")"
	_, err := s.db.ExecContext(ctx, query, idArgs(ids)...)
	return err
}

// Match needs a regexp SQL function registered by the driver.
func (s *SQLiteWordStore) Match(ctx context.Context, pattern string, limit int) ([]Word, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, word, previous, root, count FROM qalam_words
		WHERE word REGEXP ? ORDER BY count DESC, word, previous LIMIT ?`,
		"^(?:"+pattern+")$", limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite match failed: %w", err)
	}
	defer rows.Close()

	var words []Word
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.ID, &w.Text, &w.Previous, &w.Root, &w.Count); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

func idArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
