package docstore

import (
	"database/sql"
	"errors"

	"github.com/blevesearch/bleve/v2"
	"github.com/mahesh-hegde/qalam/app/dictionary"
	"github.com/mahesh-hegde/qalam/app/grammar"
)

// DocStore is a storage instrument (eg: a database) holding the learned
// words and the grammar corpus.
type DocStore interface {
	WordStore() dictionary.WordStore
	GrammarStore() grammar.Store
}

// Stores is the DocStore returned by InitDB. Index is nil unless the word
// store is bleve; the grammar store always lives in DB.
type Stores struct {
	DB    *sql.DB
	Index bleve.Index

	words   dictionary.WordStore
	grammar grammar.Store
}

var _ DocStore = &Stores{}

func (s *Stores) WordStore() dictionary.WordStore {
	return s.words
}

func (s *Stores) GrammarStore() grammar.Store {
	return s.grammar
}

func (s *Stores) Close() error {
	var errs []error
	if s.Index != nil {
		errs = append(errs, s.Index.Close())
	}
	if s.DB != nil {
		errs = append(errs, s.DB.Close())
	}
	return errors.Join(errs...)
}
