package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mahesh-hegde/qalam/app/common"
	"github.com/mahesh-hegde/qalam/app/config"
	"github.com/mahesh-hegde/qalam/app/dictionary"
	"github.com/mahesh-hegde/qalam/app/docstore"
	"github.com/mahesh-hegde/qalam/app/editor"
	"github.com/mahesh-hegde/qalam/app/grammar"
	"github.com/mahesh-hegde/qalam/app/spell"
	"github.com/mahesh-hegde/qalam/app/tasks"
	"github.com/mahesh-hegde/qalam/app/transliteration"
)

type engine struct {
	conf    *config.QalamConfig
	logger  *slog.Logger
	stores  *docstore.Stores
	session *editor.Session
}

func loadConfig(dataDir string) (*config.QalamConfig, *slog.Logger, error) {
	conf, err := config.Load(dataDir)
	if err != nil {
		return nil, nil, err
	}
	logger := common.NewLogger(conf.Log.Level, conf.Log.Format)
	return conf, logger, nil
}

func newTransliterator(conf *config.QalamConfig) (*transliteration.Transliterator, error) {
	exceptions := transliteration.NewExceptions()
	if err := exceptions.Load(conf.Resolve(conf.Transliteration.ExceptionFile)); err != nil {
		return nil, err
	}
	return transliteration.NewTransliterator(exceptions), nil
}

// openEngine opens the stores, loads every engine and starts an editor
// session over them.
func openEngine(ctx context.Context, dataDir string) (*engine, error) {
	conf, logger, err := loadConfig(dataDir)
	if err != nil {
		return nil, err
	}
	tl, err := newTransliterator(conf)
	if err != nil {
		return nil, err
	}
	stores, err := docstore.InitDB(ctx, conf, tl)
	if err != nil {
		return nil, fmt.Errorf("error while initializing DB: %w", err)
	}

	pool := tasks.NewPool(conf.Tasks.Workers)
	dict, err := dictionary.NewDictionary(stores.WordStore(), pool, conf.Dictionary)
	if err == nil {
		err = dict.Load(ctx)
	}
	if err != nil {
		stores.Close()
		return nil, err
	}

	corpus, err := grammar.NewCorpus(stores.GrammarStore(), pool, conf.Grammar)
	if err == nil {
		err = corpus.Load(ctx)
	}
	if err != nil {
		stores.Close()
		return nil, err
	}

	speller := spell.NewFuzzySuggester(conf.Spell.Depth)
	corpus.SetSpellChecker(speller)

	session := editor.NewSession(editor.Deps{
		Transliterator: tl,
		Dictionary:     dict,
		Corpus:         corpus,
		Speller:        speller,
		Pool:           pool,
	})
	if conf.Spell.FrequencyFile != "" {
		speller.LoadInBackground(pool, conf.Resolve(conf.Spell.FrequencyFile), nil)
	}

	return &engine{conf: conf, logger: logger, stores: stores, session: session}, nil
}

// Close saves the dictionary and closes the stores.
func (e *engine) Close(ctx context.Context) error {
	err := e.session.Close(ctx)
	if cerr := e.stores.Close(); err == nil {
		err = cerr
	}
	return err
}
