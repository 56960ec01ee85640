package docstore

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/mahesh-hegde/qalam/app/config"
	"github.com/mahesh-hegde/qalam/app/dictionary"
	"github.com/mahesh-hegde/qalam/app/grammar"
	"github.com/mahesh-hegde/qalam/app/tasks"
	"github.com/mahesh-hegde/qalam/app/transliteration"
)

const BleveIndexName = "words.bleve"

// --- bleve mappings ---
func GetBleveIndexMappings() mapping.IndexMapping {
	indexMapping := mapping.NewIndexMapping()
	dictionary.AddBleveMapping(indexMapping)
	indexMapping.TypeField = "_type"
	return indexMapping
}

// --- data loading ---
const batchSize = 1024

// readCorpus returns the lines of a seed document, markdown flattened first.
func readCorpus(path string, mc *MarkdownConverter) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".md") {
		data = []byte(mc.ConvertToText(data))
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func digestCorpus(ctx context.Context, dict *dictionary.Dictionary, pool *tasks.Pool, lines []string) error {
	for start := 0; start < len(lines); start += batchSize {
		end := min(start+batchSize, len(lines))
		if !dict.Digest(strings.Join(lines[start:end], "\n")) {
			return fmt.Errorf("digest of lines %d-%d was not accepted", start, end)
		}
		if err := pool.WaitIdle(ctx); err != nil {
			return err
		}
	}
	return nil
}

// LoadInitialData digests the configured corpora into the word store and
// feeds the tagged grammar corpus, if any, into the grammar store.
func LoadInitialData(ctx context.Context, store DocStore, conf *config.QalamConfig, tl *transliteration.Transliterator) error {
	pool := tasks.NewPool(1)
	defer pool.Close()

	dict, err := dictionary.NewDictionary(store.WordStore(), pool, conf.Dictionary)
	if err != nil {
		return err
	}
	if err := dict.Load(ctx); err != nil {
		return fmt.Errorf("failed to load dictionary: %w", err)
	}

	mc := NewMarkdownConverter(tl)
	for _, corpus := range conf.Corpora {
		slog.Info("Loading corpus", "name", corpus.Name, "language", corpus.Language)
		lines, err := readCorpus(conf.Resolve(corpus.DataFile), mc)
		if err != nil {
			return fmt.Errorf("failed to read corpus %s: %w", corpus.Name, err)
		}
		if err := digestCorpus(ctx, dict, pool, lines); err != nil {
			return fmt.Errorf("failed to digest corpus %s: %w", corpus.Name, err)
		}
	}
	if err := dict.Save(ctx); err != nil {
		return fmt.Errorf("failed to save dictionary: %w", err)
	}
	slog.Info("Dictionary seeded", "words", dict.Index().Len())

	if conf.Grammar.TaggedCorpusFile == "" {
		return nil
	}
	corpus, err := grammar.NewCorpus(store.GrammarStore(), pool, conf.Grammar)
	if err != nil {
		return err
	}
	file, err := os.Open(conf.Resolve(conf.Grammar.TaggedCorpusFile))
	if err != nil {
		return fmt.Errorf("failed to open tagged corpus: %w", err)
	}
	defer file.Close()
	n, err := grammar.LoadTaggedCorpus(ctx, corpus, file)
	if err != nil {
		return fmt.Errorf("failed to load tagged corpus: %w", err)
	}
	slog.Info("Grammar corpus loaded", "sentences", n)
	return nil
}

func openStores(conf *config.QalamConfig) (*Stores, bool, error) {
	sqlitePath := filepath.Join(conf.DataDir, SQLiteFileName)
	_, err := os.Stat(sqlitePath)
	fresh := errors.Is(err, os.ErrNotExist)
	if err != nil && !fresh {
		return nil, false, fmt.Errorf("error checking sqlite db: %w", err)
	}

	db, err := NewSQLiteDB(conf.DataDir, false)
	if err != nil {
		return nil, false, fmt.Errorf("error creating sqlite db: %w", err)
	}
	rootLen := conf.Dictionary.MinimumWordLength
	stores := &Stores{
		DB:      db,
		words:   dictionary.NewSQLiteWordStore(db, rootLen),
		grammar: grammar.NewSQLiteGrammarStore(db),
	}

	switch conf.Store {
	case "sqlite":
	case "bleve":
		dbPath := filepath.Join(conf.DataDir, BleveIndexName)
		var index bleve.Index
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			slog.Info("Creating new bleve index", "path", dbPath)
			index, err = bleve.New(dbPath, GetBleveIndexMappings())
			fresh = true
		} else if err == nil {
			index, err = bleve.Open(dbPath)
		}
		if err != nil {
			db.Close()
			return nil, false, fmt.Errorf("failed to open bleve index: %w", err)
		}
		stores.Index = index
		stores.words = dictionary.NewBleveWordStore(index, rootLen)
	default:
		db.Close()
		return nil, false, fmt.Errorf("unknown store: %s", conf.Store)
	}
	return stores, fresh, nil
}

// InitDB opens the configured stores, creating them and loading the initial
// data on first start.
func InitDB(ctx context.Context, conf *config.QalamConfig, tl *transliteration.Transliterator) (*Stores, error) {
	stores, fresh, err := openStores(conf)
	if err != nil {
		return nil, err
	}
	if err := stores.words.Init(); err != nil {
		stores.Close()
		return nil, fmt.Errorf("failed to init word store: %w", err)
	}
	if err := stores.grammar.Init(); err != nil {
		stores.Close()
		return nil, fmt.Errorf("failed to init grammar store: %w", err)
	}
	if !fresh {
		return stores, nil
	}

	slog.Info("Loading initial data...", "store", conf.Store)
	if err := LoadInitialData(ctx, stores, conf, tl); err != nil {
		// Cleanup on load failure so the next start retries
		stores.Close()
		os.Remove(filepath.Join(conf.DataDir, SQLiteFileName))
		os.RemoveAll(filepath.Join(conf.DataDir, BleveIndexName))
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	slog.Info("Initial data loaded successfully.")
	return stores, nil
}
