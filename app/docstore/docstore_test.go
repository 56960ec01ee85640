package docstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahesh-hegde/qalam/app/config"
	"github.com/mahesh-hegde/qalam/app/grammar"
	"github.com/mahesh-hegde/qalam/app/tasks"
	"github.com/mahesh-hegde/qalam/app/transliteration"
)

const seedMarkdown = "# الدرس الأول\n\n" +
	"ذهب الولد الى المدرسة\n\n" +
	"قرأ الولد *kitaab* جميلا\n\n" +
	"```\nignored codeblock\n```\n"

const seedTagged = `الولد/NOUN ذهب/VERB
الكتاب/NOUN جميل/ADJ
`

func newTestConfig(t *testing.T, store string) *config.QalamConfig {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed.md"), []byte(seedMarkdown), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tagged.txt"), []byte(seedTagged), 0o644))
	return &config.QalamConfig{
		DataDir: dir,
		Store:   store,
		Dictionary: config.DictionaryConfig{
			Name:              "default",
			MinimumWordLength: 3,
			DigestPolicy:      "drop",
		},
		Grammar: config.GrammarConfig{
			TaggedCorpusFile: "tagged.txt",
			CacheTTLSeconds:  60,
			AnalyzePolicy:    "drop",
		},
		Corpora: []config.CorpusDefn{{Name: "seed", Language: "arabic", DataFile: "seed.md"}},
	}
}

func TestMarkdownConverter_ConvertToText(t *testing.T) {
	mc := NewMarkdownConverter(transliteration.NewTransliterator(transliteration.NewExceptions()))
	out := mc.ConvertToText([]byte(seedMarkdown))

	assert.Contains(t, out, "الدرس الأول\n")
	assert.Contains(t, out, "ذهب الولد الى المدرسة\n")
	assert.Contains(t, out, "كتاب")
	assert.NotContains(t, out, "kitaab")
	assert.NotContains(t, out, "ignored")
}

func wordSet(t *testing.T, s *Stores) map[string]int {
	t.Helper()
	words, err := s.WordStore().LoadAll(context.Background())
	require.NoError(t, err)
	set := make(map[string]int)
	for _, w := range words {
		set[w.Text] += w.Count
	}
	return set
}

func TestInitDB(t *testing.T) {
	tl := transliteration.NewTransliterator(transliteration.NewExceptions())
	for _, store := range []string{"sqlite", "bleve"} {
		t.Run(store, func(t *testing.T) {
			ctx := context.Background()
			conf := newTestConfig(t, store)

			stores, err := InitDB(ctx, conf, tl)
			require.NoError(t, err)
			if store == "bleve" {
				assert.NotNil(t, stores.Index)
			} else {
				assert.Nil(t, stores.Index)
			}

			words := wordSet(t, stores)
			assert.Equal(t, 2, words["الولد"])
			assert.Contains(t, words, "المدرسة")
			assert.Contains(t, words, "كتاب")
			assert.NotContains(t, words, "ignored")

			matched, err := stores.WordStore().Match(ctx, "الم.*", 10)
			require.NoError(t, err)
			require.NotEmpty(t, matched)
			assert.Equal(t, "المدرسة", matched[0].Text)

			pool := tasks.NewPool(1)
			defer pool.Close()
			corpus, err := grammar.NewCorpus(stores.GrammarStore(), pool, conf.Grammar)
			require.NoError(t, err)
			require.NoError(t, corpus.Load(ctx))
			tuples, lexicon := corpus.Size()
			assert.Positive(t, tuples)
			assert.Positive(t, lexicon)
			require.NoError(t, stores.Close())

			// a second start must not load the seed again
			stores, err = InitDB(ctx, conf, tl)
			require.NoError(t, err)
			defer stores.Close()
			assert.Equal(t, 2, wordSet(t, stores)["الولد"])
		})
	}
}

func TestInitDB_UnknownStore(t *testing.T) {
	conf := newTestConfig(t, "postgres")
	_, err := InitDB(context.Background(), conf, nil)
	assert.ErrorContains(t, err, "unknown store")
}

func TestInitDB_MissingCorpusCleansUp(t *testing.T) {
	conf := newTestConfig(t, "sqlite")
	conf.Corpora[0].DataFile = "missing.txt"
	tl := transliteration.NewTransliterator(transliteration.NewExceptions())

	_, err := InitDB(context.Background(), conf, tl)
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(conf.DataDir, SQLiteFileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSQLRegexp(t *testing.T) {
	ok, err := sqlRegexp("^ab+$", "abbb")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = sqlRegexp("^a.c$", "a\nc")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = sqlRegexp("(", "x")
	assert.Error(t, err)
}
