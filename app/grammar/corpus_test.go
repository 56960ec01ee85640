package grammar

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahesh-hegde/qalam/app/common"
	"github.com/mahesh-hegde/qalam/app/config"
	"github.com/mahesh-hegde/qalam/app/tasks"
)

const taggedCorpus = `# toy corpus
the/DET cat/NOUN sleeps/VERB
the/DET dog/NOUN runs/VERB

a/DET cat/NOUN runs/VERB
the/DET quickly/ADV runs/VERB
broken line without tags
`

type knownWords map[string]bool

func (k knownWords) Known(word string) bool {
	return k[strings.ToLower(word)]
}

func newStore(t *testing.T) *SQLiteGrammarStore {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "qalam.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := NewSQLiteGrammarStore(db)
	require.NoError(t, s.Init())
	return s
}

func newCorpus(t *testing.T, store Store) (*Corpus, *tasks.Pool) {
	t.Helper()
	pool := tasks.NewPool(1)
	t.Cleanup(pool.Close)
	c, err := NewCorpus(store, pool, config.GrammarConfig{CacheTTLSeconds: 60, AnalyzePolicy: "drop"})
	require.NoError(t, err)
	return c, pool
}

func loadedCorpus(t *testing.T) (*Corpus, *tasks.Pool, Store) {
	t.Helper()
	store := newStore(t)
	c, pool := newCorpus(t, store)
	n, err := LoadTaggedCorpus(context.Background(), c, strings.NewReader(taggedCorpus))
	require.NoError(t, err)
	require.Equal(t, 4, n)
	return c, pool, store
}

func settle(t *testing.T, pool *tasks.Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.WaitIdle(ctx))
}

func TestParseTaggedLine(t *testing.T) {
	toks, err := ParseTaggedLine("qala/verb allahu/NAME and/OOPS")
	require.NoError(t, err)
	assert.Equal(t, []TaggedToken{
		{Word: "qala", Role: "VERB"},
		{Word: "allahu", Role: "NAME"},
		{Word: "and", Role: common.RoleUnknown},
	}, toks)

	_, err = ParseTaggedLine("word/")
	assert.Error(t, err)
	_, err = ParseTaggedLine("untagged")
	assert.Error(t, err)
}

func TestTokenize(t *testing.T) {
	toks := tokenize("قال: الله، 2:255.")
	assert.Equal(t, []token{
		{pos: 0, text: "قال"},
		{pos: 8, text: "الله"},
		{pos: 19, text: "2:255"},
	}, toks)
}

func TestCorpus_Scores(t *testing.T) {
	c, _, _ := loadedCorpus(t)

	sol := c.GetSolution(common.RoleStart, common.RoleStart, "DET", "NOUN")
	require.NotNil(t, sol)
	assert.Equal(t, 3.0, sol.Weight)
	assert.Equal(t, common.HighlightStrong, sol.NormalizedScore())

	sol = c.GetSolution(common.RoleStart, "DET", "ADV", "VERB")
	require.NotNil(t, sol)
	assert.Equal(t, 3.0, sol.Best)
	assert.Equal(t, common.HighlightWeak, sol.NormalizedScore())

	sol = c.GetSolution(common.RoleStart, common.RoleStart, "VERB", common.RoleEnd)
	assert.Nil(t, sol)
	assert.Equal(t, common.HighlightUnseen, sol.NormalizedScore())

	assert.Equal(t, "NOUN", c.RoleOf("Cat"))
	assert.Equal(t, common.RoleUnknown, c.RoleOf("xyzzy"))
	assert.Equal(t, "NUM", c.RoleOf("2:255"))
}

func TestCorpus_Solve(t *testing.T) {
	c, _, _ := loadedCorpus(t)

	s := c.Solve(common.RoleStart, "DET", "NOUN", "VERB")
	assert.Equal(t, []string{"NOUN", "ADV"}, s.Roles)
	assert.Equal(t, []string{"cat", "dog"}, s.Lemma)
	assert.Equal(t, []string{"DET"}, s.Ancestors)

	empty := c.Solve("VERB", "VERB", "VERB", "VERB")
	assert.Empty(t, empty.Roles)
	assert.Empty(t, empty.Ancestors)
}

func TestCorpus_UpvoteInvalidatesAndPersists(t *testing.T) {
	ctx := context.Background()
	c, pool, store := loadedCorpus(t)

	before := c.Solve(common.RoleStart, "DET", "NOUN", "VERB")
	assert.Equal(t, []string{"NOUN", "ADV"}, before.Roles)

	var runs int
	assert.True(t, c.Analyze("the quickly runs", func([]Annotation) { runs++ }))
	settle(t, pool)
	require.Equal(t, 1, runs)

	require.NoError(t, c.Upvote(ctx, common.RoleStart, "DET", "ADV", "VERB"))
	require.NoError(t, c.Upvote(ctx, common.RoleStart, "DET", "ADV", "VERB"))
	settle(t, pool)
	// every upvote asks for a new analysis of the last text
	assert.GreaterOrEqual(t, runs, 2)

	after := c.Solve(common.RoleStart, "DET", "NOUN", "VERB")
	assert.Equal(t, []string{"ADV", "NOUN"}, after.Roles)
	assert.Equal(t, common.HighlightStrong, c.GetSolution(common.RoleStart, "DET", "ADV", "VERB").NormalizedScore())

	reloaded, _ := newCorpus(t, store)
	require.NoError(t, reloaded.Load(ctx))
	sol := reloaded.GetSolution(common.RoleStart, "DET", "ADV", "VERB")
	require.NotNil(t, sol)
	assert.Equal(t, 3.0, sol.Weight)
	assert.Equal(t, "NOUN", reloaded.RoleOf("dog"))
}

func TestCorpus_SolveDuringUpvotes(t *testing.T) {
	ctx := context.Background()
	c, _, _ := loadedCorpus(t)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					c.Solve(common.RoleStart, "DET", "NOUN", "VERB")
				}
			}
		}()
	}
	for range 5 {
		require.NoError(t, c.Upvote(ctx, common.RoleStart, "DET", "ADJ", "VERB"))
	}
	close(stop)
	wg.Wait()

	s := c.Solve(common.RoleStart, "DET", "NOUN", "VERB")
	assert.Equal(t, []string{"ADJ", "NOUN", "ADV"}, s.Roles)
}

func TestCorpus_Analyze(t *testing.T) {
	c, pool, _ := loadedCorpus(t)
	c.SetSpellChecker(knownWords{"the": true, "cat": true, "runs": true})

	var got []Annotation
	assert.True(t, c.Analyze("the cat runs 2:255 xyzzy", func(a []Annotation) { got = a }))
	assert.False(t, c.Analyze("the cat runs", nil))
	settle(t, pool)

	require.Len(t, got, 5)
	assert.Equal(t, Annotation{
		Position: 0,
		Token:    "the",
		Tuple:    Tuple{X1: common.RoleStart, X2: common.RoleStart, Y: "DET", Z: "NOUN"},
		Score:    common.HighlightStrong,
	}, got[0])
	assert.Equal(t, 4, got[1].Position)
	assert.Equal(t, common.HighlightStrong, got[1].Score)
	assert.Equal(t, common.HighlightUnseen, got[2].Score)
	assert.Equal(t, common.FlagNone, got[2].Flag)
	assert.Equal(t, common.FlagCrossRef, got[3].Flag)
	assert.Equal(t, 13, got[3].Position)
	assert.Equal(t, common.FlagSpelling, got[4].Flag)
	assert.Equal(t, Tuple{X1: "VERB", X2: "NUM", Y: common.RoleUnknown, Z: common.RoleEnd}, got[4].Tuple)
}
