package dictionary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T, s WordStore) {
	t.Helper()
	require.NoError(t, s.Insert(context.Background(), []Word{
		{Text: "كِتَاب", Previous: "", Count: 3},
		{Text: "كتاب", Previous: "", Count: 5},
		{Text: "Qalam", Previous: "the", Count: 1},
		{Text: "qalam", Previous: "the", Count: 2},
		{Text: "ab", Previous: "", Count: 9},
		{Text: "bayt", Previous: "", Count: 1},
	}))
}

func TestRealign(t *testing.T) {
	stores := map[string]func(*testing.T) WordStore{
		"sqlite": func(t *testing.T) WordStore { return newSQLiteStore(t) },
		"bleve":  func(t *testing.T) WordStore { return newBleveStore(t) },
	}

	for name, mk := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t)
			seedStore(t, s)

			report, err := Realign(ctx, s, testRootLen, true)
			require.NoError(t, err)
			assert.Equal(t, RealignReport{Groups: 2, Merged: 2, Deleted: 1}, report)
			words, err := s.LoadAll(ctx)
			require.NoError(t, err)
			assert.Len(t, words, 6)

			_, err = Realign(ctx, s, testRootLen, false)
			require.NoError(t, err)
			words, err = s.LoadAll(ctx)
			require.NoError(t, err)

			counts := map[string]int{}
			for _, w := range words {
				counts[w.Text] = w.Count
			}
			assert.Equal(t, map[string]int{"كتاب": 8, "qalam": 3, "bayt": 1}, counts)
		})
	}
}

func TestWordStore_MergeUnknownKeep(t *testing.T) {
	s := newSQLiteStore(t)
	seedStore(t, s)
	assert.Error(t, s.Merge(context.Background(), 999, []int64{1}))
}

func TestBleveWordStore_Match(t *testing.T) {
	ctx := context.Background()
	s := newBleveStore(t)
	seedStore(t, s)

	words, err := s.Match(ctx, "q.*", 10)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "qalam", words[0].Text)

	words, err = s.Match(ctx, "ك.*", 10)
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Equal(t, "كتاب", words[0].Text)
	assert.Equal(t, 5, words[0].Count)

	words, err = s.Match(ctx, "ك.*", 1)
	require.NoError(t, err)
	assert.Len(t, words, 1)
}
