package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func newTestServer(t *testing.T, rateLimit int) *echo.Echo {
	t.Helper()
	dir := t.TempDir()
	db, err := docstore.NewSQLiteDB(dir, false)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	conf := &config.QalamConfig{
		Dictionary: config.DictionaryConfig{Name: "test", MinimumWordLength: 2, DigestPolicy: "drop"},
		Grammar:    config.GrammarConfig{CacheTTLSeconds: 60, AnalyzePolicy: "coalesce"},
		Spell:      config.SpellConfig{MaxEditDistance: 1, Depth: 2},
		Server:     config.ServerConfig{RateLimit: rateLimit},
	}

	pool := tasks.NewPool(2)
	words := dictionary.NewSQLiteWordStore(db, 2)
	require.NoError(t, words.Init())
	dict, err := dictionary.NewDictionary(words, pool, conf.Dictionary)
	require.NoError(t, err)

	gstore := grammar.NewSQLiteGrammarStore(db)
	require.NoError(t, gstore.Init())
	corpus, err := grammar.NewCorpus(gstore, pool, conf.Grammar)
	require.NoError(t, err)
	_, err = grammar.LoadTaggedCorpus(context.Background(), corpus, strings.NewReader("qaala/VERB allahu/NAME\n"))
	require.NoError(t, err)

	speller := spell.NewFuzzySuggester(2)
	speller.Add("qaala", 3)

	exceptions := transliteration.NewExceptions()
	require.NoError(t, exceptions.Load(filepath.Join(dir, "ar_dict.txt")))

	session := editor.NewSession(editor.Deps{
		Transliterator: transliteration.NewTransliterator(exceptions),
		Dictionary:     dict,
		Corpus:         corpus,
		Speller:        speller,
		Pool:           pool,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		session.Close(ctx)
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(NewQalamController(session, conf), conf.Server, logger)
}

func do(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestServer_TransliterateDigestSuggest(t *testing.T) {
	e := newTestServer(t, 0)

	rec := do(t, e, http.MethodPost, "/transliterate", `{"text":"al","previous":"قال","no_harakat":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ال", decode[editor.Suggestion](t, rec).Text)

	rec = do(t, e, http.MethodPost, "/digest", `{"text":"قال الله. قال الله"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[acceptedResponse](t, rec).Accepted)

	rec = do(t, e, http.MethodPost, "/save", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodGet, "/suggest?"+url.Values{"prefix": {"ال"}, "previous": {"قال"}}.Encode(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "الله", decode[editor.Suggestion](t, rec).Completion)

	rec = do(t, e, http.MethodGet, "/words?"+url.Values{"re": {"ال.*"}}.Encode(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	words := decode[[]dictionary.Word](t, rec)
	require.Len(t, words, 1)
	assert.Equal(t, 2, words[0].Count)

	rec = do(t, e, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[editor.Stats](t, rec).Dictionary.Words)
}

func TestServer_BadRequests(t *testing.T) {
	e := newTestServer(t, 0)

	for _, target := range []string{"/suggest", "/words", "/spell", "/grammar/solve", "/words?re=x&limit=many"} {
		rec := do(t, e, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.NotEmpty(t, decode[errorResponse](t, rec).Error)
	}

	rec := do(t, e, http.MethodPost, "/exceptions", `{"word":"كتاب"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodPost, "/digest", `{"text":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Grammar(t *testing.T) {
	e := newTestServer(t, 0)

	rec := do(t, e, http.MethodPost, "/grammar/analyze", `{"text":"qaala allahu","wait":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	notes := decode[[]grammar.Annotation](t, rec)
	require.Len(t, notes, 2)
	assert.Equal(t, common.HighlightStrong, notes[0].Score)

	rec = do(t, e, http.MethodGet, "/grammar/annotations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]grammar.Annotation](t, rec), 2)

	tuple := notes[0].Tuple
	q := url.Values{"x1": {tuple.X1}, "x2": {tuple.X2}, "y": {"NAME"}, "z": {tuple.Z}}
	target := "/grammar/solve?" + q.Encode()
	rec = do(t, e, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, common.HighlightUnseen, decode[solveResponse](t, rec).Score)

	body, err := json.Marshal(grammar.Tuple{X1: tuple.X1, X2: tuple.X2, Y: "NAME", Z: tuple.Z})
	require.NoError(t, err)
	rec = do(t, e, http.MethodPost, "/grammar/upvote", string(body))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[solveResponse](t, rec)
	require.NotNil(t, res.Solution)
	assert.Equal(t, 1.0, res.Solution.Weight)
}

func TestServer_SpellAndExceptions(t *testing.T) {
	e := newTestServer(t, 0)

	rec := do(t, e, http.MethodGet, "/spell?word=qaalaa", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sugs := decode[[]spell.Suggestion](t, rec)
	require.Len(t, sugs, 1)
	assert.Equal(t, "qaala", sugs[0].Term)

	rec = do(t, e, http.MethodGet, "/spell?word=zzzzzz&mode=all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]spell.Suggestion](t, rec))

	rec = do(t, e, http.MethodPost, "/exceptions", `{"word":"هدى"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodPost, "/transliterate", `{"text":"hudaa","no_harakat":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "هدى", decode[editor.Suggestion](t, rec).Text)
}

func TestServer_RateLimit(t *testing.T) {
	e := newTestServer(t, 1)

	codes := map[int]int{}
	for range 10 {
		codes[do(t, e, http.MethodGet, "/stats", "").Code]++
	}
	assert.Positive(t, codes[http.StatusOK])
	assert.Positive(t, codes[http.StatusTooManyRequests])
}
