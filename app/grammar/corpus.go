package grammar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
	"unicode"

	"github.com/patrickmn/go-cache"

	"github.com/mahesh-hegde/qalam/app/common"
	"github.com/mahesh-hegde/qalam/app/config"
	"github.com/mahesh-hegde/qalam/app/tasks"
)

// AnalyzeTag is the task tag of background analyses. One analysis per
// corpus is in flight at a time.
const AnalyzeTag = "grammar_note"

const maxSuggestions = 10

// SpellChecker tells whether a word is spelled correctly.
type SpellChecker interface {
	Known(word string) bool
}

// Corpus scores tokens by how often their role was seen in the same
// context. The weights are plain observation counts plus upvotes.
//
// Analyze, Upvote and Observe belong to the owner goroutine. Reads such as
// Solve and GetSolution may come from any goroutine, including the
// background analyses.
type Corpus struct {
	store  Store
	pool   *tasks.Pool
	policy tasks.Policy
	memo   *cache.Cache

	mu     sync.RWMutex
	spell  SpellChecker
	tuples map[Tuple]float64
	// weights of each Y given X1, X2 and Z, keyed with an empty Y
	contexts map[Tuple]map[string]float64
	// weights of each X2 given X1, Y and Z, keyed with an empty X2
	ancestors map[Tuple]map[string]float64
	// folded word -> role -> weight
	lexicon map[string]map[string]float64
	// role -> folded word -> weight
	lemmas map[string]map[string]float64

	lastText     string
	lastCallback func([]Annotation)
}

func NewCorpus(store Store, pool *tasks.Pool, conf config.GrammarConfig) (*Corpus, error) {
	policy, err := tasks.ParsePolicy(conf.AnalyzePolicy)
	if err != nil {
		return nil, err
	}
	ttl := time.Duration(conf.CacheTTLSeconds) * time.Second
	c := &Corpus{
		store:  store,
		pool:   pool,
		policy: policy,
		memo:   cache.New(ttl, 2*ttl+time.Minute),
	}
	c.reset()
	return c, nil
}

func (c *Corpus) reset() {
	c.tuples = make(map[Tuple]float64)
	c.contexts = make(map[Tuple]map[string]float64)
	c.ancestors = make(map[Tuple]map[string]float64)
	c.lexicon = make(map[string]map[string]float64)
	c.lemmas = make(map[string]map[string]float64)
}

// SetSpellChecker enables spelling flags in analyses. s may be nil.
func (c *Corpus) SetSpellChecker(s SpellChecker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spell = s
}

func (c *Corpus) Load(ctx context.Context) error {
	tuples, err := c.store.LoadTuples(ctx)
	if err != nil {
		return err
	}
	lexicon, err := c.store.LoadLexicon(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.reset()
	for t, w := range tuples {
		c.addTupleLocked(t, w)
	}
	for _, e := range lexicon {
		c.addLexiconLocked(e.Word, e.Role, e.Weight)
	}
	c.mu.Unlock()

	c.memo.Flush()
	slog.Info("loaded grammar corpus", "tuples", len(tuples), "lexicon", len(lexicon))
	return nil
}

func addWeight(m map[Tuple]map[string]float64, k Tuple, name string, w float64) {
	if m[k] == nil {
		m[k] = make(map[string]float64)
	}
	m[k][name] += w
}

func (c *Corpus) addTupleLocked(t Tuple, w float64) {
	c.tuples[t] += w
	addWeight(c.contexts, Tuple{X1: t.X1, X2: t.X2, Z: t.Z}, t.Y, w)
	addWeight(c.ancestors, Tuple{X1: t.X1, Y: t.Y, Z: t.Z}, t.X2, w)
}

func (c *Corpus) addLexiconLocked(word, role string, w float64) {
	if c.lexicon[word] == nil {
		c.lexicon[word] = make(map[string]float64)
	}
	c.lexicon[word][role] += w
	if c.lemmas[role] == nil {
		c.lemmas[role] = make(map[string]float64)
	}
	c.lemmas[role][word] += w
}

// tuplesOf returns the tuple of every position of a role sequence.
func tuplesOf(roles []string) []Tuple {
	at := func(i int) string {
		switch {
		case i < 0:
			return common.RoleStart
		case i >= len(roles):
			return common.RoleEnd
		}
		return roles[i]
	}
	out := make([]Tuple, len(roles))
	for i := range roles {
		out[i] = Tuple{X1: at(i - 2), X2: at(i - 1), Y: roles[i], Z: at(i + 1)}
	}
	return out
}

// Observe learns from tagged sentences and persists what it learned.
func (c *Corpus) Observe(ctx context.Context, sentences ...[]TaggedToken) error {
	tupleDeltas := make(map[Tuple]float64)
	lexDeltas := make(map[[2]string]float64)
	for _, sentence := range sentences {
		roles := make([]string, len(sentence))
		for i, tok := range sentence {
			roles[i] = tok.Role
			lexDeltas[[2]string{foldToken(tok.Word), tok.Role}]++
		}
		for _, t := range tuplesOf(roles) {
			tupleDeltas[t]++
		}
	}

	lexicon := make([]LexiconEntry, 0, len(lexDeltas))
	for k, w := range lexDeltas {
		lexicon = append(lexicon, LexiconEntry{Word: k[0], Role: k[1], Weight: w})
	}
	if err := c.store.AddTuples(ctx, tupleDeltas); err != nil {
		return fmt.Errorf("persisting grammar tuples: %w", err)
	}
	if err := c.store.AddLexicon(ctx, lexicon); err != nil {
		return fmt.Errorf("persisting grammar lexicon: %w", err)
	}

	c.mu.Lock()
	for t, w := range tupleDeltas {
		c.addTupleLocked(t, w)
	}
	for _, e := range lexicon {
		c.addLexiconLocked(e.Word, e.Role, e.Weight)
	}
	c.mu.Unlock()
	c.memo.Flush()
	return nil
}

// RoleOf returns the role a word was most often tagged with.
func (c *Corpus) RoleOf(word string) string {
	if isNumeric(word) || isCrossRef(word) {
		return "NUM"
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return best(c.lexicon[foldToken(word)], common.RoleUnknown)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// best returns the heaviest key of m, ties broken by name.
func best(m map[string]float64, fallback string) string {
	top := ranked(m, 1)
	if len(top) == 0 {
		return fallback
	}
	return top[0]
}

func ranked(m map[string]float64, limit int) []string {
	keys := make([]string, 0, len(m))
	for k, w := range m {
		if w > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

// GetSolution returns the learned weight of the tuple, or nil if it was
// never seen.
func (c *Corpus) GetSolution(x1, x2, y, z string) *Solution {
	t := Tuple{X1: x1, X2: x2, Y: y, Z: z}
	c.mu.RLock()
	defer c.mu.RUnlock()

	w := c.tuples[t]
	if w <= 0 {
		return nil
	}
	var top float64
	for _, cw := range c.contexts[Tuple{X1: x1, X2: x2, Z: z}] {
		top = max(top, cw)
	}
	return &Solution{Tuple: t, Weight: w, Best: top}
}

// Solve returns the context menu suggestions of a tuple. Results are
// memoized until the corpus changes or the cache entry expires.
func (c *Corpus) Solve(x1, x2, y, z string) Suggestions {
	t := Tuple{X1: x1, X2: x2, Y: y, Z: z}
	if s, ok := c.memo.Get(t.cacheKey()); ok {
		return s.(Suggestions)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Suggestions{
		Lemma:     ranked(c.lemmas[y], maxSuggestions),
		Roles:     ranked(c.contexts[Tuple{X1: x1, X2: x2, Z: z}], maxSuggestions),
		Ancestors: ranked(c.ancestors[Tuple{X1: x1, Y: y, Z: z}], maxSuggestions),
	}
	// stored under the read lock, so the flush of a later write removes it
	c.memo.SetDefault(t.cacheKey(), s)
	return s
}

// Annotate scores every token of text. It only reads the corpus and may run
// on any goroutine.
func (c *Corpus) Annotate(text string) []Annotation {
	toks := tokenize(text)
	roles := make([]string, len(toks))
	for i, tok := range toks {
		roles[i] = c.RoleOf(tok.text)
	}

	c.mu.RLock()
	spell := c.spell
	c.mu.RUnlock()

	out := make([]Annotation, len(toks))
	for i, t := range tuplesOf(roles) {
		tok := toks[i]
		a := Annotation{
			Position: tok.pos,
			Token:    tok.text,
			Tuple:    t,
			Score:    c.GetSolution(t.X1, t.X2, t.Y, t.Z).NormalizedScore(),
		}
		switch {
		case isCrossRef(tok.text):
			a.Flag = common.FlagCrossRef
		case spell != nil && !isNumeric(tok.text) && !spell.Known(tok.text):
			a.Flag = common.FlagSpelling
		}
		out[i] = a
	}
	return out
}

// Analyze annotates text in the background and hands the result to cb on
// the owner goroutine. It returns false when the analysis was dropped
// because another one is in flight.
func (c *Corpus) Analyze(text string, cb func([]Annotation)) bool {
	c.lastText, c.lastCallback = text, cb

	var out []Annotation
	err := c.pool.Enqueue(AnalyzeTag, c.policy, func(ctx context.Context) error {
		out = c.Annotate(text)
		return nil
	}, func(err error) {
		if err != nil {
			slog.Error("grammar analysis failed", "err", err)
			return
		}
		if cb != nil {
			cb(out)
		}
	})
	if errors.Is(err, tasks.ErrDuplicate) {
		slog.Debug("grammar analysis dropped, one in flight")
	}
	return err == nil
}

// Upvote adds one to the weight of the tuple, persists it and analyses the
// last analysed text again.
func (c *Corpus) Upvote(ctx context.Context, x1, x2, y, z string) error {
	t := Tuple{X1: x1, X2: x2, Y: y, Z: z}
	if err := c.store.AddTuples(ctx, map[Tuple]float64{t: 1}); err != nil {
		return fmt.Errorf("persisting upvote: %w", err)
	}

	c.mu.Lock()
	c.addTupleLocked(t, 1)
	c.mu.Unlock()
	c.memo.Flush()

	if c.lastText != "" {
		c.Analyze(c.lastText, c.lastCallback)
	}
	return nil
}

func (c *Corpus) Size() (tuples, words int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tuples), len(c.lexicon)
}
