package dictionary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mahesh-hegde/qalam/app/config"
	"github.com/mahesh-hegde/qalam/app/tasks"
)

// Dictionary learns bigrams from digested text and completes partially
// typed words. Digest, Find, Save and the pool callbacks belong to one owner
// goroutine; merges run in the background on a private copy of the index
// and are swapped in by their callback.
type Dictionary struct {
	name    string
	rootLen int
	policy  tasks.Policy
	store   WordStore
	pool    *tasks.Pool

	index atomic.Pointer[Index]

	// pending writes, keyed into the current index
	news    map[Key]struct{}
	updates map[Key]struct{}

	// observations waiting for a coalesced merge
	backlogMu sync.Mutex
	backlog   []Key
}

func NewDictionary(store WordStore, pool *tasks.Pool, conf config.DictionaryConfig) (*Dictionary, error) {
	policy, err := tasks.ParsePolicy(conf.DigestPolicy)
	if err != nil {
		return nil, err
	}
	if conf.MinimumWordLength < 1 {
		return nil, fmt.Errorf("minimum word length must be positive, got %d", conf.MinimumWordLength)
	}
	d := &Dictionary{
		name:    conf.Name,
		rootLen: conf.MinimumWordLength,
		policy:  policy,
		store:   store,
		pool:    pool,
		news:    make(map[Key]struct{}),
		updates: make(map[Key]struct{}),
	}
	d.index.Store(NewIndex(d.rootLen, nil))
	return d, nil
}

// Load replaces the index with the contents of the store and forgets
// pending writes.
func (d *Dictionary) Load(ctx context.Context) error {
	words, err := d.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading dictionary %q: %w", d.name, err)
	}
	d.index.Store(NewIndex(d.rootLen, words))
	clear(d.news)
	clear(d.updates)
	slog.Info("loaded dictionary", "name", d.name, "words", len(words))
	return nil
}

func (d *Dictionary) Name() string {
	return d.name
}

// Tag is the task tag under which merges of this dictionary run.
func (d *Dictionary) Tag() string {
	return "digest:" + d.name
}

// Index returns the current snapshot. It is safe to read from any goroutine.
func (d *Dictionary) Index() *Index {
	return d.index.Load()
}

// Digest schedules the bigrams of text for merging. It returns false when
// the merge was dropped because another one is in flight; the text is then
// not learned.
func (d *Dictionary) Digest(text string) bool {
	obs := Tokenize(text, d.rootLen)
	if len(obs) == 0 {
		return true
	}

	if d.policy == tasks.Coalesce {
		d.backlogMu.Lock()
		d.backlog = append(d.backlog, obs...)
		d.backlogMu.Unlock()
		// a coalesced merge starts after the previous callback swapped its
		// result in, so the index current at run time is the right base
		job, done := d.mergeTask(d.index.Load, d.takeBacklog)
		return d.pool.Enqueue(d.Tag(), tasks.Coalesce, job, done) == nil
	}

	snapshot := d.index.Load()
	job, done := d.mergeTask(
		func() *Index { return snapshot },
		func() []Key { return obs },
	)
	err := d.pool.Enqueue(d.Tag(), tasks.Drop, job, done)
	if errors.Is(err, tasks.ErrDuplicate) {
		slog.Debug("digest dropped, merge in flight", "dictionary", d.name, "tokens", len(obs))
	}
	return err == nil
}

var errNothingToMerge = errors.New("nothing to merge")

func (d *Dictionary) takeBacklog() []Key {
	d.backlogMu.Lock()
	defer d.backlogMu.Unlock()
	obs := d.backlog
	d.backlog = nil
	return obs
}

// mergeTask returns a job merging the observations from take into the index
// from base, and the callback that swaps the result in.
func (d *Dictionary) mergeTask(base func() *Index, take func() []Key) (tasks.Job, tasks.Callback) {
	var next *Index
	var res mergeResult

	job := func(ctx context.Context) error {
		obs := take()
		if len(obs) == 0 {
			return errNothingToMerge
		}
		next, res = base().merge(obs)
		return nil
	}

	done := func(err error) {
		if errors.Is(err, errNothingToMerge) {
			return
		}
		if err != nil {
			slog.Error("dictionary merge failed", "dictionary", d.name, "err", err)
			return
		}
		d.index.Store(next)
		for _, k := range res.added {
			d.news[k] = struct{}{}
		}
		for _, k := range res.incremented {
			if _, isNew := d.news[k]; !isNew {
				d.updates[k] = struct{}{}
			}
		}
		slog.Debug("dictionary merged", "dictionary", d.name,
			"added", len(res.added), "incremented", len(res.incremented))
	}
	return job, done
}

// Find returns the best completion of w.Text. Without wide, only words seen
// after w.Previous are considered.
func (d *Dictionary) Find(w Word, wide bool) (string, bool) {
	return d.index.Load().Find(w.Text, w.Previous, wide)
}

// Suggest completes prefix after previous, falling back to the wide bucket
// when the bigram bucket has no match.
func (d *Dictionary) Suggest(prefix, previous string) (string, bool) {
	ix := d.index.Load()
	if s, ok := ix.Find(prefix, previous, false); ok {
		return s, true
	}
	return ix.Find(prefix, previous, true)
}

// Save writes pending inserts and updates to the store and clears them.
// On error nothing is cleared and the next Save retries.
func (d *Dictionary) Save(ctx context.Context) error {
	ix := d.index.Load()
	collect := func(keys map[Key]struct{}) []Word {
		out := make([]Word, 0, len(keys))
		for k := range keys {
			if w, ok := ix.Get(k); ok {
				out = append(out, w)
			}
		}
		return out
	}

	inserts, updates := collect(d.news), collect(d.updates)
	if len(inserts)+len(updates) == 0 {
		return nil
	}
	if err := d.store.Insert(ctx, inserts); err != nil {
		return fmt.Errorf("saving new words: %w", err)
	}
	if err := d.store.Update(ctx, updates); err != nil {
		return fmt.Errorf("saving word counts: %w", err)
	}
	clear(d.news)
	clear(d.updates)
	slog.Info("saved dictionary", "name", d.name, "inserted", len(inserts), "updated", len(updates))
	return nil
}

// Match searches the store, not the index: words learned since the last
// Save are not found.
func (d *Dictionary) Match(ctx context.Context, pattern string, limit int) ([]Word, error) {
	return d.store.Match(ctx, pattern, limit)
}

func (d *Dictionary) Stats() Stats {
	ix := d.index.Load()
	d.backlogMu.Lock()
	backlog := len(d.backlog)
	d.backlogMu.Unlock()
	return Stats{
		Words:          ix.Len(),
		Roots:          ix.RootCount(),
		PendingInserts: len(d.news),
		PendingUpdates: len(d.updates),
		Backlog:        backlog,
	}
}
