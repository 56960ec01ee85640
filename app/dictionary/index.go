package dictionary

import (
	"maps"
	"sort"
	"strings"
)

// Index is an immutable snapshot of the learned bigrams. Every word sits in
// one bucket keyed by its root and previous word, and in one wide bucket
// keyed by its root alone. Buckets are ordered by count, highest first.
type Index struct {
	rootLen   int
	words     map[Key]*Word
	roots     map[string]map[string][]*Word
	wideRoots map[string][]*Word
}

func NewIndex(rootLen int, words []Word) *Index {
	ix := &Index{
		rootLen:   rootLen,
		words:     make(map[Key]*Word, len(words)),
		roots:     make(map[string]map[string][]*Word),
		wideRoots: make(map[string][]*Word),
	}
	for i := range words {
		w := words[i]
		root, ok := RootOf(w.Text, rootLen)
		if !ok {
			continue
		}
		w.Root = root
		if old, dup := ix.words[w.Key()]; dup {
			// the store has two rows for one bigram, keep the stronger one
			if old.Count >= w.Count {
				continue
			}
			ix.words[w.Key()] = &w
			continue
		}
		ix.words[w.Key()] = &w
	}
	for _, w := range ix.words {
		if ix.roots[w.Root] == nil {
			ix.roots[w.Root] = make(map[string][]*Word)
		}
		ix.roots[w.Root][w.Previous] = append(ix.roots[w.Root][w.Previous], w)
		ix.wideRoots[w.Root] = append(ix.wideRoots[w.Root], w)
	}
	for _, prevs := range ix.roots {
		for _, bucket := range prevs {
			sortBucket(bucket)
		}
	}
	for _, bucket := range ix.wideRoots {
		sortBucket(bucket)
	}
	return ix
}

func sortBucket(b []*Word) {
	sort.Slice(b, func(i, j int) bool {
		if b[i].Count != b[j].Count {
			return b[i].Count > b[j].Count
		}
		if b[i].Text != b[j].Text {
			return b[i].Text < b[j].Text
		}
		return b[i].Previous < b[j].Previous
	})
}

func (ix *Index) RootLength() int {
	return ix.rootLen
}

func (ix *Index) Len() int {
	return len(ix.words)
}

func (ix *Index) RootCount() int {
	return len(ix.wideRoots)
}

func (ix *Index) Get(k Key) (Word, bool) {
	w, ok := ix.words[k]
	if !ok {
		return Word{}, false
	}
	return *w, true
}

// Bigrams returns a copy of the bucket for root and previous.
func (ix *Index) Bigrams(root, previous string) []Word {
	return copyBucket(ix.roots[root][previous])
}

// Wide returns a copy of the wide bucket for root.
func (ix *Index) Wide(root string) []Word {
	return copyBucket(ix.wideRoots[root])
}

// All returns every word, in no particular order.
func (ix *Index) All() []Word {
	out := make([]Word, 0, len(ix.words))
	for _, w := range ix.words {
		out = append(out, *w)
	}
	return out
}

func copyBucket(b []*Word) []Word {
	out := make([]Word, len(b))
	for i, w := range b {
		out[i] = *w
	}
	return out
}

// Find returns the best ranked word starting with prefix. The bigram bucket
// of previous is searched, or the wide bucket of the root when wide is set.
// A prefix shorter than the root never matches.
func (ix *Index) Find(prefix, previous string, wide bool) (string, bool) {
	root, ok := RootOf(prefix, ix.rootLen)
	if !ok {
		return "", false
	}
	var bucket []*Word
	if wide {
		bucket = ix.wideRoots[root]
	} else {
		bucket = ix.roots[root][previous]
	}
	for _, w := range bucket {
		if strings.HasPrefix(w.Text, prefix) {
			return w.Text, true
		}
	}
	return "", false
}

type mergeResult struct {
	added       []Key
	incremented []Key
}

// merge returns a new Index with obs counted in. ix itself and the Words it
// holds are left untouched; only the buckets that change are rebuilt.
func (ix *Index) merge(obs []Key) (*Index, mergeResult) {
	next := &Index{
		rootLen:   ix.rootLen,
		words:     maps.Clone(ix.words),
		roots:     maps.Clone(ix.roots),
		wideRoots: maps.Clone(ix.wideRoots),
	}
	if next.words == nil {
		next.words = make(map[Key]*Word)
		next.roots = make(map[string]map[string][]*Word)
		next.wideRoots = make(map[string][]*Word)
	}

	var res mergeResult
	added := make(map[Key]bool)
	// per touched bucket, the keys it does not contain yet
	freshBigrams := make(map[string]map[string][]Key)
	freshWide := make(map[string][]Key)

	for _, k := range obs {
		root, ok := RootOf(k.Text, ix.rootLen)
		if !ok {
			continue
		}
		if freshBigrams[root] == nil {
			freshBigrams[root] = make(map[string][]Key)
		}

		if w, ok := next.words[k]; ok {
			bumped := *w
			bumped.Count++
			next.words[k] = &bumped
			if !added[k] {
				res.incremented = append(res.incremented, k)
			}
			freshBigrams[root][k.Previous] = freshBigrams[root][k.Previous]
			freshWide[root] = freshWide[root]
			continue
		}

		next.words[k] = &Word{Text: k.Text, Root: root, Previous: k.Previous, Count: 1}
		added[k] = true
		res.added = append(res.added, k)
		freshBigrams[root][k.Previous] = append(freshBigrams[root][k.Previous], k)
		freshWide[root] = append(freshWide[root], k)
	}

	for root, prevs := range freshBigrams {
		inner := maps.Clone(ix.roots[root])
		if inner == nil {
			inner = make(map[string][]*Word)
		}
		for prev, fresh := range prevs {
			inner[prev] = rebuildBucket(ix.roots[root][prev], fresh, next.words)
		}
		next.roots[root] = inner
	}
	for root, fresh := range freshWide {
		next.wideRoots[root] = rebuildBucket(ix.wideRoots[root], fresh, next.words)
	}

	res.incremented = dedupKeys(res.incremented)
	return next, res
}

func rebuildBucket(old []*Word, fresh []Key, words map[Key]*Word) []*Word {
	out := make([]*Word, 0, len(old)+len(fresh))
	for _, w := range old {
		out = append(out, words[w.Key()])
	}
	for _, k := range fresh {
		out = append(out, words[k])
	}
	sortBucket(out)
	return out
}

func dedupKeys(keys []Key) []Key {
	seen := make(map[Key]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
