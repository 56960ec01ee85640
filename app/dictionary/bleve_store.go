package dictionary

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
)

const bigramDocType = "bigram"

// bigramDoc is the indexed form of a Word. The document id is
// word + "\x1f" + previous, so indexing a known bigram replaces it.
type bigramDoc struct {
	ID       float64 `json:"id"`
	Word     string  `json:"word"`
	Previous string  `json:"previous"`
	Root     string  `json:"root"`
	Count    float64 `json:"count"`
}

func (d *bigramDoc) Type() string {
	return bigramDocType
}

func bigramDocID(word, previous string) string {
	return word + "\x1f" + previous
}

// AddBleveMapping registers the bigram document type on m.
func AddBleveMapping(m *mapping.IndexMappingImpl) {
	dm := mapping.NewDocumentMapping()
	dm.AddFieldMappingsAt("word", mapping.NewKeywordFieldMapping())
	dm.AddFieldMappingsAt("previous", mapping.NewKeywordFieldMapping())
	dm.AddFieldMappingsAt("root", mapping.NewKeywordFieldMapping())
	dm.AddFieldMappingsAt("count", mapping.NewNumericFieldMapping())
	dm.AddFieldMappingsAt("id", mapping.NewNumericFieldMapping())
	m.AddDocumentMapping(bigramDocType, dm)
}

type BleveWordStore struct {
	idx     bleve.Index
	rootLen int

	mu     sync.Mutex
	nextID int64
}

func NewBleveWordStore(idx bleve.Index, rootLen int) *BleveWordStore {
	return &BleveWordStore{idx: idx, rootLen: rootLen}
}

var _ WordStore = &BleveWordStore{}

// Init reads the highest id in use so that new bigrams get fresh ids.
func (b *BleveWordStore) Init() error {
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), 1, 0, false)
	req.SortBy([]string{"-id"})
	req.Fields = []string{"id"}
	res, err := b.idx.Search(req)
	if err != nil {
		return fmt.Errorf("reading highest bigram id: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID = 1
	if len(res.Hits) > 0 {
		if id, ok := res.Hits[0].Fields["id"].(float64); ok {
			b.nextID = int64(id) + 1
		}
	}
	return nil
}

const blevePageSize = 1000

func (b *BleveWordStore) LoadAll(ctx context.Context) ([]Word, error) {
	return b.collect(ctx, bleve.NewMatchAllQuery())
}

// collect pages through every hit of q.
func (b *BleveWordStore) collect(ctx context.Context, q query.Query) ([]Word, error) {
	var words []Word
	for from := 0; ; from += blevePageSize {
		req := bleve.NewSearchRequestOptions(q, blevePageSize, from, false)
		req.SortBy([]string{"_id"})
		req.Fields = []string{"*"}
		res, err := b.idx.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("bleve search failed: %w", err)
		}
		for _, hit := range res.Hits {
			words = append(words, hitToWord(hit))
		}
		if len(res.Hits) < blevePageSize {
			return words, nil
		}
	}
}

func hitToWord(hit *search.DocumentMatch) Word {
	var w Word
	w.Text, _ = hit.Fields["word"].(string)
	w.Previous, _ = hit.Fields["previous"].(string)
	w.Root, _ = hit.Fields["root"].(string)
	if c, ok := hit.Fields["count"].(float64); ok {
		w.Count = int(c)
	}
	if id, ok := hit.Fields["id"].(float64); ok {
		w.ID = int64(id)
	}
	return w
}

func (b *BleveWordStore) byKeys(ctx context.Context, ws []Word) (map[Key]Word, error) {
	ids := make([]string, len(ws))
	for i := range ws {
		ids[i] = bigramDocID(ws[i].Text, ws[i].Previous)
	}
	found, err := b.collect(ctx, bleve.NewDocIDQuery(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[Key]Word, len(found))
	for _, w := range found {
		out[w.Key()] = w
	}
	return out, nil
}

func (b *BleveWordStore) byIDs(ctx context.Context, ids []int64) ([]Word, error) {
	inclusive := true
	qs := make([]query.Query, len(ids))
	for i, id := range ids {
		v := float64(id)
		q := bleve.NewNumericRangeInclusiveQuery(&v, &v, &inclusive, &inclusive)
		q.SetField("id")
		qs[i] = q
	}
	return b.collect(ctx, bleve.NewDisjunctionQuery(qs...))
}

func (b *BleveWordStore) Insert(ctx context.Context, ws []Word) error {
	return b.upsert(ctx, ws)
}

func (b *BleveWordStore) Update(ctx context.Context, ws []Word) error {
	return b.upsert(ctx, ws)
}

// upsert indexes ws, keeping the id of bigrams already stored.
func (b *BleveWordStore) upsert(ctx context.Context, ws []Word) error {
	if len(ws) == 0 {
		return nil
	}
	existing, err := b.byKeys(ctx, ws)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.idx.NewBatch()
	for i := range ws {
		w := ws[i]
		if old, ok := existing[w.Key()]; ok {
			w.ID = old.ID
		} else {
			w.ID = b.nextID
			b.nextID++
		}
		if root, ok := RootOf(w.Text, b.rootLen); ok {
			w.Root = root
		}
		if err := batch.Index(bigramDocID(w.Text, w.Previous), b.toDoc(&w)); err != nil {
			return err
		}
	}
	slog.Debug("writing bigram batch", "size", batch.Size())
	return b.idx.Batch(batch)
}

func (b *BleveWordStore) toDoc(w *Word) *bigramDoc {
	return &bigramDoc{
		ID:       float64(w.ID),
		Word:     w.Text,
		Previous: w.Previous,
		Root:     w.Root,
		Count:    float64(w.Count),
	}
}

func (b *BleveWordStore) Merge(ctx context.Context, keepID int64, dropIDs []int64) error {
	if len(dropIDs) == 0 {
		return nil
	}
	found, err := b.byIDs(ctx, append([]int64{keepID}, dropIDs...))
	if err != nil {
		return err
	}

	var keep *Word
	var drops []Word
	for i := range found {
		if found[i].ID == keepID {
			keep = &found[i]
		} else {
			drops = append(drops, found[i])
		}
	}
	if keep == nil {
		return fmt.Errorf("no word with id %d", keepID)
	}

	batch := b.idx.NewBatch()
	for _, d := range drops {
		keep.Count += d.Count
		batch.Delete(bigramDocID(d.Text, d.Previous))
	}
	if err := batch.Index(bigramDocID(keep.Text, keep.Previous), b.toDoc(keep)); err != nil {
		return err
	}
	return b.idx.Batch(batch)
}

func (b *BleveWordStore) Match(ctx context.Context, pattern string, limit int) ([]Word, error) {
	q := bleve.NewRegexpQuery(pattern)
	q.SetField("word")
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.SortBy([]string{"-count", "word", "previous"})
	req.Fields = []string{"*"}
	res, err := b.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve match failed: %w", err)
	}
	words := make([]Word, 0, len(res.Hits))
	for _, hit := range res.Hits {
		words = append(words, hitToWord(hit))
	}
	return words, nil
}

func (b *BleveWordStore) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := b.byIDs(ctx, ids)
	if err != nil {
		return err
	}
	batch := b.idx.NewBatch()
	for _, w := range found {
		batch.Delete(bigramDocID(w.Text, w.Previous))
	}
	return b.idx.Batch(batch)
}
