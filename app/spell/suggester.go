package spell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sajari/fuzzy"

	"github.com/mahesh-hegde/qalam/app/common"
	"github.com/mahesh-hegde/qalam/app/tasks"
)

// LoadTag is the task tag of background frequency list loads.
const LoadTag = "spell_load"

type Mode string

const (
	// Top returns the single best suggestion.
	Top Mode = "top"
	// Closest returns every suggestion at the smallest distance found.
	Closest Mode = "closest"
	// All returns every suggestion within the distance, closest first.
	All Mode = "all"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return Top, nil
	case Top, Closest, All:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown lookup mode %q", s)
}

type Suggestion struct {
	Term     string `json:"term"`
	Distance int    `json:"distance"`
	Count    int    `json:"count"`
}

// Suggester is an edit distance spell dictionary.
type Suggester interface {
	Lookup(word string, maxEditDistance int, mode Mode) []Suggestion
	Known(word string) bool
}

// FuzzySuggester keeps a frequency list in a sajari/fuzzy model. Words are
// compared lower-cased and without Arabic diacritics. It is safe for
// concurrent use; a load replaces the whole model at once.
type FuzzySuggester struct {
	depth int

	mu     sync.RWMutex
	model  *fuzzy.Model
	counts map[string]int
}

var _ Suggester = &FuzzySuggester{}

func NewFuzzySuggester(depth int) *FuzzySuggester {
	if depth < 1 {
		depth = 2
	}
	return &FuzzySuggester{
		depth:  depth,
		model:  newModel(depth),
		counts: make(map[string]int),
	}
}

func newModel(depth int) *fuzzy.Model {
	model := fuzzy.NewModel()
	// every listed word counts, however rare
	model.SetThreshold(0)
	model.SetDepth(depth)
	return model
}

func fold(word string) string {
	return common.BareArabic(strings.ToLower(strings.TrimSpace(word)))
}

// Add adds count occurrences of word.
func (s *FuzzySuggester) Add(word string, count int) {
	w := fold(word)
	if w == "" || count < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[w] += count
	s.model.SetCount(w, s.counts[w], true)
}

// LoadFrequencyList replaces the dictionary with the "word count" lines of
// r. A missing count means 1. It returns the number of distinct words.
func (s *FuzzySuggester) LoadFrequencyList(r io.Reader) (int, error) {
	counts := make(map[string]int)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		count := 1
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[len(fields)-1])
			if err != nil || n < 1 {
				slog.Debug("bad count in frequency list", "line", line)
				continue
			}
			count = n
		}
		if w := fold(fields[0]); w != "" {
			counts[w] += count
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("reading frequency list: %w", err)
	}

	model := newModel(s.depth)
	for w, c := range counts {
		model.SetCount(w, c, true)
	}

	s.mu.Lock()
	s.model, s.counts = model, counts
	s.mu.Unlock()
	return len(counts), nil
}

func (s *FuzzySuggester) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening frequency list: %w", err)
	}
	defer f.Close()
	return s.LoadFrequencyList(f)
}

// LoadInBackground loads path on pool under LoadTag. done, which may be nil,
// runs on the goroutine that runs the pool callbacks.
func (s *FuzzySuggester) LoadInBackground(pool *tasks.Pool, path string, done func(error)) bool {
	return pool.Submit(LoadTag, func(ctx context.Context) error {
		n, err := s.LoadFile(path)
		if err == nil {
			slog.Info("loaded spell dictionary", "path", path, "words", n)
		}
		return err
	}, func(err error) {
		if err != nil {
			slog.Warn("spell dictionary not loaded", "path", path, "err", err)
		}
		if done != nil {
			done(err)
		}
	})
}

func (s *FuzzySuggester) Known(word string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.counts[fold(word)]
	return ok
}

func (s *FuzzySuggester) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.counts)
}

// Lookup returns known words within maxEditDistance of word. Ties in
// distance go to the more frequent word.
func (s *FuzzySuggester) Lookup(word string, maxEditDistance int, mode Mode) []Suggestion {
	w := fold(word)
	if w == "" {
		return nil
	}

	s.mu.RLock()
	potentials := s.model.Potentials(w, mode == All || maxEditDistance > s.depth)
	var out []Suggestion
	for term, p := range potentials {
		if p.Leven > maxEditDistance {
			continue
		}
		count, ok := s.counts[term]
		if !ok {
			continue
		}
		out = append(out, Suggestion{Term: term, Distance: p.Leven, Count: count})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})

	switch mode {
	case Top:
		if len(out) > 1 {
			out = out[:1]
		}
	case Closest:
		n := 0
		for n < len(out) && out[n].Distance == out[0].Distance {
			n++
		}
		out = out[:n]
	}
	return out
}
