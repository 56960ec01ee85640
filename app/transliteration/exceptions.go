package transliteration

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/mahesh-hegde/qalam/app/common"
)

// Exceptions is the list of words that end in alif maqsura. It is read once
// from a newline delimited file and only grows afterwards; words are never
// removed at runtime.
type Exceptions struct {
	mu    sync.RWMutex
	path  string
	words map[string]struct{}
}

// NewExceptions returns an empty in-memory list. Call Load to attach it to
// a file.
func NewExceptions() *Exceptions {
	return &Exceptions{words: make(map[string]struct{})}
}

// Load reads the list from path and remembers the path for Append. A
// missing file is an empty list.
func (e *Exceptions) Load(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.path = path

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("no transliteration exception file yet", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening exception file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := common.BareArabic(strings.TrimSpace(scanner.Text()))
		if word == "" {
			continue
		}
		e.words[word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading exception file: %w", err)
	}
	slog.Info("loaded transliteration exceptions", "count", len(e.words), "path", path)
	return nil
}

// Contains reports whether word, compared without diacritics, is listed.
func (e *Exceptions) Contains(word string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.words[common.BareArabic(word)]
	return ok
}

// Append adds word to the list and to the backing file, if any. Adding a
// word that is already listed does nothing.
func (e *Exceptions) Append(word string) error {
	word = common.BareArabic(strings.TrimSpace(word))
	if word == "" {
		return nil
	}
	if !strings.HasSuffix(word, "ى") {
		return fmt.Errorf("%q does not end in alif maqsura", word)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.words[word]; ok {
		return nil
	}

	if e.path != "" {
		file, err := os.OpenFile(e.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening exception file: %w", err)
		}
		if _, err := file.WriteString(word + "\n"); err != nil {
			file.Close()
			return fmt.Errorf("appending to exception file: %w", err)
		}
		if err := file.Close(); err != nil {
			return err
		}
	}
	e.words[word] = struct{}{}
	return nil
}

func (e *Exceptions) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.words)
}

// Words returns the listed words in sorted order.
func (e *Exceptions) Words() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	res := make([]string, 0, len(e.words))
	for w := range e.words {
		res = append(res, w)
	}
	sort.Strings(res)
	return res
}
