package dictionary

import (
	"unicode/utf8"
)

// Key identifies a bigram: a word and the word typed before it. Previous is
// empty for the first word of a phrase.
type Key struct {
	Text     string `json:"word"`
	Previous string `json:"previous"`
}

// Word is one learned bigram. Words reachable from an Index are never
// modified; a changed count means a new Word in a new Index.
type Word struct {
	// Row id in the store. Zero for words learned since the last Load.
	ID       int64  `json:"id"`
	Text     string `json:"word"`
	Root     string `json:"root"`
	Previous string `json:"previous"`
	Count    int    `json:"count"`
}

func (w *Word) Key() Key {
	return Key{Text: w.Text, Previous: w.Previous}
}

type Stats struct {
	Words          int `json:"words"`
	Roots          int `json:"roots"`
	PendingInserts int `json:"pending_inserts"`
	PendingUpdates int `json:"pending_updates"`
	Backlog        int `json:"backlog"`
}

// RootOf returns the first n runes of text, or false if text is shorter.
func RootOf(text string, n int) (string, bool) {
	i := 0
	for k := 0; k < n; k++ {
		if i >= len(text) {
			return "", false
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return text[:i], true
}
