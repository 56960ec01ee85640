package common

import (
	"unicode"
)

type Language string

const (
	Arabic Language = "arabic"
	French Language = "french"
)

// InputMode says how the editor wants a keystroke span handled.
type InputMode string

const (
	// ModeTransliterate converts Latin keystrokes to Arabic script.
	ModeTransliterate InputMode = "translit"
	// ModeComplete asks the word dictionary for a continuation.
	ModeComplete InputMode = "complete"
)

// LanguageOf guesses the language of a word from its first letter.
func LanguageOf(word string) Language {
	for _, r := range word {
		if unicode.IsSpace(r) {
			continue
		}
		if unicode.Is(unicode.Arabic, r) {
			return Arabic
		}
		return French
	}
	return French
}

// IsArabicStart reports whether the first non-space rune of s is Arabic.
func IsArabicStart(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		return unicode.Is(unicode.Arabic, r)
	}
	return false
}
