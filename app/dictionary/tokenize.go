package dictionary

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// phraseBreaks end a sentence. The first word after one has no previous
// word.
const phraseBreaks = ".!?؟;:…۔\n\r"

const wordBreaks = ",،()[]{}«»\"“”<>*_=+|/\\–—"

func isPhraseBreak(r rune) bool {
	return strings.ContainsRune(phraseBreaks, r)
}

func isWordBreak(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(wordBreaks, r)
}

// Tokenize extracts the learnable bigrams of text. A token is kept when it
// has more than minLen runes and the token before it, if any, has at least
// two. The previous word is recorded as typed even when it was too short to
// be learned itself.
func Tokenize(text string, minLen int) []Key {
	var out []Key
	for _, phrase := range strings.FieldsFunc(norm.NFC.String(text), isPhraseBreak) {
		tokens := strings.FieldsFunc(phrase, isWordBreak)
		for i, tok := range tokens {
			if utf8.RuneCountInString(tok) < minLen+1 {
				continue
			}
			prev := ""
			if i > 0 {
				prev = tokens[i-1]
				if utf8.RuneCountInString(prev) < 2 {
					continue
				}
			}
			out = append(out, Key{Text: tok, Previous: prev})
		}
	}
	return out
}
