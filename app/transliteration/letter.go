package transliteration

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Letter is one consonant cluster of the Latin input together with the
// vowels typed after it.
type Letter struct {
	// Letter is a key of the consonant table, a whitespace separator, or
	// empty for characters that could not be read at the start of a word.
	Letter string
	Accent string
	Index  int
}

// Same compares the letter and accent, ignoring the position.
func (l Letter) Same(o Letter) bool {
	return l.Letter == o.Letter && l.Accent == o.Accent
}

func (l Letter) IsSeparator() bool {
	r, _ := utf8.DecodeRuneInString(l.Letter)
	return l.Letter != "" && unicode.IsSpace(r)
}

// Warning reports an input character that is not part of the alphabet. The
// character is kept verbatim in the output.
type Warning struct {
	Index int    `json:"index"` // byte offset in the input
	Char  string `json:"char"`
}

// Explode splits Latin text into Letters. Every non-space character ends up
// in exactly one Letter; vowels attach to the consonant before them.
func Explode(text string) ([]Letter, []Warning) {
	var letters []Letter
	var warnings []Warning
	wordStart := 0

	push := func(l Letter) {
		l.Index = len(letters)
		letters = append(letters, l)
	}
	endWord := func() {
		word := letters[wordStart:]
		if needsTaMarbuta(word) {
			push(Letter{Letter: TaMarbuta})
		}
	}

	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])

		switch {
		case unicode.IsSpace(r):
			endWord()
			push(Letter{Letter: string(r)})
			wordStart = len(letters)
			i += size
			continue
		case r == '-' && len(letters) > wordStart:
			i += size
			continue
		}

		if v, ok := vowels[r]; ok {
			if len(letters) > wordStart && letters[len(letters)-1].Letter != "" {
				letters[len(letters)-1].Accent += string(v)
			} else {
				push(Letter{Letter: Hamza, Accent: string(v)})
			}
			i += size
			continue
		}

		if key, length := matchCluster(text[i:]); length > 0 {
			push(Letter{Letter: key})
			i += length
			continue
		}

		warnings = append(warnings, Warning{Index: i, Char: string(r)})
		if len(letters) > wordStart {
			letters[len(letters)-1].Accent += string(r)
		} else {
			push(Letter{Accent: string(r)})
		}
		i += size
	}
	endWord()

	return letters, warnings
}

// matchCluster prefers the longest cluster, trying the text as typed first
// and then lower-cased, so that "Kh" reads as "kh" while "H" and "S" keep
// their emphatic meaning.
func matchCluster(s string) (string, int) {
	key, length := consonantTrie.FindLongestPrefix(s)

	end := 0
	for n := 0; end < len(s) && n < 2; n++ {
		_, size := utf8.DecodeRuneInString(s[end:])
		end += size
	}
	lowerKey, lowerLength := consonantTrie.FindLongestPrefix(strings.ToLower(s[:end]))
	// ToLower keeps the byte length of ASCII input, the only input with
	// upper-case cluster keys.
	if lowerLength > length && lowerLength <= end {
		return lowerKey, lowerLength
	}
	return key, length
}

// needsTaMarbuta reports whether a word of more than two letters ends in a
// short "a".
func needsTaMarbuta(word []Letter) bool {
	count := 0
	for _, l := range word {
		if l.Letter != "" {
			count++
		}
	}
	if count <= 2 {
		return false
	}
	last := word[len(word)-1]
	return last.Accent == "a" && last.Letter != Hamza && last.Letter != TaMarbuta && last.Letter != ""
}

// splitWords splits exploded letters at separators, returning each word and the
// separators in between in order.
func splitWords(letters []Letter) [][]Letter {
	var out [][]Letter
	start := 0
	for i, l := range letters {
		if l.IsSeparator() {
			if i > start {
				out = append(out, letters[start:i])
			}
			out = append(out, letters[i:i+1])
			start = i + 1
		}
	}
	if start < len(letters) {
		out = append(out, letters[start:])
	}
	return out
}
