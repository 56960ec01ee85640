package transliteration

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/mahesh-hegde/qalam/app/common"
)

// Result is a transliteration together with the characters it could not
// read.
type Result struct {
	Text     string    `json:"text"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// Transliterator maps Latin keystrokes to Arabic orthography. It is safe for
// concurrent use; the only mutable state is the exception dictionary, which
// guards itself.
type Transliterator struct {
	exceptions *Exceptions
}

// NewTransliterator returns a transliterator using exceptions to decide the
// alif maqsura endings. exceptions may be nil.
func NewTransliterator(exceptions *Exceptions) *Transliterator {
	if exceptions == nil {
		exceptions = NewExceptions()
	}
	return &Transliterator{exceptions: exceptions}
}

func (t *Transliterator) Exceptions() *Exceptions {
	return t.exceptions
}

// Transliterate converts text to Arabic script. Text that already starts
// with an Arabic letter is returned unchanged, or with its harakat stripped
// when noHarakat is set.
func (t *Transliterator) Transliterate(text string, noHarakat bool) string {
	return t.TransliterateDetailed(text, noHarakat).Text
}

func (t *Transliterator) TransliterateDetailed(text string, noHarakat bool) Result {
	if common.IsArabicStart(text) {
		if noHarakat {
			return Result{Text: common.StripHarakat(text)}
		}
		return Result{Text: text}
	}

	letters, warnings := Explode(norm.NFC.String(text))

	var out strings.Builder
	for _, word := range splitWords(letters) {
		if len(word) == 1 && word[0].IsSeparator() {
			out.WriteString(word[0].Letter)
			continue
		}
		out.WriteString(t.renderWord(word))
	}

	res := out.String()
	if noHarakat {
		res = common.StripHarakat(res)
	}
	return Result{Text: res, Warnings: warnings}
}

func (t *Transliterator) renderWord(word []Letter) string {
	var out strings.Builder

	body := word
	idiom, idiomOk := matchIdiom(word)
	if idiomOk {
		body = word[:len(word)-4]
	}

	for k, l := range body {
		if l.Letter == "" {
			out.WriteString(l.Accent)
			continue
		}

		// the sun letter after "al" keeps its glyph even when it is a lam
		sun := k == 2 && isArticle(body) && sunLetters[l.Letter]
		if k > 0 && !sun && doubles(body[k-1], l) {
			out.WriteString(common.Shadda)
			out.WriteString(renderAccent(l.Accent))
			continue
		}

		glyph, accent := consonants[l.Letter], l.Accent
		if l.Letter == Hamza {
			glyph, accent = hamzaSeat(body, k)
		}
		out.WriteString(glyph)

		if sun {
			out.WriteString(common.Shadda)
		}
		out.WriteString(renderAccent(accent))
	}

	if idiomOk {
		out.WriteString(idiom)
		out.WriteString(renderAccent(word[len(word)-1].Accent))
		return out.String()
	}

	rendered := out.String()
	if last := word[len(word)-1]; last.Accent == "aa" && last.Letter != Hamza {
		if maqsura, ok := t.maqsuraForm(rendered); ok {
			return maqsura
		}
	}
	return rendered
}

// maqsuraForm rewrites a final alif to alif maqsura when the exception
// dictionary knows the word in that form.
func (t *Transliterator) maqsuraForm(rendered string) (string, bool) {
	if !strings.HasSuffix(rendered, "ا") {
		return "", false
	}
	bare := strings.TrimSuffix(common.BareArabic(rendered), "ا") + "ى"
	if !t.exceptions.Contains(bare) {
		return "", false
	}
	return strings.TrimSuffix(rendered, "ا") + "ى", true
}

// doubles reports whether cur repeats prev without a vowel in between, in
// which case prev is written once with a shadda.
func doubles(prev, cur Letter) bool {
	return prev.Letter == cur.Letter && prev.Accent == "" &&
		cur.Letter != Hamza && cur.Letter != TaMarbuta
}

// isArticle reports whether the word starts with the definite article "al".
func isArticle(word []Letter) bool {
	return len(word) > 2 &&
		word[0].Letter == Hamza && strings.HasPrefix(word[0].Accent, "a") &&
		word[1].Letter == "l" && word[1].Accent == ""
}

// hamzaSeat picks the glyph of a hamza letter from its vowels and its
// neighbours, and returns the accent that is still to be written after it.
func hamzaSeat(word []Letter, k int) (glyph string, accent string) {
	cur := word[k]
	acc := cur.Accent
	last := k == len(word)-1
	var prev Letter
	if k > 0 {
		prev = word[k-1]
	}
	// unreadable characters before the hamza do not count as letters
	first := true
	for _, p := range word[:k] {
		if p.Letter != "" {
			first = false
			break
		}
	}

	switch {
	case first && strings.HasPrefix(acc, "u"):
		return "أ", acc
	case first && strings.HasPrefix(acc, "i"):
		return "إ", acc
	case first && acc == "aa":
		return "آ", ""
	case !first && !last && acc == "a" && (prev.Accent == "" || prev.Accent == "a"):
		return "أ", acc
	case first:
		return "ا", ""
	case last && acc == "a":
		return "ى", ""
	case last && acc == "":
		return "ء", ""
	case strings.HasPrefix(acc, "a") && strings.Contains(prev.Accent, "a"):
		return "ء", acc
	case acc == "aa" && prev.Accent == "":
		return "آ", ""
	case strings.Contains(acc, "i") || strings.Contains(prev.Accent, "i"):
		return "ئ", acc
	case strings.Contains(prev.Accent, "u"):
		return "ؤ", acc
	default:
		return consonants[Hamza], acc
	}
}

// matchIdiom recognises the name of God at the end of a word:
// "allah", "lillah" and the unvowelled "lllah".
func matchIdiom(word []Letter) (string, bool) {
	n := len(word)
	if n < 4 {
		return "", false
	}
	x, l1, l2, h := word[n-4], word[n-3], word[n-2], word[n-1]
	if h.Letter != "h" || l2.Letter != "l" || (l2.Accent != "a" && l2.Accent != "aa") ||
		l1.Letter != "l" || l1.Accent != "" {
		return "", false
	}
	switch {
	case x.Letter == Hamza && n == 4:
		return "الله", true
	case x.Letter == "l" && strings.Contains(x.Accent, "i"):
		return "ل" + common.Kasra + "ل" + common.Shadda + "ه", true
	case x.Letter == "l" && x.Accent == "":
		return "لل" + common.Shadda + "ه", true
	}
	return "", false
}

// renderAccent writes the harakat of an accent. Characters that are not
// vowels were absorbed from unreadable input and are written as they are.
func renderAccent(accent string) string {
	if h, ok := harakat[accent]; ok {
		return h
	}
	var out strings.Builder
	rest := accent
	for rest != "" {
		if len(rest) >= 2 {
			if h, ok := harakat[rest[:2]]; ok {
				out.WriteString(h)
				rest = rest[2:]
				continue
			}
		}
		r := []rune(rest)[0]
		if m, ok := shortMarks[r]; ok {
			out.WriteString(m)
		} else {
			out.WriteRune(r)
		}
		rest = rest[len(string(r)):]
	}
	return out.String()
}
