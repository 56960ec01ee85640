package grammar

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mahesh-hegde/qalam/app/common"
)

type token struct {
	pos  int
	text string
}

func isTokenBreak(r rune) bool {
	if r == ':' {
		// kept inside sura:aya references
		return false
	}
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// tokenize splits text into words with their byte offsets.
func tokenize(text string) []token {
	var out []token
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		tok := strings.Trim(text[start:end], ":")
		if tok != "" {
			lead := strings.Index(text[start:end], tok)
			out = append(out, token{pos: start + lead, text: tok})
		}
		start = -1
	}
	for i, r := range text {
		if isTokenBreak(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(text))
	return out
}

var crossRefRe = regexp.MustCompile(`^\p{Nd}+:\p{Nd}+$`)

func isCrossRef(tok string) bool {
	return crossRefRe.MatchString(tok)
}

// foldToken is the lexicon key of a token.
func foldToken(s string) string {
	return common.BareArabic(strings.ToLower(s))
}

// ParseTaggedLine reads a sentence of word/ROLE tokens separated by
// whitespace. Unknown roles are read as common.RoleUnknown.
func ParseTaggedLine(line string) ([]TaggedToken, error) {
	var out []TaggedToken
	for _, field := range strings.Fields(line) {
		idx := strings.LastIndex(field, "/")
		if idx <= 0 || idx == len(field)-1 {
			return nil, fmt.Errorf("malformed tagged token %q", field)
		}
		word, role := field[:idx], strings.ToUpper(field[idx+1:])
		if _, ok := common.RoleTags[role]; !ok {
			slog.Debug("unknown role tag", "word", word, "role", role)
			role = common.RoleUnknown
		}
		out = append(out, TaggedToken{Word: word, Role: role})
	}
	return out, nil
}

const observeBatch = 1024

// LoadTaggedCorpus feeds a tagged corpus, one sentence per line, into c.
// Blank lines and lines starting with # are skipped; malformed lines are
// logged and skipped. It returns the number of sentences learned.
func LoadTaggedCorpus(ctx context.Context, c *Corpus, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var batch [][]TaggedToken
	total := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || !utf8.ValidString(line) {
			continue
		}
		sentence, err := ParseTaggedLine(line)
		if err != nil {
			slog.Warn("skipping tagged line", "line", lineNo, "err", err)
			continue
		}
		batch = append(batch, sentence)
		if len(batch) >= observeBatch {
			if err := c.Observe(ctx, batch...); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return total, fmt.Errorf("scanner error: %w", err)
	}
	if len(batch) > 0 {
		if err := c.Observe(ctx, batch...); err != nil {
			return total, err
		}
		total += len(batch)
	}
	return total, nil
}
