package docstore

import (
	"strings"

	"github.com/mahesh-hegde/qalam/app/common"
	"github.com/mahesh-hegde/qalam/app/transliteration"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// MarkdownConverter flattens markdown seed documents to the plain text the
// dictionary digests. Single-emphasis Latin words (*kitaab*) are written in
// transliteration and come out in Arabic script.
type MarkdownConverter struct {
	transliterator *transliteration.Transliterator
	goldmark       goldmark.Markdown
}

// NewMarkdownConverter creates a new markdown converter.
func NewMarkdownConverter(t *transliteration.Transliterator) *MarkdownConverter {
	mc := &MarkdownConverter{transliterator: t}
	mc.goldmark = goldmark.New(
		goldmark.WithExtensions(&qalamMarkdownExtension{mc: mc}),
	)
	return mc
}

// ConvertToText returns the text content of the document, one line per
// block. Code and raw HTML are dropped.
func (mc *MarkdownConverter) ConvertToText(source []byte) string {
	doc := mc.goldmark.Parser().Parse(text.NewReader(source))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n.Kind() {
		case ast.KindCodeBlock, ast.KindFencedCodeBlock, ast.KindHTMLBlock,
			ast.KindCodeSpan, ast.KindRawHTML:
			return ast.WalkSkipChildren, nil
		case ast.KindText:
			if entering {
				txt := n.(*ast.Text)
				sb.Write(txt.Segment.Value(source))
				if txt.SoftLineBreak() || txt.HardLineBreak() {
					sb.WriteByte(' ')
				}
			}
		case ast.KindString:
			if entering {
				sb.Write(n.(*ast.String).Value)
			}
		default:
			if !entering && n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

type qalamMarkdownExtension struct {
	mc *MarkdownConverter
}

// Extend adds custom parsing to goldmark.
func (e *qalamMarkdownExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(
			util.Prioritized(&qalamASTTransformer{mc: e.mc}, 100),
		),
	)
}

type qalamASTTransformer struct {
	mc *MarkdownConverter
}

// Transform replaces the text of single-emphasis Latin words with their
// Arabic rendering.
func (t *qalamASTTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindEmphasis || n.(*ast.Emphasis).Level != 1 {
			return ast.WalkContinue, nil
		}
		var next ast.Node
		for c := n.FirstChild(); c != nil; c = next {
			next = c.NextSibling()
			if c.Kind() != ast.KindText {
				continue
			}
			word := string(c.(*ast.Text).Segment.Value(reader.Source()))
			if strings.Contains(word, " ") || common.IsArabicStart(word) {
				continue
			}
			arabic := t.mc.transliterator.Transliterate(word, true)
			n.ReplaceChild(n, c, ast.NewString([]byte(arabic)))
		}
		return ast.WalkSkipChildren, nil
	})
}
