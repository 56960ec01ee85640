package grammar

import (
	"github.com/mahesh-hegde/qalam/app/common"
)

// Tuple is the role context of a token: the roles of the two tokens before
// it (X1, X2), its own role (Y) and the role of the token after it (Z).
// Paragraph edges use common.RoleStart and common.RoleEnd.
type Tuple struct {
	X1 string `json:"x1"`
	X2 string `json:"x2"`
	Y  string `json:"y"`
	Z  string `json:"z"`
}

func (t Tuple) cacheKey() string {
	return t.X1 + "|" + t.X2 + "|" + t.Y + "|" + t.Z
}

// Solution is the learned weight of a tuple against the best role seen in
// the same context.
type Solution struct {
	Tuple  Tuple   `json:"tuple"`
	Weight float64 `json:"weight"`
	// Highest weight of any role in place of Y, in the same context.
	Best float64 `json:"best"`
}

// NormalizedScore reduces the solution to a highlight level.
func (s *Solution) NormalizedScore() common.HighlightLevel {
	if s == nil || s.Weight <= 0 || s.Best <= 0 {
		return common.HighlightUnseen
	}
	ratio := s.Weight / s.Best
	switch {
	case ratio >= 0.75:
		return common.HighlightStrong
	case ratio >= 0.4:
		return common.HighlightPlausible
	default:
		return common.HighlightWeak
	}
}

// Suggestions feed the grammar context menu of a token.
type Suggestions struct {
	// Words most often seen with role Y.
	Lemma []string `json:"lemma"`
	// Roles seen in place of Y in the same context, best first.
	Roles []string `json:"roles"`
	// Roles seen in place of X2 before Y, best first.
	Ancestors []string `json:"ancestors"`
}

// Annotation is the grammar note of one token of an analysed text.
type Annotation struct {
	// Byte offset of the token in the text.
	Position int                   `json:"position"`
	Token    string                `json:"token"`
	Tuple    Tuple                 `json:"tuple"`
	Score    common.HighlightLevel `json:"score"`
	Flag     common.Flag           `json:"flag,omitempty"`
}

// TaggedToken is a word of a tagged sentence, written word/ROLE.
type TaggedToken struct {
	Word string `json:"word"`
	Role string `json:"role"`
}

type LexiconEntry struct {
	Word   string  `json:"word"`
	Role   string  `json:"role"`
	Weight float64 `json:"weight"`
}
