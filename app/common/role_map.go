package common

// HighlightLevel is the small ordinal a grammar solution is reduced to
// before the editor picks a color.
type HighlightLevel int

const (
	HighlightUnseen HighlightLevel = iota
	HighlightWeak
	HighlightPlausible
	HighlightStrong
)

// Flag marks a token for something other than its grammar score.
type Flag string

const (
	FlagNone     Flag = ""
	FlagSpelling Flag = "spelling"
	FlagCrossRef Flag = "crossref"
)

type RoleTagStyle struct {
	ReadableName string
	ArabicName   string
	FrenchName   string
}

var HighlightColors = map[HighlightLevel]string{
	HighlightUnseen:    "#f8d7da",
	HighlightWeak:      "#fff3cd",
	HighlightPlausible: "#cff4fc",
	HighlightStrong:    "",
}

var FlagColors = map[Flag]string{
	FlagSpelling: "#dc3545",
	FlagCrossRef: "#0d6efd",
}

// Sentinel roles bracketing a paragraph and the role of unknown tokens.
const (
	RoleStart   = "^"
	RoleEnd     = "$"
	RoleUnknown = "UNK"
)

var RoleTags = map[string]RoleTagStyle{
	"NOUN": {ReadableName: "noun", ArabicName: "اسم", FrenchName: "nom"},
	"VERB": {ReadableName: "verb", ArabicName: "فعل", FrenchName: "verbe"},
	"PART": {ReadableName: "particle", ArabicName: "حرف", FrenchName: "particule"},
	"PREP": {ReadableName: "preposition", ArabicName: "حرف جر", FrenchName: "préposition"},
	"CONJ": {ReadableName: "conjunction", ArabicName: "حرف عطف", FrenchName: "conjonction"},
	"PRON": {ReadableName: "pronoun", ArabicName: "ضمير", FrenchName: "pronom"},
	"DET":  {ReadableName: "determiner", ArabicName: "أداة تعريف", FrenchName: "déterminant"},
	"ADJ":  {ReadableName: "adjective", ArabicName: "صفة", FrenchName: "adjectif"},
	"ADV":  {ReadableName: "adverb", ArabicName: "ظرف", FrenchName: "adverbe"},
	"NAME": {ReadableName: "proper name", ArabicName: "علم", FrenchName: "nom propre"},
	"NUM":  {ReadableName: "number", ArabicName: "عدد", FrenchName: "nombre"},

	RoleUnknown: {ReadableName: "unknown", ArabicName: "مجهول", FrenchName: "inconnu"},
}
