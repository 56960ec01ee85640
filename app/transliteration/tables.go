package transliteration

import (
	"github.com/mahesh-hegde/qalam/app/common"
)

// Hamza is the cluster for the glottal stop and the alif carrier. Its glyph
// depends on the surrounding vowels, see hamzaSeat.
const Hamza = "'"

// TaMarbuta is the cluster of the feminine ending. It is appended to words
// that end in a short "a".
const TaMarbuta = "x"

var consonants = map[string]string{
	Hamza: "ا",
	"b":   "ب",
	"t":   "ت",
	"th":  "ث",
	"j":   "ج",
	"H":   "ح",
	"7":   "ح",
	"kh":  "خ",
	"d":   "د",
	"dh":  "ذ",
	"r":   "ر",
	"z":   "ز",
	"s":   "س",
	"sh":  "ش",
	"S":   "ص",
	"D":   "ض",
	"T":   "ط",
	"Z":   "ظ",
	"`":   "ع",
	"3":   "ع",
	"gh":  "غ",
	"f":   "ف",
	"q":   "ق",
	"k":   "ك",
	"l":   "ل",
	"m":   "م",
	"n":   "ن",
	"h":   "ه",
	"w":   "و",
	"y":   "ي",
	"x":   "ة",
}

// Letters assimilating the lam of the article.
var sunLetters = map[string]bool{
	"t": true, "th": true, "d": true, "dh": true, "r": true, "z": true,
	"s": true, "sh": true, "S": true, "D": true, "T": true, "Z": true,
	"l": true, "n": true,
}

// vowels folds the accepted vowel keys to the three Arabic short vowels.
var vowels = map[rune]byte{
	'a': 'a', 'A': 'a',
	'i': 'i', 'I': 'i', 'e': 'i', 'E': 'i',
	'u': 'u', 'U': 'u', 'o': 'u', 'O': 'u',
}

var harakat = map[string]string{
	"":   "",
	"a":  common.Fatha,
	"i":  common.Kasra,
	"u":  common.Damma,
	"aa": common.Fatha + "ا",
	"ii": common.Kasra + "ي",
	"uu": common.Damma + "و",
	"ai": common.Fatha + "ي",
	"au": common.Fatha + "و",
}

var shortMarks = map[rune]string{
	'a': common.Fatha,
	'i': common.Kasra,
	'u': common.Damma,
}

var consonantTrie = buildTrieFromMap(consonants)
