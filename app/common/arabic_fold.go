package common

import (
	"regexp"
	"strings"
)

// Short vowel marks: tanwin (fathatan, dammatan, kasratan), fatha, damma,
// kasra, sukun and the superscript alef. Shadda is not a vowel and is kept.
var harakatRe = regexp.MustCompile("[\u064B-\u0650\u0652\u0670]")

const Shadda = "\u0651"

const (
	Fatha = "\u064E"
	Damma = "\u064F"
	Kasra = "\u0650"
	Sukun = "\u0652"
)

// StripHarakat removes short vowel diacritics from s.
func StripHarakat(s string) string {
	return harakatRe.ReplaceAllString(s, "")
}

var bareReplacer = strings.NewReplacer(
	Shadda, "",
	"\u0640", "", // tatweel
)

// BareArabic strips every diacritic, shadda included, and the tatweel.
// It is the form used as a lookup key.
func BareArabic(s string) string {
	return bareReplacer.Replace(StripHarakat(s))
}
