package transliteration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahesh-hegde/qalam/app/common"
)

const (
	fatha  = common.Fatha
	kasra  = common.Kasra
	damma  = common.Damma
	shadda = common.Shadda
)

func TestTransliterator_Transliterate(t *testing.T) {
	tl := NewTransliterator(nil)

	testCases := []struct {
		name     string
		source   string
		expected string
	}{
		{"long vowel", "khaalid", "خ" + fatha + "ا" + "ل" + kasra + "د"},
		{"capitalised digraph", "Khaalid", "خ" + fatha + "ا" + "ل" + kasra + "د"},
		{"doubled consonant", "rabbii", "ر" + fatha + "ب" + shadda + kasra + "ي"},
		{"madd after sukun", "qur'aan", "ق" + damma + "ر" + "آ" + "ن"},
		{"hamza on waw after damma", "mu'min", "م" + damma + "ؤ" + "م" + kasra + "ن"},
		{"hamza on waw before long a", "su'aal", "س" + damma + "ؤ" + fatha + "ا" + "ل"},
		{"hamza on alif after sukun", "mas'alah", "م" + fatha + "س" + "أ" + fatha + "ل" + fatha + "ه"},
		{"final standalone hamza", "samaa'", "س" + fatha + "م" + fatha + "ا" + "ء"},
		{"initial kasra", "islaam", "إ" + kasra + "س" + "ل" + fatha + "ا" + "م"},
		{"initial damma", "ukht", "أ" + damma + "خ" + "ت"},
		{"initial fatha is a bare alif", "aHmad", "ا" + "ح" + "م" + fatha + "د"},
		{"initial long a is a madda", "aamin", "آ" + "م" + kasra + "ن"},
		{"medial hamza with fatha after fatha", "sa'alu", "س" + fatha + "أ" + fatha + "ل" + damma},
		{"final hamza with fatha", "jaa'a", "ج" + fatha + "ا" + "ى"},
		{"hamza with long a after fatha", "ra'aa", "ر" + fatha + "ء" + fatha + "ا"},
		{"hamza on ya after kasra", "bi'r", "ب" + kasra + "ئ" + "ر"},
		{"hamza on ya with kasra", "saa'il", "س" + fatha + "ا" + "ئ" + kasra + "ل"},
		{"hamza with damma after fatha falls back to alif", "ra'su", "ر" + fatha + "ا" + damma + "س" + damma},
		{"emphatic letters", "Sabr", "ص" + fatha + "ب" + "ر"},
		{"ayn as digit", "3ilm", "ع" + kasra + "ل" + "م"},
		{"sun letter after article", "alshams", "ال" + "ش" + shadda + fatha + "م" + "س"},
		{"moon letter after article", "alqamar", "ال" + "ق" + fatha + "م" + fatha + "ر"},
		{"lam as sun letter", "allayl", "ال" + "ل" + shadda + fatha + "ي" + "ل"},
		{"ta marbuta", "madrasa", "م" + fatha + "د" + "ر" + fatha + "س" + fatha + "ة"},
		{"ta marbuta on every word", "madrasa kabiira",
			"م" + fatha + "د" + "ر" + fatha + "س" + fatha + "ة" + " " + "ك" + fatha + "ب" + kasra + "ي" + "ر" + fatha + "ة"},
		{"two letters keep their fatha", "ma", "م" + fatha},
		{"name of God", "allah", "الله"},
		{"lillah", "lillah", "ل" + kasra + "ل" + shadda + "ه"},
		{"unvowelled lillah", "lllah", "لل" + shadda + "ه"},
		{"idiom after prefix", "walillaahi", "و" + fatha + "ل" + kasra + "ل" + shadda + "ه" + kasra},
		{"hyphen is ignored", "al-qamar", "ال" + "ق" + fatha + "م" + fatha + "ر"},
		{"words and separators", "bismi  allah", "ب" + kasra + "س" + "م" + kasra + "  " + "الله"},
		{"empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tl.Transliterate(tc.source, false))
		})
	}
}

func TestTransliterator_ArabicInputIsUntouched(t *testing.T) {
	tl := NewTransliterator(nil)

	inputs := []string{
		"بِسْمِ اللَّهِ الرَّحْمَٰنِ الرَّحِيمِ",
		"قرآن",
		" مَدْرَسَة kh",
	}
	for _, in := range inputs {
		assert.Equal(t, in, tl.Transliterate(in, false))
		assert.Equal(t, common.StripHarakat(in), tl.Transliterate(in, true))
	}
	assert.Equal(t, "بسم اللّه", tl.Transliterate("بِسْمِ اللّهِ", true))
}

func TestTransliterator_DigraphPrecedence(t *testing.T) {
	tl := NewTransliterator(nil)
	out := tl.Transliterate("khaalid", false)

	assert.True(t, strings.HasPrefix(out, "خ"))
	assert.Equal(t, 1, strings.Count(out, "خ"))
	assert.NotContains(t, out, "ك")
	assert.NotContains(t, out, "ه")
}

func TestTransliterator_Doubling(t *testing.T) {
	tl := NewTransliterator(nil)
	out := tl.Transliterate("rabbii", false)

	assert.Equal(t, 1, strings.Count(out, "ب"))
	assert.Contains(t, out, "ب"+shadda)
}

func TestTransliterator_NoHarakat(t *testing.T) {
	tl := NewTransliterator(nil)

	assert.Equal(t, "خالد", tl.Transliterate("khaalid", true))
	assert.Equal(t, "رب"+shadda+"ي", tl.Transliterate("rabbii", true))
	assert.Equal(t, "لل"+shadda+"ه", tl.Transliterate("lillah", true))
}

func TestTransliterator_Warnings(t *testing.T) {
	tl := NewTransliterator(nil)

	res := tl.TransliterateDetailed("ka?b", false)
	assert.Equal(t, "ك"+fatha+"?"+"ب", res.Text)
	assert.Equal(t, []Warning{{Index: 2, Char: "?"}}, res.Warnings)

	res = tl.TransliterateDetailed("?ab", false)
	assert.Equal(t, "?"+"ا"+"ب", res.Text)
	assert.Equal(t, []Warning{{Index: 0, Char: "?"}}, res.Warnings)

	res = tl.TransliterateDetailed("kitaab", false)
	assert.Empty(t, res.Warnings)
}

func TestTransliterator_MaqsuraExceptions(t *testing.T) {
	exc := NewExceptions()
	tl := NewTransliterator(exc)

	assert.Equal(t, "ه"+damma+"د"+fatha+"ا", tl.Transliterate("hudaa", false))

	require.NoError(t, exc.Append("هُدَى"))
	assert.Equal(t, "ه"+damma+"د"+fatha+"ى", tl.Transliterate("hudaa", false))
	assert.Equal(t, "هدى", tl.Transliterate("hudaa", true))
}

func TestExceptions_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ar_dict.txt")
	require.NoError(t, os.WriteFile(path, []byte("هدى\n\nمصطفى\n"), 0o644))

	exc := NewExceptions()
	require.NoError(t, exc.Load(path))
	assert.Equal(t, 2, exc.Len())
	assert.True(t, exc.Contains("هُدَى"))

	require.NoError(t, exc.Append("موسى"))
	require.NoError(t, exc.Append("موسى"))
	assert.Error(t, exc.Append("كتاب"))

	reloaded := NewExceptions()
	require.NoError(t, reloaded.Load(path))
	assert.Equal(t, []string{"مصطفى", "موسى", "هدى"}, reloaded.Words())
}

func TestExceptions_MissingFile(t *testing.T) {
	exc := NewExceptions()
	require.NoError(t, exc.Load(filepath.Join(t.TempDir(), "missing.txt")))
	assert.Zero(t, exc.Len())
}

func TestExplode(t *testing.T) {
	letters, warnings := Explode("khaalid wa")
	assert.Empty(t, warnings)
	assert.Equal(t, []Letter{
		{Letter: "kh", Accent: "aa", Index: 0},
		{Letter: "l", Accent: "i", Index: 1},
		{Letter: "d", Accent: "", Index: 2},
		{Letter: " ", Index: 3},
		{Letter: "w", Accent: "a", Index: 4},
	}, letters)

	letters, _ = Explode("kataba")
	require.Len(t, letters, 4)
	assert.Equal(t, TaMarbuta, letters[3].Letter)

	letters, _ = Explode("uktub")
	assert.Equal(t, Hamza, letters[0].Letter)
	assert.Equal(t, "u", letters[0].Accent)
}

func TestLetter_Same(t *testing.T) {
	a := Letter{Letter: "b", Accent: "a", Index: 1}
	b := Letter{Letter: "b", Accent: "a", Index: 7}
	c := Letter{Letter: "b", Accent: "i", Index: 1}

	assert.True(t, a.Same(b))
	assert.False(t, a.Same(c))
	assert.True(t, Letter{Letter: "\n"}.IsSeparator())
	assert.False(t, Letter{}.IsSeparator())
}
