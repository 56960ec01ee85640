package config

import (
	"github.com/mahesh-hegde/qalam/app/common"
)

// CorpusDefn is a document digested into the word dictionary when the store
// is created.
type CorpusDefn struct {
	Name     string          `json:"name"`
	Language common.Language `json:"language"`
	// Plain text (.txt) or markdown (.md), relative to the data directory.
	DataFile string `json:"data_file"`
}

type DictionaryConfig struct {
	// A name slug, also used in the task tag of digest merges.
	Name string `json:"name" env:"QALAM_DICT_NAME" env-default:"default"`
	// Length of the root prefix. Learnable words are at least one rune longer.
	MinimumWordLength int `json:"minimum_word_length" env:"QALAM_DICT_MIN_WORD_LENGTH" env-default:"3"`
	// "drop" or "coalesce", see tasks.Policy.
	DigestPolicy string `json:"digest_policy" env:"QALAM_DICT_DIGEST_POLICY" env-default:"drop"`
}

type TransliterationConfig struct {
	// Newline delimited words written in their alif maqsura form.
	ExceptionFile string `json:"exception_file" env:"QALAM_TL_EXCEPTION_FILE" env-default:"ar_dict.txt"`
	NoHarakat     bool   `json:"no_harakat" env:"QALAM_TL_NO_HARAKAT" env-default:"false"`
}

type GrammarConfig struct {
	// Tagged sentences, one per line, tokens written as word/ROLE.
	TaggedCorpusFile string `json:"tagged_corpus_file" env:"QALAM_GRAMMAR_CORPUS"`
	CacheTTLSeconds  int    `json:"cache_ttl_seconds" env:"QALAM_GRAMMAR_CACHE_TTL" env-default:"300"`
	// "drop" or "coalesce", applied to analyses requested while one runs.
	AnalyzePolicy string `json:"analyze_policy" env:"QALAM_GRAMMAR_ANALYZE_POLICY" env-default:"drop"`
}

type SpellConfig struct {
	// "word count" lines.
	FrequencyFile   string `json:"frequency_file" env:"QALAM_SPELL_FREQ_FILE"`
	MaxEditDistance int    `json:"max_edit_distance" env:"QALAM_SPELL_MAX_EDIT" env-default:"2"`
	// Edit depth of the precomputed deletion index. Larger is slower to train.
	Depth int `json:"depth" env:"QALAM_SPELL_DEPTH" env-default:"2"`
}

type TasksConfig struct {
	Workers int `json:"workers" env:"QALAM_TASK_WORKERS" env-default:"2"`
}

type LogConfig struct {
	Level  string `json:"level" env:"QALAM_LOG_LEVEL" env-default:"info"`
	Format string `json:"format" env:"QALAM_LOG_FORMAT" env-default:"text"`
}

type ServerConfig struct {
	Addr      string `json:"addr" env:"QALAM_ADDR" env-default:"localhost"`
	Port      int    `json:"port" env:"QALAM_PORT" env-default:"8765"`
	RateLimit int    `json:"rate_limit" env:"QALAM_RATE_LIMIT" env-default:"0"`
}

type QalamConfig struct {
	InstanceName string `json:"instance_name" env:"QALAM_INSTANCE_NAME" env-default:"qalam"`
	DataDir      string `json:"-" env:"-"`
	// "sqlite" or "bleve"
	Store           string                `json:"store" env:"QALAM_STORE" env-default:"sqlite"`
	Dictionary      DictionaryConfig      `json:"dictionary"`
	Transliteration TransliterationConfig `json:"transliteration"`
	Grammar         GrammarConfig         `json:"grammar"`
	Spell           SpellConfig           `json:"spell"`
	Tasks           TasksConfig           `json:"tasks"`
	Log             LogConfig             `json:"log"`
	Server          ServerConfig          `json:"server"`
	Corpora         []CorpusDefn          `json:"corpora"`
}

func (c *QalamConfig) GetCorpusByName(name string) *CorpusDefn {
	for i := range c.Corpora {
		if c.Corpora[i].Name == name {
			return &c.Corpora[i]
		}
	}
	return nil
}
