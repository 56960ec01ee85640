package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for values the core cannot work with.
func (c *QalamConfig) Validate() error {
	var errs []error

	switch c.Store {
	case "sqlite", "bleve":
	default:
		errs = append(errs, fmt.Errorf("store: unknown store %q", c.Store))
	}

	if c.Dictionary.MinimumWordLength < 1 {
		errs = append(errs, fmt.Errorf("dictionary.minimum_word_length must be at least 1, got %d", c.Dictionary.MinimumWordLength))
	}
	if !validPolicy(c.Dictionary.DigestPolicy) {
		errs = append(errs, fmt.Errorf("dictionary.digest_policy: unknown policy %q", c.Dictionary.DigestPolicy))
	}
	if !validPolicy(c.Grammar.AnalyzePolicy) {
		errs = append(errs, fmt.Errorf("grammar.analyze_policy: unknown policy %q", c.Grammar.AnalyzePolicy))
	}
	if c.Dictionary.Name == "" {
		errs = append(errs, errors.New("dictionary.name is required"))
	}

	if c.Spell.MaxEditDistance < 0 || c.Spell.MaxEditDistance > 3 {
		errs = append(errs, fmt.Errorf("spell.max_edit_distance must be within 0..3, got %d", c.Spell.MaxEditDistance))
	}
	if c.Spell.Depth < 1 || c.Spell.Depth > 3 {
		errs = append(errs, fmt.Errorf("spell.depth must be within 1..3, got %d", c.Spell.Depth))
	}
	if c.Tasks.Workers < 1 {
		errs = append(errs, fmt.Errorf("tasks.workers must be positive, got %d", c.Tasks.Workers))
	}
	if c.Grammar.CacheTTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("grammar.cache_ttl_seconds must not be negative"))
	}

	seen := make(map[string]bool)
	for _, corpus := range c.Corpora {
		if corpus.Name == "" || corpus.DataFile == "" {
			errs = append(errs, fmt.Errorf("corpora: name and data_file are required"))
			continue
		}
		if seen[corpus.Name] {
			errs = append(errs, fmt.Errorf("corpora: duplicate corpus %q", corpus.Name))
		}
		seen[corpus.Name] = true
	}

	return errors.Join(errs...)
}

func validPolicy(p string) bool {
	return p == "drop" || p == "coalesce"
}
