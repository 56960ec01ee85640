package dictionary

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mahesh-hegde/qalam/app/common"
)

type RealignReport struct {
	Groups  int `json:"groups"`
	Merged  int `json:"merged"`
	Deleted int `json:"deleted"`
}

func foldKey(w *Word) Key {
	fold := func(s string) string {
		return common.BareArabic(strings.ToLower(s))
	}
	return Key{Text: fold(w.Text), Previous: fold(w.Previous)}
}

// Realign cleans up the persisted store directly, bypassing any loaded
// Dictionary. Bigrams whose words differ only in diacritics or letter case
// are merged into the most frequent spelling, and bigrams whose word is too
// short to be learned are deleted. Loaded dictionaries must be reloaded
// afterwards.
func Realign(ctx context.Context, store WordStore, minLen int, dryRun bool) (RealignReport, error) {
	words, err := store.LoadAll(ctx)
	if err != nil {
		return RealignReport{}, err
	}

	var report RealignReport
	var tooShort []int64
	groups := make(map[Key][]Word)
	for i := range words {
		w := &words[i]
		if utf8.RuneCountInString(w.Text) < minLen+1 {
			tooShort = append(tooShort, w.ID)
			continue
		}
		k := foldKey(w)
		groups[k] = append(groups[k], *w)
	}

	keys := make([]Key, 0, len(groups))
	for k, g := range groups {
		if len(g) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Text != keys[j].Text {
			return keys[i].Text < keys[j].Text
		}
		return keys[i].Previous < keys[j].Previous
	})

	for _, k := range keys {
		g := groups[k]
		sort.Slice(g, func(i, j int) bool {
			if g[i].Count != g[j].Count {
				return g[i].Count > g[j].Count
			}
			return g[i].ID < g[j].ID
		})
		drop := make([]int64, 0, len(g)-1)
		for _, w := range g[1:] {
			drop = append(drop, w.ID)
		}
		slog.Info("merging bigrams", "keep", g[0].Text, "previous", g[0].Previous, "dropped", len(drop))
		if !dryRun {
			if err := store.Merge(ctx, g[0].ID, drop); err != nil {
				return report, fmt.Errorf("merging into %d: %w", g[0].ID, err)
			}
		}
		report.Groups++
		report.Merged += len(drop)
	}

	if len(tooShort) > 0 {
		slog.Info("deleting short bigrams", "count", len(tooShort))
		if !dryRun {
			if err := store.Delete(ctx, tooShort); err != nil {
				return report, fmt.Errorf("deleting short bigrams: %w", err)
			}
		}
		report.Deleted = len(tooShort)
	}
	return report, nil
}
