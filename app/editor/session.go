package editor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/mahesh-hegde/qalam/app/common"
	"github.com/mahesh-hegde/qalam/app/dictionary"
	"github.com/mahesh-hegde/qalam/app/grammar"
	"github.com/mahesh-hegde/qalam/app/spell"
	"github.com/mahesh-hegde/qalam/app/tasks"
	"github.com/mahesh-hegde/qalam/app/transliteration"
)

var ErrSessionClosed = errors.New("editor session is closed")

// Span is what the editor sends on a keystroke: the word being typed and
// the word before it.
type Span struct {
	Text      string           `json:"text"`
	Previous  string           `json:"previous"`
	Mode      common.InputMode `json:"mode"`
	NoHarakat bool             `json:"no_harakat"`
}

// Suggestion is the answer to a keystroke. Completion is empty when the
// dictionary has nothing to offer.
type Suggestion struct {
	Text       string                    `json:"text"`
	Completion string                    `json:"completion,omitempty"`
	Warnings   []transliteration.Warning `json:"warnings,omitempty"`
}

type Stats struct {
	Dictionary    dictionary.Stats `json:"dictionary"`
	GrammarTuples int              `json:"grammar_tuples"`
	GrammarWords  int              `json:"grammar_words"`
	Exceptions    int              `json:"exceptions"`
	Annotations   int              `json:"annotations"`
}

// Deps are the engines a session drives. Corpus and Speller may be nil.
type Deps struct {
	Transliterator *transliteration.Transliterator
	Dictionary     *dictionary.Dictionary
	Corpus         *grammar.Corpus
	Speller        spell.Suggester
	Pool           *tasks.Pool
}

// Session plays the interactive thread of the editor. Every operation runs
// on its loop goroutine, which is also where background task callbacks are
// delivered, so dictionary swaps and store writes never race.
type Session struct {
	deps Deps

	requests chan func()
	quit     chan struct{}
	stopped  chan struct{}
	once     sync.Once

	// loop owned
	annotations []grammar.Annotation
}

func NewSession(deps Deps) *Session {
	s := &Session{
		deps:     deps,
		requests: make(chan func()),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Session) loop() {
	defer close(s.stopped)
	for {
		select {
		case req := <-s.requests:
			req()
		case <-s.deps.Pool.Ready():
			s.deps.Pool.RunCallbacks()
		case <-s.quit:
			return
		}
	}
}

// do runs fn on the loop and waits for it.
func (s *Session) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	req := func() {
		defer close(done)
		fn()
	}
	select {
	case s.requests <- req:
	case <-s.stopped:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) keystroke(span Span) Suggestion {
	var sug Suggestion
	prefix := span.Text
	if span.Mode != common.ModeComplete {
		res := s.deps.Transliterator.TransliterateDetailed(span.Text, span.NoHarakat)
		prefix = res.Text
		sug.Warnings = res.Warnings
	}
	sug.Text = prefix

	previous := span.Previous
	if span.Mode != common.ModeComplete && previous != "" {
		previous = s.deps.Transliterator.Transliterate(previous, span.NoHarakat)
	}
	prefix = strings.TrimSpace(prefix)
	// committed text is mostly unvowelled, so the bare form is tried first
	if completion, ok := s.deps.Dictionary.Suggest(common.BareArabic(prefix), common.BareArabic(previous)); ok {
		sug.Completion = completion
	} else if completion, ok := s.deps.Dictionary.Suggest(prefix, previous); ok {
		sug.Completion = completion
	}
	return sug
}

// Keystroke converts the typed word and looks up a completion for it.
func (s *Session) Keystroke(ctx context.Context, span Span) (Suggestion, error) {
	var sug Suggestion
	err := s.do(ctx, func() { sug = s.keystroke(span) })
	return sug, err
}

// Commit hands finished text to the dictionary and the grammar corpus. It
// reports whether the dictionary accepted the digest.
func (s *Session) Commit(ctx context.Context, text string) (bool, error) {
	var accepted bool
	err := s.do(ctx, func() {
		accepted = s.deps.Dictionary.Digest(text)
		s.analyze(text)
	})
	return accepted, err
}

func (s *Session) analyze(text string) bool {
	if s.deps.Corpus == nil {
		return false
	}
	return s.deps.Corpus.Analyze(text, func(a []grammar.Annotation) {
		s.annotations = a
	})
}

// Analyze schedules a grammar analysis of text. The result replaces the
// annotations returned by Annotations.
func (s *Session) Analyze(ctx context.Context, text string) (bool, error) {
	var accepted bool
	err := s.do(ctx, func() { accepted = s.analyze(text) })
	return accepted, err
}

// Annotations returns the result of the latest finished analysis.
func (s *Session) Annotations(ctx context.Context) ([]grammar.Annotation, error) {
	var out []grammar.Annotation
	err := s.do(ctx, func() { out = append(out, s.annotations...) })
	return out, err
}

func (s *Session) Upvote(ctx context.Context, t grammar.Tuple) error {
	if s.deps.Corpus == nil {
		return errors.New("grammar corpus is not enabled")
	}
	var upErr error
	err := s.do(ctx, func() { upErr = s.deps.Corpus.Upvote(ctx, t.X1, t.X2, t.Y, t.Z) })
	return errors.Join(err, upErr)
}

// Solve is read only and does not go through the loop.
func (s *Session) Solve(t grammar.Tuple) (grammar.Suggestions, *grammar.Solution) {
	if s.deps.Corpus == nil {
		return grammar.Suggestions{}, nil
	}
	return s.deps.Corpus.Solve(t.X1, t.X2, t.Y, t.Z), s.deps.Corpus.GetSolution(t.X1, t.X2, t.Y, t.Z)
}

// Spell looks word up in the spell dictionary, nil if there is none.
func (s *Session) Spell(word string, maxEdit int, mode spell.Mode) []spell.Suggestion {
	if s.deps.Speller == nil {
		return nil
	}
	return s.deps.Speller.Lookup(word, maxEdit, mode)
}

// AddException records a word written with alif maqsura.
func (s *Session) AddException(ctx context.Context, word string) error {
	var addErr error
	err := s.do(ctx, func() { addErr = s.deps.Transliterator.Exceptions().Append(word) })
	return errors.Join(err, addErr)
}

// Checkpoint writes the pending dictionary changes to the store.
func (s *Session) Checkpoint(ctx context.Context) error {
	var saveErr error
	err := s.do(ctx, func() { saveErr = s.deps.Dictionary.Save(ctx) })
	return errors.Join(err, saveErr)
}

// MatchWords lists the saved words matching the regular expression
// pattern, most frequent first.
func (s *Session) MatchWords(ctx context.Context, pattern string, limit int) ([]dictionary.Word, error) {
	var words []dictionary.Word
	var matchErr error
	err := s.do(ctx, func() { words, matchErr = s.deps.Dictionary.Match(ctx, pattern, limit) })
	return words, errors.Join(err, matchErr)
}

// Sync waits until every background task has finished and its callback
// ran.
func (s *Session) Sync(ctx context.Context) error {
	var waitErr error
	err := s.do(ctx, func() { waitErr = s.deps.Pool.WaitIdle(ctx) })
	return errors.Join(err, waitErr)
}

func (s *Session) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.do(ctx, func() {
		st.Dictionary = s.deps.Dictionary.Stats()
		if s.deps.Corpus != nil {
			st.GrammarTuples, st.GrammarWords = s.deps.Corpus.Size()
		}
		st.Exceptions = s.deps.Transliterator.Exceptions().Len()
		st.Annotations = len(s.annotations)
	})
	return st, err
}

// Close finishes background work, saves the dictionary and stops the loop.
func (s *Session) Close(ctx context.Context) error {
	err := s.Sync(ctx)
	if err == nil {
		err = s.Checkpoint(ctx)
	}
	s.once.Do(func() { close(s.quit) })
	<-s.stopped
	s.deps.Pool.Close()
	if err != nil {
		slog.Error("editor session closed with errors", "err", err)
	}
	return err
}
