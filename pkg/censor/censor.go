// Package censor flags messages that contain banned vocabulary.

// Important notice: test data in this package contains placeholder "banned" words chosen to
// exercise the matching rules. They are technical fixtures only.
package censor

import (
	"errors"

	"moderation/pkg/canon"
	"moderation/pkg/lexicon"
)

// ErrNotReady is returned while the lexicon has not been loaded. The verdict is then
// indeterminate and callers must block or defer whatever depends on it.
var ErrNotReady = errors.New("censor: lexicon not loaded")

// Match describes the first banned token found in a message.
type Match struct {
	Token     string
	Canonical string
	Entry     lexicon.Entry
}

type Censor struct {
	store *lexicon.Store
}

// New returns a Censor reading patterns from store.
func New(store *lexicon.Store) *Censor {
	return &Censor{store: store}
}

// Ready reports whether the lexicon has been loaded and verdicts can be trusted.
func (c *Censor) Ready() bool {
	return c.store.Ready()
}

// Check reports whether text contains a banned word. It returns ErrNotReady before the lexicon
// has been loaded.
func (c *Censor) Check(text string) (bool, error) {
	_, found, err := c.Match(text)
	return found, err
}

// Match scans text token by token and returns the first token whose canonical form satisfies
// any compiled pattern. Tokens are whitespace-delimited, so neighbouring words are never joined
// into a banned root.
func (c *Censor) Match(text string) (Match, bool, error) {
	set, ok := c.store.Current()
	if !ok {
		return Match{}, false, ErrNotReady
	}
	if set.Len() == 0 {
		return Match{}, false, nil
	}

	for _, tok := range canon.Tokenize(text) {
		ct := canon.Canonicalize(tok)
		if ct == "" {
			continue
		}
		if p, ok := set.Find(ct); ok {
			return Match{Token: tok, Canonical: ct, Entry: p.Entry}, true, nil
		}
	}

	return Match{}, false, nil
}
