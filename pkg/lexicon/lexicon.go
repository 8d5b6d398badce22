// Package lexicon compiles a newline-delimited banned-word list into fuzzy matchers.
//
// Each surviving entry is canonicalized and turned into a pattern that accepts every character
// of the canonical form repeated one or more times, followed by any suffix. Patterns search the
// whole canonical token, so the entry "bad" accepts "bad", "baaaad", "badness", "abad" and
// "youbad" (from "you,bad").
package lexicon

import (
	"regexp"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"moderation/pkg/canon"
)

const (
	// MinEntryLen is the shortest entry, in characters, that is compiled. Shorter entries
	// match far too many innocent words once fuzzy-matched.
	MinEntryLen = 3
	// MaxEntryLen bounds the canonical length of an entry to keep patterns small.
	MaxEntryLen = 64
)

type Entry struct {
	Raw       string
	Canonical string
}

type Pattern struct {
	Entry Entry

	re *regexp.Regexp
}

// MatchString reports whether the pattern occurs anywhere in the canonical token.
func (p Pattern) MatchString(token string) bool {
	return p.re.MatchString(token)
}

func (p Pattern) String() string {
	return p.re.String()
}

// Set is an immutable collection of compiled patterns.
type Set struct {
	patterns []Pattern
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.patterns)
}

// Patterns returns a copy of the compiled patterns.
func (s *Set) Patterns() []Pattern {
	if s == nil {
		return nil
	}
	out := make([]Pattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// Find returns the first pattern found anywhere in the canonical token.
func (s *Set) Find(token string) (Pattern, bool) {
	if s == nil || token == "" {
		return Pattern{}, false
	}
	for _, p := range s.patterns {
		if p.MatchString(token) {
			return p, true
		}
	}
	return Pattern{}, false
}

// Parse splits raw lexicon text into entries. Lines are trimmed; empty lines and lines shorter
// than MinEntryLen characters are dropped. Both "\n" and "\r\n" line endings are accepted.
func Parse(raw string) []string {
	var entries []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) < MinEntryLen {
			continue
		}
		entries = append(entries, line)
	}
	return entries
}

// Compile builds a Set from raw lexicon text. It never fails: entries that cannot produce a
// usable pattern are skipped one by one, and degenerate input yields an empty Set.
func Compile(raw string) *Set {
	lines := Parse(raw)
	set := &Set{patterns: make([]Pattern, 0, len(lines))}
	seen := make(map[string]struct{}, len(lines))

	for _, line := range lines {
		c := canon.Canonicalize(line)
		if len(c) < MinEntryLen || len(c) > MaxEntryLen {
			log.Warnf("[lexicon] skipping entry %q: canonical form %q is not %d-%d characters long",
				line, c, MinEntryLen, MaxEntryLen)
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}

		re, err := regexp.Compile(fuzzyExpr(c))
		if err != nil {
			log.Warnf("[lexicon] failed to compile pattern for entry %q: %v", line, err)
			continue
		}

		seen[c] = struct{}{}
		set.patterns = append(set.patterns, Pattern{
			Entry: Entry{Raw: line, Canonical: c},
			re:    re,
		})
	}

	log.Debugf("[lexicon] compiled %d patterns from %d entries", len(set.patterns), len(lines))
	return set
}

// fuzzyExpr turns "bad" into "b+a+d+.*".
func fuzzyExpr(canonical string) string {
	var sb strings.Builder
	sb.Grow(len(canonical)*2 + 2)
	for _, r := range canonical {
		sb.WriteString(regexp.QuoteMeta(string(r)))
		sb.WriteByte('+')
	}
	sb.WriteString(".*")
	return sb.String()
}
