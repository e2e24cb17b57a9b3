// Package match decides whether an expected prompt has appeared in a child
// process's accumulated output. Exact-substring matching is the default;
// script fixtures are controlled programs, not free-form terminal output.
package match

import (
	"bytes"
	"fmt"
	"strings"
)

// Pattern matches expected text against a byte buffer. The zero value
// matches nothing; construct with Exact or Wildcard.
type Pattern struct {
	text     string
	wildcard bool
}

// Exact returns a pattern that matches text as a literal substring.
func Exact(text string) Pattern {
	return Pattern{text: text}
}

// Wildcard returns a pattern where '*' matches any run of bytes, including
// newlines and the empty string. Everything else is literal. A pattern needs
// at least one literal segment; all-wildcard patterns never match.
func Wildcard(text string) Pattern {
	return Pattern{text: text, wildcard: true}
}

func (p Pattern) String() string {
	if p.wildcard {
		return fmt.Sprintf("wildcard %q", p.text)
	}
	return fmt.Sprintf("%q", p.text)
}

// Text returns the pattern's source text.
func (p Pattern) Text() string {
	return p.text
}

// Find scans buf forward for the earliest complete occurrence of the pattern
// and returns the offset just past it. Callers pass only unconsumed output,
// so a match never re-triggers on already-consumed text. When one expected
// prompt is a strict prefix of a later one, earliest-occurrence semantics
// keep the shorter match from swallowing the longer prompt's text.
func (p Pattern) Find(buf []byte) (end int, ok bool) {
	if p.text == "" {
		return 0, false
	}
	if !p.wildcard {
		i := bytes.Index(buf, []byte(p.text))
		if i < 0 {
			return 0, false
		}
		return i + len(p.text), true
	}
	return findWildcard(buf, p.text)
}

// findWildcard locates the '*'-separated segments of pattern in order,
// taking the earliest occurrence of each segment after the previous one.
func findWildcard(buf []byte, pattern string) (int, bool) {
	segs := strings.Split(pattern, "*")
	pos := 0
	matchedAny := false
	for _, seg := range segs {
		if seg == "" {
			continue
		}
		i := bytes.Index(buf[pos:], []byte(seg))
		if i < 0 {
			return 0, false
		}
		pos += i + len(seg)
		matchedAny = true
	}
	if !matchedAny {
		// All wildcards, no literal anchor: nothing to observe, no match.
		return 0, false
	}
	return pos, true
}
