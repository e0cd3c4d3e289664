// Package moderation censors listed words in chat text.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator masks dictionary words, matching case-insensitively through
// punctuation, spacing and common leet substitutions.
type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// mapping pairs the normalized runes of a text with their original positions.
type mapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the automaton. Words that normalize to nothing are
// ignored; with no usable word the moderator leaves text unchanged.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		if p := normalizeRunes([]rune(w)); len(p) > 0 {
			patterns = append(patterns, p)
		}
	}
	m := &Moderator{replacement: replacement}
	if len(patterns) == 0 {
		return m, nil
	}
	m.matcher = new(goahocorasick.Machine)
	if err := m.matcher.Build(patterns); err != nil {
		return nil, err
	}
	return m, nil
}

// Censor replaces every matched span rune for rune, keeping the noise
// characters inside the span masked as well.
func (m *Moderator) Censor(text string) string {
	if m == nil || m.matcher == nil || text == "" {
		return text
	}
	mp := normalize(text)
	if len(mp.normalized) == 0 {
		return text
	}
	terms := m.matcher.MultiPatternSearch(mp.normalized, false)
	if len(terms) == 0 {
		return text
	}

	orig := []rune(text)
	for _, term := range terms {
		start, end := term.Pos, term.Pos+len(term.Word)
		if start < 0 || end > len(mp.origIdx) {
			continue
		}
		for i := mp.origIdx[start]; i <= mp.origIdx[end-1]; i++ {
			orig[i] = m.replacement
		}
	}
	return string(orig)
}

func normalize(text string) mapping {
	runes := []rune(text)
	mp := mapping{
		normalized: make([]rune, 0, len(runes)),
		origIdx:    make([]int, 0, len(runes)),
	}
	for i, r := range runes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		mp.normalized = append(mp.normalized, unicode.ToLower(clean))
		mp.origIdx = append(mp.origIdx, i)
	}
	return mp
}

func normalizeRunes(in []rune) []rune {
	out := make([]rune, 0, len(in))
	for _, r := range in {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
