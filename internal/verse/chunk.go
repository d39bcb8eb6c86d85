// Package verse turns verse text into orderable fragments and judges
// reassembled fragment sequences.
package verse

import "strings"

// DefaultMaxFragments is the fragment budget used when none is configured
const DefaultMaxFragments = 8

// Tokenize splits text on runs of whitespace
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// Chunk splits tokens into at most maxFragments contiguous fragments of
// near-equal size. The first len(tokens)%n fragments carry one extra token.
// Joining the result with single spaces reproduces the tokens.
func Chunk(tokens []string, maxFragments int) []string {
	if len(tokens) == 0 {
		return nil
	}
	if maxFragments < 1 {
		maxFragments = 1
	}

	n := min(len(tokens), maxFragments)
	base, rem := len(tokens)/n, len(tokens)%n

	fragments := make([]string, 0, n)
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		fragments = append(fragments, strings.Join(tokens[start:start+size], " "))
		start += size
	}
	return fragments
}
