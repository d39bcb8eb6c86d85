package verse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "w" + strings.Repeat("x", i%3) + string(rune('a'+i%26))
	}
	return out
}

func TestChunkCoverageAndCount(t *testing.T) {
	for n := 1; n <= 40; n++ {
		for _, budget := range []int{1, 2, 3, 5, 8, 13} {
			tokens := words(n)
			fragments := Chunk(tokens, budget)

			require.Len(t, fragments, min(n, budget), "n=%d budget=%d", n, budget)
			assert.Equal(t, strings.Join(tokens, " "), strings.Join(fragments, " "), "n=%d budget=%d", n, budget)

			// Sizes are non-increasing and differ by at most one.
			sizes := make([]int, len(fragments))
			for i, f := range fragments {
				sizes[i] = len(Tokenize(f))
			}
			for i := 1; i < len(sizes); i++ {
				assert.LessOrEqual(t, sizes[i], sizes[i-1], "n=%d budget=%d sizes=%v", n, budget, sizes)
			}
			assert.LessOrEqual(t, sizes[0]-sizes[len(sizes)-1], 1, "n=%d budget=%d sizes=%v", n, budget, sizes)
		}
	}
}

func TestChunkExamples(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		max    int
		expect []string
	}{
		{
			name:   "fewer tokens than budget",
			text:   "Jesus wept",
			max:    8,
			expect: []string{"Jesus", "wept"},
		},
		{
			name:   "remainder goes to leading fragments",
			text:   "a b c d e f g h i j",
			max:    4,
			expect: []string{"a b c", "d e f", "g h", "i j"},
		},
		{
			name:   "non-positive budget means one fragment",
			text:   "a b c",
			max:    0,
			expect: []string{"a b c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Chunk(Tokenize(tt.text), tt.max))
		})
	}
}

func TestChunkEmpty(t *testing.T) {
	assert.Empty(t, Chunk(nil, 8))
	assert.Empty(t, Chunk(Tokenize("   \t\n"), 8))
}
