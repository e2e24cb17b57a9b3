package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactFind(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		buf     string
		wantEnd int
		wantOK  bool
	}{
		{"simple hit", "Q1: What is 2+2?", "Welcome!\nQ1: What is 2+2?\n", 25, true},
		{"miss", "Q2", "Q1: What is 2+2?\n", 0, false},
		{"empty buffer", "ready>", "", 0, false},
		{"earliest occurrence wins", "ready>", "ready>\nready>\n", 6, true},
		{"match at end of buffer", "Enter a word:", "Triple: 15\nEnter a word:", 24, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, ok := Exact(tt.pattern).Find([]byte(tt.buf))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantEnd, end)
			}
		})
	}
}

// A prompt that is a strict prefix of a later prompt must match at its
// earliest complete occurrence, not the longest.
func TestExactFindPrefixPrompt(t *testing.T) {
	buf := []byte("Enter: more\nEnter: even more\n")
	end, ok := Exact("Enter:").Find(buf)
	require.True(t, ok)
	assert.Equal(t, len("Enter:"), end)

	// Consuming through the first match leaves the second visible.
	end2, ok := Exact("Enter:").Find(buf[end:])
	require.True(t, ok)
	assert.Equal(t, len(" more\nEnter:"), end2)
}

func TestWildcardFind(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		buf     string
		wantOK  bool
	}{
		{"spans lines", "Hello, *!", "Hello, Ada!\n", true},
		{"multiple segments", "Double: *Triple: ", "Double: 10\nTriple: 15\n", true},
		{"segments out of order", "Triple*Double", "Double: 10\nTriple: 15\n", false},
		{"missing segment", "score: */3", "no score here", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Wildcard(tt.pattern).Find([]byte(tt.buf))
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestWildcardFindEnd(t *testing.T) {
	end, ok := Wildcard("Final score: */3").Find([]byte("...\nFinal score: 3/3\n"))
	require.True(t, ok)
	assert.Equal(t, len("...\nFinal score: 3/3"), end)
}

func TestZeroPatternMatchesNothing(t *testing.T) {
	_, ok := Pattern{}.Find([]byte("anything"))
	assert.False(t, ok)
}

// A wildcard pattern with no literal segment observes nothing and must not
// succeed instantly against arbitrary (or empty) output.
func TestWildcardNeedsLiteralSegment(t *testing.T) {
	_, ok := Wildcard("*").Find([]byte("anything"))
	assert.False(t, ok)

	_, ok = Wildcard("**").Find([]byte("anything"))
	assert.False(t, ok)

	_, ok = Wildcard("*").Find(nil)
	assert.False(t, ok)
}

// Replays the staggered fixture's output to show why the cursor must advance
// only past matched text. A consume-everything policy eats the trailing
// bytes that belong to the next prompt when output arrives in one chunk.
func TestCursorPolicyOnStaggeredTranscript(t *testing.T) {
	// After sending "5", the fixture can emit all of this in a single chunk.
	chunk := []byte("Double: 10\nTriple: 15\nEnter a word:\n")

	end, ok := Exact("Triple: 15").Find(chunk)
	require.True(t, ok)

	// Cursor policy: the unmatched suffix stays visible for the next step.
	_, ok = Exact("Enter a word:").Find(chunk[end:])
	assert.True(t, ok, "unmatched suffix must satisfy the next expect step")

	// Naive policy: consuming the whole chunk after a match loses the prompt.
	naiveRemainder := chunk[len(chunk):]
	_, ok = Exact("Enter a word:").Find(naiveRemainder)
	assert.False(t, ok, "consume-everything policy desynchronizes the conversation")
}
