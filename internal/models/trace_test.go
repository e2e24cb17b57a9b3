package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceOrderingAndAccessors(t *testing.T) {
	tr := NewTrace()
	tr.AppendOutput([]byte("Q1: What is 2+2?\n"))
	tr.AppendInput([]byte("4\n"))
	tr.AppendOutput([]byte("Correct!\n"))
	tr.AppendExit(0)

	events := tr.Events()
	require.Len(t, events, 4)
	assert.Equal(t, EventOutput, events[0].Kind)
	assert.Equal(t, EventInput, events[1].Kind)
	assert.Equal(t, EventOutput, events[2].Kind)
	assert.Equal(t, EventExit, events[3].Kind)
	assert.Equal(t, 0, events[3].ExitCode)

	// Timestamps never run backwards.
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].At.Before(events[i-1].At))
	}

	assert.Equal(t, "Q1: What is 2+2?\nCorrect!\n", tr.Output())
	assert.Equal(t, [][]byte{[]byte("4\n")}, tr.Inputs())
}

func TestTraceTail(t *testing.T) {
	tr := NewTrace()
	tr.AppendOutput([]byte("abcdefgh"))

	assert.Equal(t, "fgh", tr.Tail(3))
	assert.Equal(t, "abcdefgh", tr.Tail(100))
}

func TestTraceEventsSnapshot(t *testing.T) {
	tr := NewTrace()
	tr.AppendOutput([]byte("a"))
	events := tr.Events()
	tr.AppendOutput([]byte("b"))

	assert.Len(t, events, 1)
	assert.Len(t, tr.Events(), 2)
}
