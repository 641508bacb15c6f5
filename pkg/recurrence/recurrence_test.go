package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenRecurrenceCounter_CountsDistinctLogs(t *testing.T) {
	c := NewTokenRecurrenceCounter(300)
	c.Push(1000, []string{"a", "b", "a"})
	c.Push(1010, []string{"a", "c"})
	assert.Equal(t, 2, c.RF("a"))
	assert.Equal(t, 1, c.RF("b"))
	assert.Equal(t, 1, c.RF("c"))
	assert.Equal(t, 0, c.RF("nope"))
}

func TestTokenRecurrenceCounter_EvictsOutsideWindow(t *testing.T) {
	c := NewTokenRecurrenceCounter(100)
	c.Push(1000, []string{"a"})
	c.Push(1050, []string{"a"})
	assert.Equal(t, 2, c.RF("a"))
	c.Push(1150, []string{"b"}) // evicts the ts=1000 batch (cutoff=1050)
	assert.Equal(t, 1, c.RF("a"))
}

func TestTokenRecurrenceCounter_DisabledEviction(t *testing.T) {
	c := NewTokenRecurrenceCounter(0)
	c.Push(0, []string{"a"})
	c.Push(1_000_000, []string{"b"})
	assert.Equal(t, 1, c.RF("a"))
}
