// Package recurrence implements the sliding-window token recurrence
// counter (C2) and per-template burst detector (C3).
package recurrence

import (
	"container/list"

	"github.com/tarsy-recall/recall-core/pkg/recalltext"
)

type tokenBatch struct {
	ts     int64
	tokens map[string]struct{}
}

// TokenRecurrenceCounter tracks, for each token, how many distinct log
// entries referenced it within the last windowSec seconds.
type TokenRecurrenceCounter struct {
	windowSec int64
	queue     *list.List // of *tokenBatch, oldest first
	counts    map[string]int
}

// NewTokenRecurrenceCounter creates a counter over a windowSec-second
// sliding window. windowSec <= 0 disables eviction — all history
// accumulates forever.
func NewTokenRecurrenceCounter(windowSec int64) *TokenRecurrenceCounter {
	return &TokenRecurrenceCounter{
		windowSec: windowSec,
		queue:     list.New(),
		counts:    make(map[string]int),
	}
}

// Push records the distinct tokens seen in a log arriving at tsSec, then
// evicts batches that have aged out of the window.
func (c *TokenRecurrenceCounter) Push(tsSec int64, tokens []string) {
	unique := recalltext.UniqueTokens(tokens)
	c.queue.PushBack(&tokenBatch{ts: tsSec, tokens: unique})
	for t := range unique {
		c.counts[t]++
	}
	c.evict(tsSec)
}

func (c *TokenRecurrenceCounter) evict(nowTS int64) {
	if c.windowSec <= 0 {
		return
	}
	cutoff := nowTS - c.windowSec
	for c.queue.Len() > 0 {
		front := c.queue.Front().Value.(*tokenBatch)
		if front.ts >= cutoff {
			break
		}
		c.queue.Remove(c.queue.Front())
		for t := range front.tokens {
			c.counts[t]--
			if c.counts[t] <= 0 {
				delete(c.counts, t)
			}
		}
	}
}

// RF returns the current recurrence count for token.
func (c *TokenRecurrenceCounter) RF(token string) int {
	return c.counts[token]
}
