package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateBurstDetector_NeverFiresOnFirstObservation(t *testing.T) {
	b := NewTemplateBurstDetector(300, 0.5, 3.0)
	assert.False(t, b.PushAndCheck(1000, "conn reset from <ip>"))
}

func TestTemplateBurstDetector_EmptyKeyNeverFires(t *testing.T) {
	b := NewTemplateBurstDetector(300, 0.5, 3.0)
	assert.False(t, b.PushAndCheck(1000, ""))
}

func TestTemplateBurstDetector_FiresOnSustainedSpike(t *testing.T) {
	b := NewTemplateBurstDetector(300, 0.3, 3.0)
	fired := false
	for i := 0; i < 10; i++ {
		fired = b.PushAndCheck(int64(1000+i), "conn reset from <ip>") || fired
	}
	assert.True(t, fired, "expected a sustained run of identical arrivals to eventually trip the burst gate")
}

func TestTemplateBurstDetector_IndependentPerKey(t *testing.T) {
	b := NewTemplateBurstDetector(300, 0.3, 3.0)
	for i := 0; i < 10; i++ {
		b.PushAndCheck(int64(1000+i), "key-a")
	}
	// A brand-new key sharing the same arrival queue still gets its own
	// uninitialized EMA and never fires on its first observation.
	assert.False(t, b.PushAndCheck(1010, "key-b"))
}
