package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tarsy-recall/recall-core/pkg/recallconfig"
)

func TestSeverityLevel_Cascade(t *testing.T) {
	cfg := recallconfig.Defaults()
	assert.Equal(t, SeverityFatal, SeverityLevel(cfg, "kernel panic detected"))
	assert.Equal(t, SeverityError, SeverityLevel(cfg, "connection error on retry"))
	assert.Equal(t, SeverityWarn, SeverityLevel(cfg, "disk usage warning"))
	assert.Equal(t, SeverityNone, SeverityLevel(cfg, "heartbeat ok"))
}

func TestEngine_SeverityTriggerFiresOnKeyword(t *testing.T) {
	cfg := recallconfig.Defaults()
	e := NewEngine(cfg)
	d := e.Check(1000, "FATAL exception in worker")
	assert.True(t, d.Triggered)
	assert.Equal(t, "severity", d.By)
}

func TestEngine_BurstTriggerFiresOnSustainedSpike(t *testing.T) {
	cfg := recallconfig.Defaults()
	cfg.EnableSeverityTrigger = false
	cfg.BurstSigma = 2.0
	e := NewEngine(cfg)
	var last Decision
	for i := 0; i < 40; i++ {
		last = e.Check(int64(1000+i), "heartbeat node-7 ok")
	}
	for i := 0; i < 30; i++ {
		last = e.Check(int64(1040+i), "heartbeat node-7 ok")
	}
	assert.True(t, last.Triggered)
	assert.Equal(t, "burst", last.By)
}

func TestEngine_NoTriggerWhenBothDisabled(t *testing.T) {
	cfg := recallconfig.Defaults()
	cfg.EnableSeverityTrigger = false
	cfg.EnableBurstTrigger = false
	e := NewEngine(cfg)
	d := e.Check(1000, "FATAL exception")
	assert.False(t, d.Triggered)
	assert.Equal(t, "none", d.By)
}
