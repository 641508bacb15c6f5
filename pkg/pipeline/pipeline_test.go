package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarsy-recall/recall-core/pkg/recallconfig"
)

type stubChat struct {
	response string
	err      error
}

func (s *stubChat) Chat(ctx context.Context, prompt string) (string, error) {
	return s.response, s.err
}

func TestProcess_UntriggeredRecordSkipsRetrieval(t *testing.T) {
	cfg := recallconfig.Defaults()
	p := New(cfg, nil, nil)
	out := p.Process(context.Background(), InputRecord{LogID: 1, TsSec: 1000, Message: "heartbeat ok", TrueLabel: 0})
	assert.False(t, out.Triggered)
	assert.Nil(t, out.Retrieval)
	assert.Equal(t, "NORMAL", out.Prediction.Label)
}

func TestProcess_SeverityTriggerRunsRetrievalWithoutChatBackend(t *testing.T) {
	cfg := recallconfig.Defaults()
	p := New(cfg, nil, nil)
	out := p.Process(context.Background(), InputRecord{LogID: 1, TsSec: 1000, Message: "FATAL exception in worker", TrueLabel: 1})
	require.True(t, out.Triggered)
	assert.Equal(t, "severity", out.TriggerBy)
	require.NotNil(t, out.Retrieval)
	assert.Equal(t, "NORMAL", out.Prediction.Label) // no backend wired, defaults hold
	assert.Greater(t, out.PromptLen, 0)
}

func TestProcess_ChatBackendDrivesDecision(t *testing.T) {
	cfg := recallconfig.Defaults()
	chat := &stubChat{response: `{"label": "ANOMALY", "confidence": 0.9, "evidence_ids": ["L1"], "rationale": "recurring fault"}`}
	p := New(cfg, nil, chat)
	out := p.Process(context.Background(), InputRecord{LogID: 1, TsSec: 1000, Message: "FATAL exception in worker", TrueLabel: 1})
	require.True(t, out.Triggered)
	assert.Equal(t, "ANOMALY", out.Prediction.Label)
	assert.Equal(t, 0.9, out.Prediction.Confidence)
	assert.Equal(t, []string{"L1"}, out.Prediction.EvidenceIDs)
	assert.Equal(t, 1, PredictedLabel(out.Prediction))
}

func TestPredictedLabel_DefaultsToZero(t *testing.T) {
	assert.Equal(t, 0, PredictedLabel(Prediction{Label: "NORMAL"}))
	assert.Equal(t, 1, PredictedLabel(Prediction{Label: "ANOMALY"}))
}

func TestProcess_EntitiesFinalExcludesBlacklisted(t *testing.T) {
	cfg := recallconfig.Defaults()
	p := New(cfg, nil, nil)
	out := p.Process(context.Background(), InputRecord{LogID: 1, TsSec: 1000, Message: "connect to 127.0.0.1 failed", TrueLabel: 0})
	assert.NotContains(t, out.EntitiesFinal, "127.0.0.1")
}
