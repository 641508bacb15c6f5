package entity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tarsy-recall/recall-core/pkg/recallconfig"
)

type fakeSemanticValidator struct {
	raw string
	err error
}

func (f *fakeSemanticValidator) ValidateAndSupplement(ctx context.Context, message string, candidates []string) (string, error) {
	return f.raw, f.err
}

func TestExtract_SemanticChannelDisabledByDefault(t *testing.T) {
	cfg := recallconfig.Defaults()
	stat := NewStatisticalExtractor(cfg)
	res := Extract(context.Background(), cfg, stat, 1000, "node-7 down", &fakeSemanticValidator{raw: `{"add":["node-7"]}`})
	assert.Empty(t, res.Sem)
	assert.Equal(t, res.Stat, res.StatValidated)
}

func TestExtract_SemanticChannelSuppliesMissingEntity(t *testing.T) {
	cfg := recallconfig.Defaults()
	cfg.EnableSemanticChannel = true
	cfg.SemanticTriggerMinEntities = 1
	stat := NewStatisticalExtractor(cfg)
	res := Extract(context.Background(), cfg, stat, 1000, "peer node-7 unreachable", &fakeSemanticValidator{raw: `{"add":[{"value":"node-7"}]}`})
	assert.Contains(t, res.Sem, "node-7")
	assert.Contains(t, res.Final, "node-7")
}

func TestExtract_FinalExcludesBlacklisted(t *testing.T) {
	cfg := recallconfig.Defaults()
	cfg.EnableSemanticChannel = true
	stat := NewStatisticalExtractor(cfg)
	res := Extract(context.Background(), cfg, stat, 1000, "connect to 127.0.0.1 failed", &fakeSemanticValidator{raw: `{"add":[{"value":"127.0.0.1"}]}`})
	assert.NotContains(t, res.Final, "127.0.0.1")
}

func TestSortedKeys(t *testing.T) {
	set := map[string]struct{}{"b": {}, "a": {}}
	assert.Equal(t, []string{"a", "b"}, SortedKeys(set))
}
