package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSemanticValidation_KeepAddDrop(t *testing.T) {
	msg := "peer node-7 at 10.0.0.5 timed out"
	raw := `{"keep": [{"value": "node-7"}], "add": [{"value": "10.0.0.5"}], "drop": [{"value": "garbage"}]}`
	v := ParseSemanticValidation(raw, msg)
	assert.Contains(t, v.Keep, "node-7")
	assert.Contains(t, v.Add, "10.0.0.5")
	assert.Contains(t, v.Drop, "garbage")
}

func TestParseSemanticValidation_FiltersEntitiesNotInMessage(t *testing.T) {
	msg := "peer node-7 timed out"
	raw := `{"keep": [{"value": "node-99"}]}`
	v := ParseSemanticValidation(raw, msg)
	assert.Empty(t, v.Keep)
}

func TestParseSemanticValidation_IPPortLooseMatch(t *testing.T) {
	msg := "peer 10.0.0.5:443 timed out"
	raw := `{"add": [{"value": "10.0.0.5"}]}`
	v := ParseSemanticValidation(raw, msg)
	assert.Contains(t, v.Add, "10.0.0.5")
}

func TestParseSemanticValidation_EntitiesShapeIsAddOnly(t *testing.T) {
	raw := `{"entities": ["node-7"]}`
	v := ParseSemanticValidation(raw, "node-7 down")
	assert.Contains(t, v.Add, "node-7")
	assert.Empty(t, v.Keep)
}

func TestParseSemanticValidation_MalformedYieldsEmpty(t *testing.T) {
	v := ParseSemanticValidation("not json at all", "whatever")
	assert.Empty(t, v.Keep)
	assert.Empty(t, v.Add)
	assert.Empty(t, v.Drop)
}
