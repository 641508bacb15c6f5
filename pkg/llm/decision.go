// Package llm models the pluggable decision-making capability the
// pipeline calls after packaging evidence: something that accepts a
// prompt and returns free text, from which a structured decision is
// parsed. The core never talks to a concrete inference backend
// directly — callers wire in whichever ChatBackend they have.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// ChatBackend is the capability boundary between the pipeline and
// whatever actually answers a prompt (a hosted model, a local model, a
// test double). The pipeline only ever depends on this interface.
type ChatBackend interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// Decision is the structured verdict parsed out of a ChatBackend's
// raw response.
type Decision struct {
	Label       string
	Confidence  float64
	EvidenceIDs []string
	Rationale   string
	Raw         string
	Error       string
}

type decisionJSON struct {
	Label       any `json:"label"`
	Confidence  any `json:"confidence"`
	EvidenceIDs any `json:"evidence_ids"`
	Rationale   any `json:"rationale"`
}

// ParseDecision extracts the largest {...} substring of text and
// coerces it into a Decision, tolerating a model that wraps its JSON in
// prose or markdown fences. A response with no parseable object yields
// a NORMAL/zero-confidence Decision carrying the parse error.
func ParseDecision(text string) Decision {
	raw := text
	t := strings.TrimSpace(raw)

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start < 0 || end < start {
		return Decision{Label: "NORMAL", Confidence: 0, EvidenceIDs: []string{}, Raw: raw, Error: "unparseable"}
	}

	var obj decisionJSON
	if err := json.Unmarshal([]byte(t[start:end+1]), &obj); err != nil {
		return Decision{Label: "NORMAL", Confidence: 0, EvidenceIDs: []string{}, Raw: raw, Error: err.Error()}
	}

	label := strings.ToUpper(strings.TrimSpace(asString(obj.Label, "NORMAL")))
	if label != "ANOMALY" && label != "NORMAL" {
		if strings.Contains(label, "ANOM") {
			label = "ANOMALY"
		} else {
			label = "NORMAL"
		}
	}

	conf := asFloat(obj.Confidence, 0.5)
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	return Decision{
		Label:       label,
		Confidence:  conf,
		EvidenceIDs: asStringList(obj.EvidenceIDs),
		Rationale:   asString(obj.Rationale, ""),
		Raw:         raw,
	}
}

func asString(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func asFloat(v any, def float64) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	default:
		return def
	}
}

func asStringList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
