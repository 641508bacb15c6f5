// Package prompt composes the evidence pack produced by package
// evidence into the final text sent to the decision model (C9).
package prompt

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tarsy-recall/recall-core/pkg/evidence"
	"github.com/tarsy-recall/recall-core/pkg/graph"
)

// ErrTargetNotResident is returned when targetLogID is no longer
// present in the graph, e.g. evicted between the trigger check and
// packaging.
var ErrTargetNotResident = errors.New("prompt: target log is not resident in the graph")

const systemPreamble = `[Task]
You are a senior site reliability engineer. Determine whether the TARGET log indicates an anomaly based on the provided evidence.

[Evidence Presentation]
- Each log entry has a unique ID (L0 is the target; L1.. are evidence logs).
- Each entity has a unique ID (E1..).
- Each relation has a unique ID (R1..).

[Output Constraint]
Return a JSON object with exactly these fields:
- label: "ANOMALY" or "NORMAL"
- confidence: a number in [0,1]
- evidence_ids: a list of evidence IDs you relied upon, e.g., ["L1","E2"]
- rationale: a brief explanation that cites the evidence IDs

[Reasoning Constraint]
Explain briefly and cite concrete evidence IDs. Do not add any extra keys or any markdown.
`

const outputSchema = `[Output Requirements]
Output ONLY valid JSON:
{
  "label": "ANOMALY" or "NORMAL",
  "confidence": 0.0-1.0,
  "evidence_ids": ["L1","L2","E1"],
  "rationale": "..."
}`

// Bundle is the fully rendered prompt plus the artifacts it was built
// from, for callers that want to log or re-inspect them.
type Bundle struct {
	Prompt        string
	TargetLogID   int64
	GraphPackJSON string
	TextPack      string
}

// Build renders the prompt for targetLogID from its evidence pack.
// Returns an error if targetLogID is no longer resident in g.
func Build(g *graph.DynamicLogEntityGraph, targetLogID int64, pack *evidence.Pack) (*Bundle, error) {
	tgt := g.GetLog(targetLogID)
	if tgt == nil {
		return nil, fmt.Errorf("%w: %d", ErrTargetNotResident, targetLogID)
	}

	target := fmt.Sprintf("=== TARGET LOG ===\nLog ID: L0\nTimestamp: %s\nSeverity: %d\nContent: %s\n",
		strconv.FormatInt(tgt.TsSec, 10), tgt.Severity, tgt.Message)

	full := systemPreamble + "\n\n" + target + "\n\n" + pack.TextPack +
		"\n\n=== TOPOLOGICAL EVIDENCE (GraphPack as JSON) ===\n" + pack.GraphPackJSON +
		"\n\n" + outputSchema

	return &Bundle{
		Prompt:        full,
		TargetLogID:   targetLogID,
		GraphPackJSON: pack.GraphPackJSON,
		TextPack:      pack.TextPack,
	}, nil
}
