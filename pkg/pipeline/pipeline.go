// Package pipeline wires the extraction, graph, trigger, retrieval,
// evidence, and prompt stages into the per-record streaming flow (C10):
// for every ingested log it extracts entities, updates the dynamic
// graph, evaluates the trigger, and — only when triggered — retrieves
// evidence, packages it, builds a prompt, and (if a decision backend is
// wired in) parses its verdict.
package pipeline

import (
	"context"

	"github.com/tarsy-recall/recall-core/pkg/entity"
	"github.com/tarsy-recall/recall-core/pkg/evidence"
	"github.com/tarsy-recall/recall-core/pkg/graph"
	"github.com/tarsy-recall/recall-core/pkg/llm"
	"github.com/tarsy-recall/recall-core/pkg/prompt"
	"github.com/tarsy-recall/recall-core/pkg/recallconfig"
	"github.com/tarsy-recall/recall-core/pkg/retrieval"
	"github.com/tarsy-recall/recall-core/pkg/trigger"
)

// InputRecord is a single log line to ingest. LogID must be unique and
// monotonically increasing across a stream (it doubles as the graph's
// chain order key); loading records from a dataset file is left to the
// caller.
type InputRecord struct {
	LogID     int64
	TsSec     int64
	Message   string
	TrueLabel int
}

// Prediction is the decision the pipeline reached for a triggered
// record. Label/Confidence default to NORMAL/0 when no decision
// backend is wired in.
type Prediction struct {
	Label       string
	Confidence  float64
	EvidenceIDs []string
	Rationale   string
	LLMError    string
	LLMRaw      string
}

// RetrievalSummary reports how much evidence a triggered record pulled
// in, without repeating the full evidence pack.
type RetrievalSummary struct {
	EvidenceCount  int
	EvidenceLogIDs []int64
}

// OutputRecord is the fully annotated result of processing one
// InputRecord.
type OutputRecord struct {
	LogID                 int64
	Timestamp             int64
	Message               string
	TrueLabel             int
	Triggered             bool
	TriggerBy             string
	Severity              int
	EntitiesStat          []string
	EntitiesStatValidated []string
	EntitiesSem           []string
	EntitiesFinal         []string
	Prediction            Prediction
	Retrieval             *RetrievalSummary
	PromptLen             int
}

// Pipeline owns the long-lived state (graph, trigger engine, entity
// extractor) that spans a whole stream of records.
type Pipeline struct {
	cfg      *recallconfig.Config
	graph    *graph.DynamicLogEntityGraph
	stat     *entity.StatisticalExtractor
	semantic entity.SemanticValidator
	trigger  *trigger.Engine
	chat     llm.ChatBackend
}

// New builds a Pipeline bound to cfg. semantic and chat are both
// optional capabilities: pass nil to disable the semantic entity
// channel and/or the decision-model call respectively (a triggered
// record with chat == nil still runs retrieval/packaging/prompt
// building, it simply never gets a non-default Prediction).
func New(cfg *recallconfig.Config, semantic entity.SemanticValidator, chat llm.ChatBackend) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		graph:    graph.New(cfg),
		stat:     entity.NewStatisticalExtractor(cfg),
		semantic: semantic,
		trigger:  trigger.NewEngine(cfg),
		chat:     chat,
	}
}

// Process ingests one record end to end, returning its fully annotated
// OutputRecord.
func (p *Pipeline) Process(ctx context.Context, rec InputRecord) OutputRecord {
	sev := trigger.SeverityLevel(p.cfg, rec.Message)

	entRes := entity.Extract(ctx, p.cfg, p.stat, rec.TsSec, rec.Message, p.semantic)

	p.graph.AddLog(rec.LogID, rec.TsSec, rec.Message, entity.SortedKeys(entRes.Final), sev)
	p.graph.Tick(rec.TsSec)

	trig := p.trigger.Check(rec.TsSec, rec.Message)

	out := OutputRecord{
		LogID:                 rec.LogID,
		Timestamp:             rec.TsSec,
		Message:               rec.Message,
		TrueLabel:             rec.TrueLabel,
		Triggered:             trig.Triggered,
		TriggerBy:             trig.By,
		Severity:              sev,
		EntitiesStat:          entity.SortedKeys(entRes.Stat),
		EntitiesStatValidated: entity.SortedKeys(entRes.StatValidated),
		EntitiesSem:           entity.SortedKeys(entRes.Sem),
		EntitiesFinal:         entity.SortedKeys(entRes.Final),
		Prediction:            Prediction{Label: "NORMAL", Confidence: 0},
	}

	if !trig.Triggered {
		return out
	}

	evidenceItems := retrieval.DualPathRetrieve(p.cfg, p.graph, rec.LogID)
	pack, err := evidence.Build(p.cfg, p.graph, rec.LogID, evidenceItems)
	if err != nil {
		return out
	}
	bundle, err := prompt.Build(p.graph, rec.LogID, pack)
	if err != nil {
		return out
	}

	if p.chat != nil {
		raw, err := p.chat.Chat(ctx, bundle.Prompt)
		if err != nil {
			out.Prediction = Prediction{Label: "NORMAL", Confidence: 0, EvidenceIDs: []string{}, LLMError: err.Error()}
		} else {
			d := llm.ParseDecision(raw)
			out.Prediction = Prediction{
				Label:       d.Label,
				Confidence:  d.Confidence,
				EvidenceIDs: d.EvidenceIDs,
				Rationale:   d.Rationale,
				LLMError:    d.Error,
				LLMRaw:      d.Raw,
			}
		}
	}

	evidenceLogIDs := make([]int64, len(evidenceItems))
	for i, it := range evidenceItems {
		evidenceLogIDs[i] = it.LogID
	}
	out.Retrieval = &RetrievalSummary{EvidenceCount: len(evidenceItems), EvidenceLogIDs: evidenceLogIDs}
	out.PromptLen = len(bundle.Prompt)

	return out
}

// PredictedLabel maps a Prediction to the binary label used for
// comparison against OutputRecord.TrueLabel (1 = ANOMALY, 0 = NORMAL).
func PredictedLabel(p Prediction) int {
	if p.Label == "ANOMALY" {
		return 1
	}
	return 0
}
