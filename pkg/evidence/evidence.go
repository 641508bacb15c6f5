// Package evidence packages a target log and its retrieved evidence
// into the two artifacts the prompt builder (C9) composes from: a
// plain-text TextPack and a JSON GraphPack describing the log/entity
// subgraph around the trigger.
package evidence

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tarsy-recall/recall-core/pkg/entity"
	"github.com/tarsy-recall/recall-core/pkg/graph"
	"github.com/tarsy-recall/recall-core/pkg/recallconfig"
	"github.com/tarsy-recall/recall-core/pkg/retrieval"
)

// ErrTargetNotResident is returned when targetLogID is no longer
// present in the graph, e.g. evicted between the trigger check and
// packaging.
var ErrTargetNotResident = errors.New("evidence: target log is not resident in the graph")

// maxSummarySentences bounds the GraphPack's prose summary so the
// prompt stays a predictable size even around high-fanout entities.
const maxSummarySentences = 50

// Pack bundles the rendered evidence artifacts with the local ID maps
// used to cross-reference them (and, later, to resolve the model's
// evidence_ids back to real log IDs).
type Pack struct {
	TextPack      string
	GraphPackJSON string
	IDMapLogs     map[int64]string
	IDMapEntities map[string]string
}

type graphNode struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Timestamp  *int64 `json:"timestamp,omitempty"`
	Severity   *int   `json:"severity,omitempty"`
	EntityType string `json:"entity_type,omitempty"`
	Value      string `json:"value,omitempty"`
}

type graphEdge struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

type graphPack struct {
	Nodes   []graphNode `json:"nodes"`
	Edges   []graphEdge `json:"edges"`
	Summary []string    `json:"summary"`
}

// Build assembles a Pack for targetLogID given its already-retrieved
// evidence. Returns an error if targetLogID is no longer resident in g
// (e.g. evicted between trigger check and packaging).
func Build(cfg *recallconfig.Config, g *graph.DynamicLogEntityGraph, targetLogID int64, ev []retrieval.EvidenceItem) (*Pack, error) {
	tgt := g.GetLog(targetLogID)
	if tgt == nil {
		return nil, fmt.Errorf("%w: %d", ErrTargetNotResident, targetLogID)
	}

	idMapLogs := map[int64]string{targetLogID: "L0"}
	for i, it := range ev {
		idMapLogs[it.LogID] = fmt.Sprintf("L%d", i+1)
	}

	entSet := make(map[string]struct{})
	for lid := range idMapLogs {
		for e := range g.GetEntitiesForLog(lid) {
			entSet[e] = struct{}{}
		}
	}
	sortedEnts := make([]string, 0, len(entSet))
	for e := range entSet {
		sortedEnts = append(sortedEnts, e)
	}
	sort.Strings(sortedEnts)
	idMapEntities := make(map[string]string, len(sortedEnts))
	for i, e := range sortedEnts {
		idMapEntities[e] = fmt.Sprintf("E%d", i+1)
	}

	orderedLogIDs := make([]int64, 0, len(ev)+1)
	orderedLogIDs = append(orderedLogIDs, targetLogID)
	for _, it := range ev {
		orderedLogIDs = append(orderedLogIDs, it.LogID)
	}

	textPack := buildTextPack(g, idMapLogs, ev)
	graphPackJSON, err := buildGraphPackJSON(cfg, g, targetLogID, tgt, ev, orderedLogIDs, idMapLogs, idMapEntities)
	if err != nil {
		return nil, err
	}

	return &Pack{
		TextPack:      textPack,
		GraphPackJSON: graphPackJSON,
		IDMapLogs:     idMapLogs,
		IDMapEntities: idMapEntities,
	}, nil
}

func buildTextPack(g *graph.DynamicLogEntityGraph, idMapLogs map[int64]string, ev []retrieval.EvidenceItem) string {
	lines := []string{"=== TEXT EVIDENCE (TextPack) ==="}
	for _, it := range ev {
		ln := g.GetLog(it.LogID)
		if ln == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: ts=%s severity=%d %s", idMapLogs[it.LogID], strconv.FormatInt(ln.TsSec, 10), ln.Severity, ln.Message))
	}
	return strings.Join(lines, "\n")
}

func buildGraphPackJSON(cfg *recallconfig.Config, g *graph.DynamicLogEntityGraph, targetLogID int64, tgt *graph.LogNode, ev []retrieval.EvidenceItem, orderedLogIDs []int64, idMapLogs map[int64]string, idMapEntities map[string]string) (string, error) {
	nowTs := tgt.TsSec

	var nodes []graphNode
	for _, lid := range orderedLogIDs {
		ln := g.GetLog(lid)
		if ln == nil {
			continue
		}
		ts := ln.TsSec
		sev := ln.Severity
		nodes = append(nodes, graphNode{ID: idMapLogs[lid], Type: "log", Timestamp: &ts, Severity: &sev})
	}
	entOrder := make([]string, 0, len(idMapEntities))
	for e := range idMapEntities {
		entOrder = append(entOrder, e)
	}
	sort.Slice(entOrder, func(i, j int) bool { return idMapEntities[entOrder[i]] < idMapEntities[entOrder[j]] })
	for _, e := range entOrder {
		nodes = append(nodes, graphNode{ID: idMapEntities[e], Type: "entity", EntityType: string(entity.Classify(e)), Value: e})
	}

	var edges []graphEdge
	relID := 1
	for _, lid := range orderedLogIDs {
		ents := g.GetEntitiesForLog(lid)
		sorted := make([]string, 0, len(ents))
		for e := range ents {
			sorted = append(sorted, e)
		}
		sort.Strings(sorted)
		for _, e := range sorted {
			eid, ok := idMapEntities[e]
			if !ok {
				continue
			}
			w := g.StructuralEdgeWeight(lid, nowTs)
			if w < cfg.ThetaW {
				continue
			}
			edges = append(edges, graphEdge{ID: fmt.Sprintf("R%d", relID), Type: "struct", Source: idMapLogs[lid], Target: eid, Weight: round6(w)})
			relID++
		}
	}

	selected := make(map[int64]struct{}, len(orderedLogIDs))
	for _, lid := range orderedLogIDs {
		selected[lid] = struct{}{}
	}
	for _, lid := range orderedLogIDs {
		ln := g.GetLog(lid)
		if ln == nil || ln.NextLogID == nil {
			continue
		}
		if _, ok := selected[*ln.NextLogID]; !ok {
			continue
		}
		w := g.TemporalEdgeWeight(*ln.NextLogID, nowTs)
		if w < cfg.ThetaW {
			continue
		}
		edges = append(edges, graphEdge{ID: fmt.Sprintf("R%d", relID), Type: "time", Source: idMapLogs[lid], Target: idMapLogs[*ln.NextLogID], Weight: round6(w)})
		relID++
	}

	var summary []string
	tgtEnts := g.GetEntitiesForLog(targetLogID)
	for _, it := range ev {
		itEnts := g.GetEntitiesForLog(it.LogID)
		var shared []string
		for e := range tgtEnts {
			if _, ok := itEnts[e]; ok {
				shared = append(shared, e)
			}
		}
		sort.Strings(shared)
		if len(shared) > 0 {
			ids := make([]string, 0, len(shared))
			for _, e := range shared {
				if eid, ok := idMapEntities[e]; ok {
					ids = append(ids, eid)
				}
			}
			summary = append(summary, fmt.Sprintf("%s shares entities %s with L0", idMapLogs[it.LogID], strings.Join(ids, ", ")))
		}
		if it.TimeOffset != nil {
			offset := *it.TimeOffset
			abs := offset
			if abs < 0 {
				abs = -abs
			}
			if abs <= int64(cfg.TemporalK) {
				summary = append(summary, fmt.Sprintf("%s is within K-step temporal context of L0 (offset %ds)", idMapLogs[it.LogID], offset))
			}
		}
	}
	if len(summary) > maxSummarySentences {
		summary = summary[:maxSummarySentences]
	}

	pack := graphPack{Nodes: nodes, Edges: edges, Summary: summary}
	if pack.Summary == nil {
		pack.Summary = []string{}
	}
	b, err := json.Marshal(pack)
	if err != nil {
		return "", fmt.Errorf("evidence: marshal graphpack: %w", err)
	}
	return string(b), nil
}

func round6(w float64) float64 {
	return math.Round(w*1e6) / 1e6
}
