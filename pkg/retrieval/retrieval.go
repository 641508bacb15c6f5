// Package retrieval implements the dual-path (temporal + structural)
// evidence retriever (C7): given a triggered log, it walks the log
// chain for temporal neighbors and the entity index for structural
// neighbors, dedups by normalized message text, scores by severity,
// distance, and edge weight, and returns a budget-capped, ranked list.
package retrieval

import (
	"math"
	"sort"

	"github.com/tarsy-recall/recall-core/pkg/graph"
	"github.com/tarsy-recall/recall-core/pkg/recallconfig"
	"github.com/tarsy-recall/recall-core/pkg/recalltext"
	"github.com/tarsy-recall/recall-core/pkg/trigger"
)

// maxChainWalk bounds the temporal-path edge-weight walk so a
// pathological chain can never make retrieval unbounded.
const maxChainWalk = 2048

const noDist = 1 << 30

// EvidenceItem is a single retrieved log entry with its retrieval
// metadata, ready for packaging into the evidence pack (C8).
type EvidenceItem struct {
	LogID          int64
	TsSec          int64
	Message        string
	Severity       int
	Dist           int
	Score          float64
	EdgeWeight     float64
	Paths          map[string]struct{}
	SharedEntities []string
	TimeOffset     *int64
}

func minDist(a, b int, hasA, hasB bool) int {
	if !hasA {
		if hasB {
			return b
		}
		return noDist
	}
	if !hasB {
		return a
	}
	if a < b {
		return a
	}
	return b
}

func temporalPathMinEdgeWeight(g *graph.DynamicLogEntityGraph, src, dst int64, nowTs int64) float64 {
	if src == dst {
		return 1.0
	}
	wMin := 1.0
	cur := dst
	visited := 0
	for cur != src && visited < maxChainWalk {
		ln := g.GetLog(cur)
		if ln == nil || ln.PrevLogID == nil {
			break
		}
		prev := *ln.PrevLogID
		w := g.TemporalEdgeWeight(cur, nowTs)
		if w < wMin {
			wMin = w
		}
		cur = prev
		visited++
	}
	if cur == src {
		return wMin
	}
	wMin = 1.0
	cur = src
	visited = 0
	for cur != dst && visited < maxChainWalk {
		ln := g.GetLog(cur)
		if ln == nil || ln.NextLogID == nil {
			break
		}
		nxt := *ln.NextLogID
		w := g.TemporalEdgeWeight(nxt, nowTs)
		if w < wMin {
			wMin = w
		}
		cur = nxt
		visited++
	}
	if cur == dst {
		return wMin
	}
	return 0.0
}

// DualPathRetrieve returns ranked, deduplicated evidence for the log
// identified by targetLogID, capped at cfg.EvidenceBudgetNmax items.
func DualPathRetrieve(cfg *recallconfig.Config, g *graph.DynamicLogEntityGraph, targetLogID int64) []EvidenceItem {
	tgt := g.GetLog(targetLogID)
	if tgt == nil {
		return nil
	}
	nowTs := tgt.TsSec

	candDistStruct := make(map[int64]int)
	sharedEntities := make(map[int64]map[string]struct{})
	for e := range g.GetEntitiesForLog(targetLogID) {
		if g.EntityDegree(e) > cfg.DegreeThresholdDmax {
			continue
		}
		for _, lid := range g.GetLogsForEntity(e) {
			if lid == targetLogID {
				continue
			}
			cur, has := candDistStruct[lid]
			candDistStruct[lid] = minDist(cur, 2, has, true)
			if sharedEntities[lid] == nil {
				sharedEntities[lid] = make(map[string]struct{})
			}
			sharedEntities[lid][e] = struct{}{}
		}
	}

	candDistTime := make(map[int64]int)
	cur := targetLogID
	for d := 1; d <= cfg.TemporalK; d++ {
		ln := g.GetLog(cur)
		if ln == nil || ln.PrevLogID == nil {
			break
		}
		cur = *ln.PrevLogID
		if existing, ok := candDistTime[cur]; !ok || d < existing {
			candDistTime[cur] = d
		}
	}
	cur = targetLogID
	for d := 1; d <= cfg.TemporalK; d++ {
		ln := g.GetLog(cur)
		if ln == nil || ln.NextLogID == nil {
			break
		}
		cur = *ln.NextLogID
		if existing, ok := candDistTime[cur]; !ok || d < existing {
			candDistTime[cur] = d
		}
	}

	candIDs := make(map[int64]struct{})
	for lid := range candDistStruct {
		candIDs[lid] = struct{}{}
	}
	for lid := range candDistTime {
		candIDs[lid] = struct{}{}
	}

	msg2best := make(map[string]int64)
	for lid := range candIDs {
		ln := g.GetLog(lid)
		if ln == nil {
			continue
		}
		key := recalltext.NormalizeMessageForDedup(ln.Message, cfg.DedupCaseInsensitive)
		if key == "" {
			continue
		}
		prev, ok := msg2best[key]
		if !ok {
			msg2best[key] = lid
			continue
		}
		a := g.GetLog(prev)
		if a == nil || ln.TsSec > a.TsSec {
			msg2best[key] = lid
		}
	}
	dedupIDs := make(map[int64]struct{}, len(msg2best))
	for _, lid := range msg2best {
		dedupIDs[lid] = struct{}{}
	}

	items := make([]EvidenceItem, 0, len(dedupIDs))
	for lid := range dedupIDs {
		ln := g.GetLog(lid)
		if ln == nil {
			continue
		}
		structDist, inStruct := candDistStruct[lid]
		timeDist, inTime := candDistTime[lid]
		dist := minDist(structDist, timeDist, inStruct, inTime)
		if dist < 1 {
			dist = 1
		}

		sev := ln.Severity
		if sev == 0 {
			sev = trigger.SeverityLevel(cfg, ln.Message)
		}

		w := 0.0
		if inTime {
			if tw := temporalPathMinEdgeWeight(g, targetLogID, lid, nowTs); tw > w {
				w = tw
			}
		}
		if inStruct {
			best := 0.0
			for e := range sharedEntities[lid] {
				w0 := g.StructuralEdgeWeight(targetLogID, nowTs)
				wi := g.StructuralEdgeWeight(lid, nowTs)
				m := math.Min(w0, wi)
				if m > best {
					best = m
				}
			}
			if best > w {
				w = best
			}
		}

		score := cfg.ScoreA*float64(sev) + cfg.ScoreB*(1.0/float64(dist)) + cfg.ScoreC*w

		paths := make(map[string]struct{})
		if inStruct {
			paths["struct"] = struct{}{}
		}
		if inTime {
			paths["time"] = struct{}{}
		}

		var sharedList []string
		for e := range sharedEntities[lid] {
			sharedList = append(sharedList, e)
		}
		sort.Strings(sharedList)

		item := EvidenceItem{
			LogID:          lid,
			TsSec:          ln.TsSec,
			Message:        ln.Message,
			Severity:       sev,
			Dist:           dist,
			Score:          score,
			EdgeWeight:     w,
			Paths:          paths,
			SharedEntities: sharedList,
		}
		if inTime {
			offset := ln.TsSec - tgt.TsSec
			item.TimeOffset = &offset
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].TsSec > items[j].TsSec
	})

	if len(items) > cfg.EvidenceBudgetNmax {
		items = items[:cfg.EvidenceBudgetNmax]
	}
	return items
}
