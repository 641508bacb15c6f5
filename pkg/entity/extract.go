package entity

import (
	"context"
	"sort"

	"github.com/tarsy-recall/recall-core/pkg/recallconfig"
)

// Result holds the four entity channels the pipeline reports per record
// (spec.md §6 Output: entities_stat, entities_stat_validated, entities_sem,
// entities_final).
type Result struct {
	Stat          map[string]struct{}
	StatValidated map[string]struct{}
	Sem           map[string]struct{}
	Final         map[string]struct{}
}

// Extract runs the statistical channel and, when enabled and the
// statistical channel accepted fewer than cfg.SemanticTriggerMinEntities
// entities, the semantic channel, and reconciles them into a Result.
// When the semantic channel does not run, StatValidated equals Stat and
// Sem is empty.
func Extract(ctx context.Context, cfg *recallconfig.Config, stat *StatisticalExtractor, tsSec int64, message string, semantic SemanticValidator) Result {
	estat := stat.Extract(tsSec, message)
	statValidated := cloneSet(estat)
	sem := make(map[string]struct{})

	if cfg.EnableSemanticChannel && semantic != nil && len(estat) < cfg.SemanticTriggerMinEntities {
		candidates := make([]string, 0, len(estat))
		for e := range estat {
			candidates = append(candidates, e)
		}
		if raw, err := semantic.ValidateAndSupplement(ctx, message, candidates); err == nil {
			validation := ParseSemanticValidation(raw, message)
			if len(validation.Keep) > 0 {
				statValidated = validation.Keep
			}
			sem = validation.Add
		}
	}

	final := unionSets(statValidated, sem)
	final = filterBlacklisted(cfg, final)
	statValidated = filterBlacklisted(cfg, statValidated)

	return Result{Stat: estat, StatValidated: statValidated, Sem: sem, Final: final}
}

func cloneSet(src map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(src))
	for k := range src {
		out[k] = struct{}{}
	}
	return out
}

func unionSets(a, b map[string]struct{}) map[string]struct{} {
	out := cloneSet(a)
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

func filterBlacklisted(cfg *recallconfig.Config, set map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(set))
	for e := range set {
		if !cfg.IsBlacklistedEntity(e) {
			out[e] = struct{}{}
		}
	}
	return out
}

// SortedKeys returns the sorted slice of a string set, for the
// entities_* output fields (always emitted sorted).
func SortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
