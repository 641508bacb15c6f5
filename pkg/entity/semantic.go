package entity

import (
	"context"
	"encoding/json"
	"strings"
)

// SemanticValidator is the pluggable capability for LLM-assisted entity
// validation (SPEC_FULL.md "Semantic entity channel"). The core never
// implements a concrete network client for it — callers wire in whatever
// backend they have, exactly as for the decision LLM in pkg/llm.
type SemanticValidator interface {
	// ValidateAndSupplement asks the backend to keep/drop/add entities
	// for message given the statistical channel's candidates, and
	// returns its raw reply text for ParseSemanticValidation.
	ValidateAndSupplement(ctx context.Context, message string, candidates []string) (raw string, err error)
}

// SemanticValidation is the keep/add/drop decision recovered from a
// SemanticValidator's reply.
type SemanticValidation struct {
	Keep map[string]struct{}
	Add  map[string]struct{}
	Drop map[string]struct{}
}

// ParseSemanticValidation tolerates three reply shapes — a
// {"keep","add","drop"} object, a {"entities":[...]} object (treated as
// Add-only), or a {"final":[...]} object (treated as Keep-only) — and
// filters the Keep and Add values by verbatim-or-bare-IP-containment in
// message; Drop values are returned unfiltered. Any parse failure yields an all-empty result rather than an
// error: a malformed semantic reply degrades to "no supplementation",
// never to a pipeline failure.
func ParseSemanticValidation(raw, message string) SemanticValidation {
	empty := SemanticValidation{Keep: map[string]struct{}{}, Add: map[string]struct{}{}, Drop: map[string]struct{}{}}

	s := strings.TrimSpace(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return empty
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s[start:end+1]), &obj); err != nil {
		return empty
	}

	var keep, add, drop map[string]struct{}
	switch {
	case hasAny(obj, "keep", "add", "drop"):
		keep = extractValues(obj["keep"])
		add = extractValues(obj["add"])
		drop = extractValues(obj["drop"])
	case obj["entities"] != nil:
		add = extractValues(obj["entities"])
	case obj["final"] != nil:
		keep = extractValues(obj["final"])
	}

	return SemanticValidation{
		Keep: filterByMessagePresence(keep, message),
		Add:  filterByMessagePresence(add, message),
		Drop: dropEmpty(drop),
	}
}

func hasAny(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

// extractValues accepts either a list of strings/objects ({"value"|
// "entity"|"text": "..."}) or a single such object, mirroring
// recall/entity_extraction.py's _extract_values.
func extractValues(items any) map[string]struct{} {
	out := make(map[string]struct{})
	switch v := items.(type) {
	case []any:
		for _, it := range v {
			addExtracted(out, it)
		}
	case map[string]any:
		addExtracted(out, v)
	}
	return out
}

func addExtracted(out map[string]struct{}, it any) {
	switch t := it.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out[s] = struct{}{}
		}
	case map[string]any:
		for _, key := range []string{"value", "entity", "text"} {
			if raw, ok := t[key]; ok {
				if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
					out[strings.TrimSpace(s)] = struct{}{}
					return
				}
			}
		}
	}
}

func dropEmpty(set map[string]struct{}) map[string]struct{} {
	if set == nil {
		return map[string]struct{}{}
	}
	return set
}

// filterByMessagePresence keeps only entities that appear verbatim in
// message, or — for IPv4(:port)? entities — whose bare IP (optionally
// followed by ":") appears in message. This is intentionally looser than
// exact containment for IP entities (spec.md §9 open question 3).
func filterByMessagePresence(set map[string]struct{}, message string) map[string]struct{} {
	out := make(map[string]struct{}, len(set))
	for e := range set {
		if inMessageOrIPPort(e, message) {
			out[e] = struct{}{}
		}
	}
	return out
}

func inMessageOrIPPort(e, message string) bool {
	e = strings.TrimSpace(e)
	if e == "" {
		return false
	}
	if strings.Contains(message, e) {
		return true
	}
	if ip, ok := ipv4Bare(e); ok && ip != "" {
		if strings.Contains(message, ip) || strings.Contains(message, ip+":") {
			return true
		}
	}
	return false
}
