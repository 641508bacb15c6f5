package entity

import (
	"github.com/tarsy-recall/recall-core/pkg/recallconfig"
	"github.com/tarsy-recall/recall-core/pkg/recalltext"
	"github.com/tarsy-recall/recall-core/pkg/recurrence"
)

// StatisticalExtractor filters tokenized message candidates by token
// complexity and recurrence, and splits bare IPv4 addresses out of
// IPv4:port tokens (spec.md §4.4).
type StatisticalExtractor struct {
	cfg      *recallconfig.Config
	rfByWord *recurrence.TokenRecurrenceCounter
}

// NewStatisticalExtractor creates an extractor backed by a recurrence
// counter windowed over cfg.DeltaTSec seconds.
func NewStatisticalExtractor(cfg *recallconfig.Config) *StatisticalExtractor {
	return &StatisticalExtractor{
		cfg:      cfg,
		rfByWord: recurrence.NewTokenRecurrenceCounter(int64(cfg.DeltaTSec)),
	}
}

// Extract tokenizes message, pushes it into the recurrence counter, and
// returns the set of accepted entity candidates.
func (e *StatisticalExtractor) Extract(tsSec int64, message string) map[string]struct{} {
	toks := recalltext.TokenizeForEntityCandidates(message)
	e.rfByWord.Push(tsSec, toks)

	ents := make(map[string]struct{})
	for _, tok := range toks {
		if len(tok) < e.cfg.MinTokenLen {
			continue
		}
		if e.cfg.ShouldDropToken(tok) {
			continue
		}
		if ip, ok := ipv4Bare(tok); ok {
			if ip != "" && !e.cfg.IsBlacklistedEntity(ip) {
				ents[ip] = struct{}{}
			}
		}
		if e.cfg.IsBlacklistedEntity(tok) {
			continue
		}
		tc := recalltext.TokenComplexity(tok, false)
		rf := e.rfByWord.RF(tok)
		if tc > e.cfg.ThetaTC && rf > e.cfg.ThetaRF {
			ents[tok] = struct{}{}
		}
	}
	return ents
}
