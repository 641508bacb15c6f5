// Package trigger implements the severity/burst fusion trigger (C6)
// that decides whether an ingested log entry warrants retrieval.
package trigger

import (
	"strings"

	"github.com/tarsy-recall/recall-core/pkg/recallconfig"
	"github.com/tarsy-recall/recall-core/pkg/recalltext"
	"github.com/tarsy-recall/recall-core/pkg/recurrence"
)

// Severity levels, highest first: 3=fatal, 2=error, 1=warn, 0=none.
const (
	SeverityNone  = 0
	SeverityWarn  = 1
	SeverityError = 2
	SeverityFatal = 3
)

// SeverityLevel classifies message against cfg's fatal/error keyword
// lists, falling back to a bare "warn"/"warning" substring check.
func SeverityLevel(cfg *recallconfig.Config, message string) int {
	low := strings.ToLower(message)
	for _, kw := range cfg.SeverityKeywordsFatal {
		if strings.Contains(low, kw) {
			return SeverityFatal
		}
	}
	for _, kw := range cfg.SeverityKeywordsError {
		if strings.Contains(low, kw) {
			return SeverityError
		}
	}
	if strings.Contains(low, "warn") || strings.Contains(low, "warning") {
		return SeverityWarn
	}
	return SeverityNone
}

// Decision reports whether a log entry triggers retrieval, and by which
// path.
type Decision struct {
	Triggered   bool
	By          string // "severity", "burst", or "none"
	TemplateKey string
}

// Engine fuses the severity-keyword and burst-detector trigger paths.
// It owns a single TemplateBurstDetector so burst state accumulates
// across the whole stream, not per call.
type Engine struct {
	cfg   *recallconfig.Config
	burst *recurrence.TemplateBurstDetector
}

// NewEngine builds a trigger engine bound to cfg.
func NewEngine(cfg *recallconfig.Config) *Engine {
	return &Engine{
		cfg:   cfg,
		burst: recurrence.NewTemplateBurstDetector(int64(cfg.BurstWindowSec), cfg.BurstEMAAlpha, cfg.BurstSigma),
	}
}

// Check evaluates the severity trigger first (cheap, keyword-based),
// then the burst trigger (stateful, masked-template-based).
func (e *Engine) Check(tsSec int64, message string) Decision {
	if e.cfg.EnableSeverityTrigger {
		low := strings.ToLower(message)
		for _, kw := range e.cfg.TriggerKeywords {
			if strings.Contains(low, kw) {
				return Decision{Triggered: true, By: "severity"}
			}
		}
	}
	if e.cfg.EnableBurstTrigger {
		key := recalltext.MaskForTemplateKey(message)
		if e.burst.PushAndCheck(tsSec, key) {
			return Decision{Triggered: true, By: "burst", TemplateKey: key}
		}
		return Decision{Triggered: false, By: "none", TemplateKey: key}
	}
	return Decision{Triggered: false, By: "none"}
}
