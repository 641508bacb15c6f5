// Package recallconfig holds the closed configuration surface for the
// RECALL core: extraction, graph, retrieval, trigger, and filter options.
package recallconfig

import (
	"regexp"
	"strings"
)

// Config is the closed set of options documented in spec.md §6.
// Zero value is never valid on its own — use Defaults() and layer
// overrides onto it with Load.
type Config struct {
	// Extraction (C2, C4)
	ThetaTC     int `yaml:"theta_tc"`
	ThetaRF     int `yaml:"theta_rf"`
	DeltaTSec   int `yaml:"delta_t_sec"`
	MinTokenLen int `yaml:"min_token_len"`

	// Graph (C5)
	GraphWindowTSec int      `yaml:"graph_window_t_sec"`
	DecayLambda     *float64 `yaml:"decay_lambda"`
	ThetaW          float64  `yaml:"theta_w"`
	ActivityBeta    float64  `yaml:"activity_beta"`
	ActivityAlpha   float64  `yaml:"activity_alpha"`
	ActivityEpsilon float64  `yaml:"activity_epsilon"`

	// Retrieval (C7)
	TemporalK             int     `yaml:"temporal_k"`
	EvidenceBudgetNmax     int     `yaml:"evidence_budget_nmax"`
	DegreeThresholdDmax    int     `yaml:"degree_threshold_dmax"`
	ScoreA                 float64 `yaml:"score_a"`
	ScoreB                 float64 `yaml:"score_b"`
	ScoreC                 float64 `yaml:"score_c"`
	DedupCaseInsensitive   bool    `yaml:"dedup_case_insensitive"`

	// Triggers (C3, C6)
	EnableSeverityTrigger bool     `yaml:"enable_severity_trigger"`
	EnableBurstTrigger    bool     `yaml:"enable_burst_trigger"`
	BurstSigma            float64  `yaml:"burst_sigma"`
	BurstWindowSec        int      `yaml:"burst_window_sec"`
	BurstEMAAlpha         float64  `yaml:"burst_ema_alpha"`
	TriggerKeywords       []string `yaml:"trigger_keywords"`
	SeverityKeywordsFatal []string `yaml:"severity_keywords_fatal"`
	SeverityKeywordsError []string `yaml:"severity_keywords_error"`

	// Semantic entity channel (supplemented feature, see SPEC_FULL.md)
	EnableSemanticChannel      bool `yaml:"enable_semantic_channel"`
	SemanticTriggerMinEntities int  `yaml:"semantic_trigger_min_entities"`

	// Filters
	EntityBlacklistExact []string `yaml:"entity_blacklist_exact"`
	EntityBlacklistRegex []string `yaml:"entity_blacklist_regex"`
	TokenDropRegex       []string `yaml:"token_drop_regex"`

	compiledBlacklistRegex []*regexp.Regexp
	compiledTokenDropRegex []*regexp.Regexp
}

// Defaults returns the compiled-in default Config, mirroring
// recall/config.py's RecallConfig dataclass defaults.
func Defaults() *Config {
	cfg := &Config{
		ThetaTC:     2,
		ThetaRF:     2,
		DeltaTSec:   300,
		MinTokenLen: 2,

		GraphWindowTSec: 900,
		DecayLambda:     nil,
		ThetaW:          0.05,
		ActivityBeta:    0.99,
		ActivityAlpha:   1.0,
		ActivityEpsilon: 0.1,

		TemporalK:            15,
		EvidenceBudgetNmax:   30,
		DegreeThresholdDmax:  200,
		ScoreA:               1.0,
		ScoreB:               1.0,
		ScoreC:               1.0,
		DedupCaseInsensitive: false,

		EnableSeverityTrigger: true,
		EnableBurstTrigger:    true,
		BurstSigma:            3.0,
		BurstWindowSec:        300,
		BurstEMAAlpha:         0.01,
		TriggerKeywords:       []string{"fatal", "panic", "exception", "critical", "failure", "machine check"},
		SeverityKeywordsFatal: []string{"fatal", "panic", "critical", "machine check"},
		SeverityKeywordsError: []string{"error", "exception", "fail", "failure", "crash", "abort", "terminated"},

		EnableSemanticChannel:      false,
		SemanticTriggerMinEntities: 1,

		EntityBlacklistExact: []string{"127.0.0.1", "0.0.0.0", "localhost", "/tmp"},
		EntityBlacklistRegex: []string{"^::1$"},
		TokenDropRegex:       []string{`^\d{4}-\d{2}-\d{2}-\d{2}\.\d{2}\.\d{2}\.\d+$`},
	}
	_ = cfg.compile()
	return cfg
}

// compile precompiles the regex filter lists. Called by Defaults and Load;
// an invalid regex is a configuration error.
func (c *Config) compile() error {
	c.compiledBlacklistRegex = c.compiledBlacklistRegex[:0]
	for _, pat := range c.EntityBlacklistRegex {
		rx, err := regexp.Compile(pat)
		if err != nil {
			return NewValidationError("entity_blacklist_regex", pat, err)
		}
		c.compiledBlacklistRegex = append(c.compiledBlacklistRegex, rx)
	}
	c.compiledTokenDropRegex = c.compiledTokenDropRegex[:0]
	for _, pat := range c.TokenDropRegex {
		rx, err := regexp.Compile(pat)
		if err != nil {
			return NewValidationError("token_drop_regex", pat, err)
		}
		c.compiledTokenDropRegex = append(c.compiledTokenDropRegex, rx)
	}
	return nil
}

// IsBlacklistedEntity reports whether ent must never appear in any
// incidence (spec.md §3 invariant 3).
func (c *Config) IsBlacklistedEntity(ent string) bool {
	s := strings.TrimSpace(ent)
	if s == "" {
		return true
	}
	for _, b := range c.EntityBlacklistExact {
		if s == b {
			return true
		}
	}
	for _, rx := range c.compiledBlacklistRegex {
		if rx.MatchString(s) {
			return true
		}
	}
	return false
}

// ShouldDropToken reports whether a tokenized candidate must be skipped
// before entity consideration (spec.md §4.4 step 2).
func (c *Config) ShouldDropToken(token string) bool {
	if token == "" {
		return true
	}
	for _, rx := range c.compiledTokenDropRegex {
		if rx.MatchString(token) {
			return true
		}
	}
	return false
}
