package recallconfig

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load builds a ready-to-use Config from three layers, mirroring
// pkg/config/loader.go's Initialize(): compiled-in defaults, an optional
// YAML file, then process-environment overrides loaded via godotenv.
// envFile may be empty — a missing .env file is logged and skipped, not
// fatal, exactly as cmd/tarsy/main.go treats it.
func Load(yamlPath, envFile string) (*Config, error) {
	cfg := Defaults()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidYAML, yamlPath, err)
			}
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidYAML, yamlPath, err)
			}
			if err := mergo.Merge(cfg, &fileCfg, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("failed to merge %s: %w", yamlPath, err)
			}
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			slog.Warn("could not load env overrides file, continuing with process environment", "path", envFile, "error", err)
		}
	}
	applyEnvOverrides(cfg)

	if err := cfg.compile(); err != nil {
		return nil, err
	}
	if err := NewValidator(cfg).ValidateAll(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides layers a small set of process-environment overrides
// onto cfg, for the knobs an operator most commonly needs to flip without
// editing the YAML file (graph window, burst sensitivity, and the
// semantic-channel switch).
func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("RECALL_GRAPH_WINDOW_T_SEC"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.GraphWindowTSec = n
		}
	}
	if v, ok := os.LookupEnv("RECALL_BURST_SIGMA"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.BurstSigma = f
		}
	}
	if v, ok := os.LookupEnv("RECALL_ENABLE_SEMANTIC_CHANNEL"); ok {
		cfg.EnableSemanticChannel = v == "1" || v == "true"
	}
}
