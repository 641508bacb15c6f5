// recall-core streams newline-delimited "timestamp message" log lines
// from stdin through the RECALL pipeline and writes one annotated JSON
// record per line to stdout.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tarsy-recall/recall-core/pkg/llm"
	"github.com/tarsy-recall/recall-core/pkg/pipeline"
	"github.com/tarsy-recall/recall-core/pkg/recallconfig"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	llmAddr := flag.String("llm-addr", getEnv("RECALL_LLM_ADDR", ""), "gRPC address of a decision backend (empty disables LLM scoring)")
	llmModel := flag.String("llm-model", getEnv("RECALL_LLM_MODEL", "recall-decision-v1"), "model name to pass to the decision backend")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables...")
	}

	cfg, err := recallconfig.Load(filepath.Join(*configDir, "recall.yaml"), envPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var chat llm.ChatBackend
	if *llmAddr != "" {
		c, err := llm.NewClient(*llmAddr, *llmModel)
		if err != nil {
			log.Fatalf("failed to connect to decision backend: %v", err)
		}
		defer c.Close()
		chat = c
		log.Printf("decision backend: %s (model=%s)", *llmAddr, *llmModel)
	} else {
		log.Printf("decision backend disabled; triggered records will retrieve evidence but never call a model")
	}

	p := pipeline.New(cfg, nil, chat)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(os.Stdout)

	ctx := context.Background()
	var logID int64
	for scanner.Scan() {
		line := scanner.Text()
		rec, ok := parseLine(logID, line)
		if !ok {
			continue
		}
		out := p.Process(ctx, rec)
		if err := enc.Encode(out); err != nil {
			log.Fatalf("failed to encode output record: %v", err)
		}
		logID++
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("error reading stdin: %v", err)
	}
}

// parseLine splits a "ts_sec message..." line. A malformed timestamp
// falls back to 0 rather than dropping the line, mirroring the
// original dataset reader's tolerance for dirty input.
func parseLine(logID int64, line string) (pipeline.InputRecord, bool) {
	s := strings.TrimSpace(line)
	if s == "" {
		return pipeline.InputRecord{}, false
	}
	pos := strings.IndexByte(s, ' ')
	if pos < 0 {
		return pipeline.InputRecord{LogID: logID, TsSec: 0, Message: s}, true
	}
	ts, err := strconv.ParseInt(s[:pos], 10, 64)
	if err != nil {
		ts = 0
	}
	return pipeline.InputRecord{LogID: logID, TsSec: ts, Message: s[pos+1:]}, true
}
