// Command trailhunt-engine evaluates LLM-generated threat hunting queries
// against expected outcomes on a CloudTrail event dataset.
//
// Subcommands:
//
//	run      full pipeline: load hypotheses, generate queries, evaluate, report
//	serve    JSON-RPC server over stdin/stdout
//	synth    generate a synthetic CloudTrail dataset
//	version  print the engine version
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/segmentio/encoding/json"

	"github.com/trailhunt-ai/trailhunt/engine/internal/cache"
	"github.com/trailhunt-ai/trailhunt/engine/internal/eval"
	"github.com/trailhunt-ai/trailhunt/engine/internal/fixture"
	"github.com/trailhunt-ai/trailhunt/engine/internal/generate"
	"github.com/trailhunt-ai/trailhunt/engine/internal/llm"
	"github.com/trailhunt-ai/trailhunt/engine/internal/report"
	"github.com/trailhunt-ai/trailhunt/engine/internal/server"
	"github.com/trailhunt-ai/trailhunt/engine/internal/store"
	"github.com/trailhunt-ai/trailhunt/engine/internal/synth"
	"github.com/trailhunt-ai/trailhunt/engine/pkg/types"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		usage()
		return 1
	}

	switch os.Args[1] {
	case "run":
		return runPipeline(logger, os.Args[2:])
	case "serve":
		return runServe(logger, os.Args[2:])
	case "synth":
		return runSynth(logger, os.Args[2:])
	case "version":
		fmt.Printf("trailhunt-engine %s\n", version)
		return 0
	default:
		usage()
		return 1
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: trailhunt-engine <command>")
	fmt.Fprintln(os.Stderr, "Commands: run, serve, synth, version")
}

func runPipeline(logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	hypothesesPath := fs.String("hypotheses", "hypotheses.json", "path to hypotheses JSON file")
	outcomesPath := fs.String("outcomes", "hypotheses_outcomes.json", "path to expected outcomes JSON file")
	dataPath := fs.String("data", "", "path to CloudTrail CSV file (required)")
	outputDir := fs.String("output-dir", "./output", "directory for output files")
	model := fs.String("model", envOr("TRAILHUNT_MODEL", ""), "generation model (default: provider default)")
	skipGeneration := fs.Bool("skip-generation", false, "reuse generated_queries.json from the output directory")
	iteration := fs.Int("iteration", 1, "iteration number for tracking improvements")
	fs.Parse(args)

	if *dataPath == "" {
		fmt.Fprintln(os.Stderr, "run: -data is required")
		return 1
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Error("failed to create output directory", "dir", *outputDir, "err", err)
		return 1
	}

	logger.Info("loading hypotheses", "path", *hypothesesPath)
	hypotheses, err := fixture.LoadHypotheses(*hypothesesPath)
	if err != nil {
		logger.Error("failed to load hypotheses", "err", err)
		return 1
	}
	logger.Info("hypotheses loaded", "count", len(hypotheses))

	queriesFile := filepath.Join(*outputDir, "generated_queries.json")
	queries, err := obtainQueries(logger, hypotheses, queriesFile, *model, *skipGeneration)
	if err != nil {
		logger.Error("query generation failed", "err", err)
		return 1
	}

	logger.Info("loading expected outcomes", "path", *outcomesPath)
	outcomes, err := fixture.LoadOutcomes(*outcomesPath)
	if err != nil {
		logger.Error("failed to load expected outcomes", "err", err)
		return 1
	}
	logger.Info("expected outcomes loaded", "count", len(outcomes))

	st, err := store.Open(*dataPath)
	if err != nil {
		logger.Error("failed to load dataset", "path", *dataPath, "err", err)
		return 1
	}
	defer st.Close()
	logger.Info("dataset loaded", "records", st.Records())

	evaluator := eval.New(st, logger)
	rep := evaluator.EvaluateBatch(queries, outcomes)
	rep.Iteration = *iteration

	if err := writeReports(rep, *outputDir, *iteration); err != nil {
		logger.Error("failed to write reports", "err", err)
		return 1
	}

	report.WriteSummary(os.Stdout, rep)

	if rep.SuccessRate() >= 0.8 {
		fmt.Println("✓ Success rate >= 80%")
		return 0
	}
	fmt.Printf("⚠ Success rate %.1f%% is below 80%%\n", rep.SuccessRate()*100)
	return 1
}

// obtainQueries loads previously generated queries when skip is set and the
// file exists, otherwise generates fresh queries and saves them.
func obtainQueries(logger *slog.Logger, hypotheses []types.Hypothesis, queriesFile, model string, skip bool) ([]types.GeneratedQuery, error) {
	if skip {
		if _, err := os.Stat(queriesFile); err == nil {
			logger.Info("loading existing generated queries", "path", queriesFile)
			return fixture.LoadGeneratedQueries(queriesFile)
		}
		logger.Warn("no existing queries to reuse, generating", "path", queriesFile)
	}

	apiKey := os.Getenv("TRAILHUNT_OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key: set TRAILHUNT_OPENAI_API_KEY or OPENAI_API_KEY")
	}

	provider, err := llm.NewOpenAIProvider(apiKey, model, "")
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	limited, err := llm.NewRateLimitedProvider(provider, llm.DefaultRateLimiterConfig)
	if err != nil {
		return nil, fmt.Errorf("create rate limiter: %w", err)
	}

	var opts []generate.Option
	if qc := openQueryCache(logger); qc != nil {
		defer qc.Close()
		opts = append(opts, generate.WithCache(qc))
	}

	generator := generate.New(limited, model, logger, opts...)
	queries := generator.GenerateBatch(context.Background(), hypotheses)

	data, err := json.MarshalIndent(queries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode queries: %w", err)
	}
	if err := os.WriteFile(queriesFile, data, 0o644); err != nil {
		return nil, fmt.Errorf("save queries: %w", err)
	}
	logger.Info("generated queries saved", "path", queriesFile, "count", len(queries))

	return queries, nil
}

func openQueryCache(logger *slog.Logger) *cache.QueryCache {
	dir := os.Getenv("TRAILHUNT_CACHE_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		dir = filepath.Join(home, ".trailhunt", "cache")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("failed to create cache dir", "dir", dir, "err", err)
		return nil
	}

	maxEntries := envInt("TRAILHUNT_CACHE_MAX_ENTRIES", 1000)
	qc, err := cache.NewQueryCache(filepath.Join(dir, "trailhunt.db"), maxEntries)
	if err != nil {
		logger.Warn("failed to open query cache", "err", err)
		return nil
	}
	return qc
}

func writeReports(rep *types.EvaluationReport, outputDir string, iteration int) error {
	jsonData, err := report.GenerateJSON(rep)
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(outputDir, fmt.Sprintf("evaluation_results_iter%d.json", iteration))
	if err := os.WriteFile(jsonPath, jsonData, 0o644); err != nil {
		return fmt.Errorf("write JSON report: %w", err)
	}

	mdPath := filepath.Join(outputDir, fmt.Sprintf("EVALUATION_REPORT_ITER%d.md", iteration))
	f, err := os.Create(mdPath)
	if err != nil {
		return fmt.Errorf("create markdown report: %w", err)
	}
	defer f.Close()
	if err := report.WriteMarkdown(f, rep); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	return nil
}

func runServe(logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dataPath := fs.String("data", "", "path to CloudTrail CSV file (required)")
	fs.Parse(args)

	if *dataPath == "" {
		fmt.Fprintln(os.Stderr, "serve: -data is required")
		return 1
	}

	st, err := store.Open(*dataPath)
	if err != nil {
		logger.Error("failed to load dataset", "path", *dataPath, "err", err)
		return 1
	}
	defer st.Close()
	logger.Info("dataset loaded", "records", st.Records())

	srv := server.New(os.Stdin, os.Stdout, logger)
	server.RegisterBuiltinHandlers(srv, st)

	if err := srv.Run(context.Background()); err != nil {
		logger.Error("server terminated", "err", err)
		return 1
	}
	return 0
}

func runSynth(logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("synth", flag.ExitOnError)
	numRecords := fs.Int("num-records", 1000, "number of records to generate")
	output := fs.String("output", "data/synthetic_cloudtrail.csv", "output file path")
	includeThreats := fs.Bool("include-threats", true, "include threat events")
	threatRatio := fs.Float64("threat-ratio", 0.2, "ratio of threat events (0.0-1.0)")
	seed := fs.Int64("seed", 42, "random seed for reproducibility")
	fs.Parse(args)

	logger.Info("generating synthetic dataset",
		"records", *numRecords, "threats", *includeThreats, "ratio", *threatRatio, "seed", *seed)

	events := synth.NewGenerator(*seed).GenerateDataset(*numRecords, *includeThreats, *threatRatio)

	if dir := filepath.Dir(*output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create output directory", "dir", dir, "err", err)
			return 1
		}
	}
	f, err := os.Create(*output)
	if err != nil {
		logger.Error("failed to create output file", "path", *output, "err", err)
		return 1
	}
	defer f.Close()

	if err := synth.WriteCSV(f, events); err != nil {
		logger.Error("failed to write dataset", "err", err)
		return 1
	}

	logger.Info("dataset written", "path", *output, "records", len(events))
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
