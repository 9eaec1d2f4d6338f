// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/grounder"
	"github.com/poiesic/grounder/ai"
	"github.com/poiesic/grounder/core"
	"github.com/poiesic/grounder/drift"
	"github.com/poiesic/grounder/rank"
	"github.com/poiesic/grounder/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "grounder",
		Usage: "Symbolic grounding retrieval engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "Rank chunks against a query and print the grounded results",
				Action:    queryCommand,
				ArgsUsage: "QUERY...",
				Flags: append(engineFlags(),
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum boosted score for confident retrieval",
						Value: rank.DefaultScoreThreshold,
					},
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Maximum number of chunks to return",
						Value: rank.DefaultMaxResults,
					},
				),
			},
			{
				Name:   "diagnose",
				Usage:  "Replay every anchor through the ranker and report the pass rate",
				Action: diagnoseCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Replay only the first N anchors in slug order (0 = all)",
					},
				),
			},
			{
				Name:   "drift",
				Usage:  "Analyze grounding log trends and request relabels for drifting anchors",
				Action: driftCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "window-days",
						Usage: "Trailing window of grounding log entries to analyze",
						Value: drift.DefaultConfig().WindowDays,
					},
					&cli.IntFlag{
						Name:  "min-samples",
						Usage: "Minimum grounding log entries in the window before a relabel can trigger",
						Value: drift.DefaultConfig().MinSamples,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for suggestion calls",
						Value: drift.DefaultConfig().MaxRetries,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: drift.DefaultConfig().RetryDelay,
					},
				),
			},
			{
				Name:      "seed-anchors",
				Usage:     "Load anchors from a JSON file into the registry",
				Action:    seedAnchorsCommand,
				ArgsUsage: "FILE",
				Flags:     engineFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// engineFlags are the flags every command needs to open an engine.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "suggestion-model",
			Usage: "Label suggestion model name",
			Value: "qwen2.5:3b",
		},
	}
}

// openEngine builds an Engine from the shared command flags.
func openEngine(c *cli.Context) (*grounder.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithSuggestionModel(c.String("suggestion-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	engine, err := grounder.Open(c.String("db"), grounder.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("query text is required")
	}
	query := strings.Join(c.Args().Slice(), " ")

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	config := rank.DefaultConfig()
	config.ScoreThreshold = c.Float64("threshold")
	config.MaxResults = c.Int("max-results")

	ranker, err := engine.NewRanker(rank.WithConfig(config))
	if err != nil {
		return fmt.Errorf("failed to create ranker: %w", err)
	}

	response, err := ranker.Rank(context.Background(), query, storage.Scope{})
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if response.FallbackTriggered {
		fmt.Printf("Fallback triggered (%s)\n", response.FallbackReason)
	}
	fmt.Printf("Found %d chunks\n", len(response.Results))
	for i, result := range response.Results {
		marker := ""
		if result.ForcedIncluded {
			marker = " [literal recall]"
		}
		fmt.Printf("%d: '%s' (%d)[raw %0.3f, boosted %0.3f]%s\n",
			i, result.Chunk.Text, result.Chunk.Id, result.RawScore, result.BoostedScore, marker)
	}
	return nil
}

func diagnoseCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	harness, err := engine.NewDiagnosticsHarness(nil)
	if err != nil {
		return fmt.Errorf("failed to create harness: %w", err)
	}
	defer harness.Release()

	report, err := harness.Run(context.Background(), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("diagnostics run failed: %w", err)
	}

	fmt.Printf("Replayed %d anchors, %d missed, pass rate %0.3f\n",
		report.Total, report.Misses, report.PassRate())
	for _, outcome := range report.Outcomes {
		if outcome.Hit {
			continue
		}
		if outcome.Err != nil {
			fmt.Printf("MISS %s: %v\n", outcome.Slug, outcome.Err)
			continue
		}
		fmt.Printf("MISS %s (top score %0.3f, fallback %t)\n",
			outcome.Slug, outcome.TopScore, outcome.FallbackTriggered)
	}
	return nil
}

func driftCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	config := drift.DefaultConfig()
	config.WindowDays = c.Int("window-days")
	config.MinSamples = c.Int("min-samples")
	config.MaxRetries = c.Int("max-retries")
	config.RetryDelay = c.Duration("retry-delay")

	if config.WindowDays <= 0 {
		return fmt.Errorf("window-days must be greater than 0")
	}
	if config.MinSamples <= 0 {
		return fmt.Errorf("min-samples must be greater than 0")
	}

	analyzer, err := engine.NewDriftAnalyzer(config)
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	defer analyzer.Release()

	report, err := analyzer.Run(context.Background())
	if err != nil {
		return fmt.Errorf("drift analysis failed: %w", err)
	}

	fmt.Printf("Analyzed %d anchors, %d relabels requested\n", report.Analyzed, report.Triggered)
	for _, result := range report.Results {
		if result.Err != nil {
			fmt.Printf("FAIL %s: %v\n", result.Slug, result.Err)
			continue
		}
		if result.MutationRequested {
			fmt.Printf("RELABEL %s -> %q (slope %0.3f, latest avg %0.3f)\n",
				result.Slug, result.SuggestedLabel, result.Slope, result.LatestAvgScore)
		}
	}
	return nil
}

// seedAnchor is the JSON shape accepted by seed-anchors.
type seedAnchor struct {
	Slug        string   `json:"slug"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Focus       bool     `json:"focus"`
	Weight      *float64 `json:"weight"`
}

func seedAnchorsCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one JSON file argument is required")
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seeds []seedAnchor
	if err := json.Unmarshal(data, &seeds); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	for _, seed := range seeds {
		_, err := engine.AnchorRepository().PutAnchor(ctx, &core.Anchor{
			Slug:           seed.Slug,
			Label:          seed.Label,
			Description:    seed.Description,
			IsFocusTerm:    seed.Focus,
			WeightOverride: seed.Weight,
			Origin:         core.OriginSeed,
		})
		if err != nil {
			return fmt.Errorf("failed to seed anchor %q: %w", seed.Slug, err)
		}
	}

	fmt.Printf("Seeded %d anchors\n", len(seeds))
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
