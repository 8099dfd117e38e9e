// Command spectralveil is the CLI entry point, dispatching on os.Args[1]
// the same way the teacher's main/main.go does (record/upload/stats/...),
// generalized to this pipeline's own subcommands: analyze and rewrite.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"

	"spectralveil/analyzer"
	"spectralveil/fileformat"
	"spectralveil/planner"
	"spectralveil/rewriter"
	"spectralveil/store"
)

func main() {
	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	ctx := context.Background()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(ctx, logger, os.Args[2:])
	case "rewrite":
		err = runRewrite(ctx, logger, os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.ErrorContext(ctx, "command failed", slog.Any("error", xerrors.New(err)))
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: spectralveil <analyze|rewrite> <input.wav> [flags]")
}

func runAnalyze(ctx context.Context, logger *slog.Logger, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("analyze: missing input path")
	}
	path := args[0]

	sig, err := fileformat.Load(path)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	start := time.Now()
	report, err := analyzer.Analyze(sig, analyzer.Options{})
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	logger.InfoContext(ctx, "analysis complete",
		slog.String("path", path),
		slog.String("status", string(report.Status)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return report.Emit(os.Stdout)
}

func runRewrite(ctx context.Context, logger *slog.Logger, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("rewrite: usage: rewrite <input.wav> <output.wav> [--plan override.yaml] [--seed N] [--aggressiveness low|medium|high] [--humanize-factor F]")
	}
	inputPath, outputPath := args[0], args[1]

	var overridePath string
	var seed int64 = time.Now().UnixNano()
	aggressiveness := rewriter.AggressivenessMedium
	humanizingFactor := 1.0
	for i := 2; i < len(args); i++ {
		switch args[i] {
		case "--plan":
			if i+1 < len(args) {
				i++
				overridePath = args[i]
			}
		case "--seed":
			if i+1 < len(args) {
				i++
				fmt.Sscanf(args[i], "%d", &seed)
			}
		case "--aggressiveness":
			if i+1 < len(args) {
				i++
				aggressiveness = rewriter.Aggressiveness(args[i])
			}
		case "--humanize-factor":
			if i+1 < len(args) {
				i++
				fmt.Sscanf(args[i], "%f", &humanizingFactor)
			}
		}
	}

	sig, err := fileformat.Load(inputPath)
	if err != nil {
		return fmt.Errorf("rewrite: %w", err)
	}

	pre, err := planner.Preanalyze(sig)
	if err != nil {
		return fmt.Errorf("rewrite: %w", err)
	}

	severity := planner.ClassifySeverity(pre)
	rng := rand.New(rand.NewSource(seed))
	plan := planner.Build(severity, pre, rng)

	if overridePath != "" {
		override, err := store.LoadPlanOverride(overridePath)
		if err != nil {
			return fmt.Errorf("rewrite: %w", err)
		}
		plan = override.Apply(plan)
	}

	logger.InfoContext(ctx, "rewriting",
		slog.String("path", inputPath),
		slog.String("severity", string(plan.Severity)),
		slog.Bool("skip", plan.Skip),
		slog.Float64("target_ratio", plan.TargetRatio),
		slog.String("aggressiveness", string(aggressiveness)),
	)

	result, err := rewriter.Rewrite(sig, rewriter.Options{
		Plan:             plan,
		Aggressiveness:   aggressiveness,
		HumanizingFactor: humanizingFactor,
		RNG:              rng,
		Verify:           true,
	})
	if err != nil {
		return fmt.Errorf("rewrite: %w", err)
	}

	if err := fileformat.Save(outputPath, result.Signal); err != nil {
		return fmt.Errorf("rewrite: %w", err)
	}

	if result.Verification != nil {
		logger.InfoContext(ctx, "verification",
			slog.String("status", string(result.Verification.Status)),
			slog.Float64("ratio", result.Verification.Ratio),
		)
	}

	return nil
}
