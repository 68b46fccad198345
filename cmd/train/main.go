package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"TrendPredictor/internal/di"
	"TrendPredictor/internal/services/forest"
	"TrendPredictor/internal/services/synthetic"
	"TrendPredictor/internal/services/training"
	"TrendPredictor/internal/usecase"
	"TrendPredictor/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "config file path (empty for defaults)")
	output := flag.String("output-model", "", "where to write the model artifact (default: model.path from config)")
	days := flag.Int("days", synthetic.DefaultDays, "days of history to train on")
	ticker := flag.String("ticker", "", "train on a real ticker instead of synthetic data")
	seed := flag.Uint64("seed", synthetic.DefaultSeed, "seed for synthetic data and the forest")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	opts := options{configPath: *configPath, output: *output, ticker: *ticker}
	if set["days"] {
		opts.days = days
	}
	if set["seed"] {
		opts.seed = seed
	}
	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "train:", err)
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

// options holds the parsed flags; nil days or seed defer to the config file.
type options struct {
	configPath string
	output     string
	ticker     string
	days       *int
	seed       *uint64
}

func run(opts options) error {
	cfg, err := config.LoadWithEnv(opts.configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	output := opts.output
	if output == "" {
		output = cfg.Model.Path
	}
	days := cfg.Training.Days
	if opts.days != nil {
		days = *opts.days
	}
	seed := cfg.Training.Seed
	if opts.seed != nil {
		seed = *opts.seed
	}

	svc, cleanup, err := di.InitializeTrainer(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tc := training.DefaultConfig()
	tc.TestFraction = cfg.Training.TestFraction
	tc.MinRows = cfg.Training.MinRows
	tc.Forest = forest.Config{
		Trees:          cfg.Training.Trees,
		MaxDepth:       cfg.Training.MaxDepth,
		MinSamplesLeaf: cfg.Training.MinSamplesLeaf,
		Seed:           seed,
	}

	out, err := svc.Train(ctx, usecase.TrainParams{
		Ticker:     opts.ticker,
		Days:       days,
		Seed:       seed,
		OutputPath: output,
		Config:     tc,
	})
	if err != nil {
		return err
	}

	if out.Fallback {
		log.Printf("warning: %v; trained on synthetic data", out.FetchErr)
	}
	printReport(out)
	return nil
}

func printReport(out *usecase.TrainOutcome) {
	m := out.Run.Metrics
	fmt.Printf("Model accuracy: %.3f\n", m.Accuracy)
	fmt.Printf("%-14s %9s %9s %9s %9s\n", "", "precision", "recall", "f1-score", "support")
	keys := make([]string, 0, len(m.Report))
	for k := range m.Report {
		if k != training.MacroAvg && k != training.WeightedAvg {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	keys = append(keys, training.MacroAvg, training.WeightedAvg)
	for _, k := range keys {
		r, ok := m.Report[k]
		if !ok {
			continue
		}
		fmt.Printf("%-14s %9.2f %9.2f %9.2f %9d\n", k, r.Precision, r.Recall, r.F1, r.Support)
	}
	fmt.Printf("Train rows: %d (until %s), test rows: %d (from %s)\n",
		m.TrainRows, m.TrainUntil.Format("2006-01-02"), m.TestRows, m.TestFrom.Format("2006-01-02"))
	fmt.Printf("Run %s saved model to %s\n", out.Run.ID, out.Run.ArtifactPath)
}
