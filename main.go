package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/df07/go-phase-functions/pkg/batch"
	"github.com/df07/go-phase-functions/pkg/core"
	"github.com/df07/go-phase-functions/pkg/integrator"
	"github.com/df07/go-phase-functions/pkg/loaders"
	"github.com/df07/go-phase-functions/pkg/medium"
	"github.com/df07/go-phase-functions/pkg/phase"
)

// DiagnosticsConfig controls how many samples each check draws
type DiagnosticsConfig struct {
	Samples int
	Seed    int64
	Workers int
}

// Report holds the results of every diagnostic
type Report struct {
	Normalization    integrator.Estimate
	MeanCosine       integrator.Estimate
	Consistency      float64 // max relative |pdf - eval| over sampled directions
	BatchConsistency float64 // same check through the parallel evaluator
	ComponentSum     float64 // max |sum of restricted evals - unrestricted eval|
}

func main() {
	configPath := flag.String("config", "", "Phase configuration (.toml, .yaml, .yml) or PBRT scene (.pbrt)")
	g := flag.Float64("g", phase.DefaultAsymmetry, "Henyey-Greenstein asymmetry used when no -config is given")
	mediumName := flag.String("medium", "", "Named medium to check when -config is a PBRT scene (default: first)")
	samples := flag.Int("samples", 100000, "Monte Carlo samples per diagnostic")
	seed := flag.Int64("seed", 42, "Random seed")
	workers := flag.Int("workers", 0, "Parallel workers for batch checks (0 = one per CPU)")
	verbose := flag.Bool("v", false, "Enable debug logging")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Phase function checker")
		fmt.Println("Usage: phasecheck [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Checks normalization, mean cosine, sample/eval consistency and")
		fmt.Println("component decomposition of the configured phase function.")
		return
	}

	logger := newLogger(*verbose)

	pf, err := loadPhase(*configPath, *g, *mediumName, logger)
	if err != nil {
		logger.Error("failed to build phase function", "error", err)
		os.Exit(1)
	}
	logger.Info("loaded phase function", "components", pf.ComponentCount(), "flags", pf.Flags().String())
	fmt.Println(pf.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	report, err := runDiagnostics(ctx, pf, DiagnosticsConfig{Samples: *samples, Seed: *seed, Workers: *workers})
	if err != nil {
		logger.Error("diagnostics failed", "error", err)
		os.Exit(1)
	}

	logger.Info("normalization", "integral", report.Normalization.String())
	logger.Info("mean cosine", "estimate", report.MeanCosine.String())
	logger.Info("sample/eval consistency", "max_rel_diff", report.Consistency, "batch_max_rel_diff", report.BatchConsistency)
	logger.Info("component decomposition", "max_abs_diff", report.ComponentSum)
	logger.Info("diagnostics completed", "elapsed", time.Since(start))

	if !report.Normalization.Within(1, 5) {
		logger.Warn("normalization is more than 5 standard errors away from 1")
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadPhase builds the phase function named on the command line. Without a
// config path it builds an HG phase function with asymmetry g.
func loadPhase(configPath string, g float64, mediumName string, logger *slog.Logger) (phase.PhaseFunction, error) {
	if configPath == "" {
		logger.Debug("no config given, using Henyey-Greenstein", "g", g)
		return phase.NewHenyeyGreenstein(g)
	}

	format, err := loaders.DetectFormat(configPath)
	if err != nil {
		return nil, err
	}
	if format != loaders.FormatPBRT {
		return loaders.LoadPhase(configPath, logger)
	}

	media, err := loaders.LoadPBRTMedia(configPath)
	if err != nil {
		return nil, err
	}
	if len(media) == 0 {
		return nil, fmt.Errorf("%s: no MakeNamedMedium statements", configPath)
	}
	if mediumName == "" {
		logger.Debug("using first medium", "medium", media[0].Name)
		return media[0].Phase, nil
	}

	var names []string
	for _, m := range media {
		if m.Name == mediumName {
			return m.Phase, nil
		}
		names = append(names, m.Name)
	}
	return nil, fmt.Errorf("%s: medium %q not found (available: %s)", configPath, mediumName, strings.Join(names, ", "))
}

// runDiagnostics runs every check against pf at a fixed oblique interaction
func runDiagnostics(ctx context.Context, pf phase.PhaseFunction, cfg DiagnosticsConfig) (Report, error) {
	if cfg.Samples <= 0 {
		return Report{}, errors.New("sample count must be positive")
	}

	mi := medium.NewInteraction(core.NewVec3(0, 0, 0), core.NewVec3(0.3, -0.4, 0.866))
	sampler := core.NewSeededSampler(cfg.Seed)

	report := Report{
		Normalization: integrator.Normalization(pf, mi, sampler, cfg.Samples),
		MeanCosine:    integrator.MeanCosine(pf, mi, sampler, cfg.Samples),
		Consistency:   integrator.SampleConsistency(pf, mi, sampler, max(1, cfg.Samples/10)),
		ComponentSum:  integrator.ComponentSum(pf, mi, sampler, max(1, cfg.Samples/10)),
	}

	batchConsistency, err := batchConsistency(ctx, pf, mi, sampler, cfg)
	if err != nil {
		return Report{}, err
	}
	report.BatchConsistency = batchConsistency
	return report, nil
}

// batchConsistency samples every component through the parallel evaluator,
// evaluates the returned directions in a second pass and compares densities
func batchConsistency(ctx context.Context, pf phase.PhaseFunction, mi *medium.Interaction, sampler core.Sampler, cfg DiagnosticsConfig) (float64, error) {
	evaluator := batch.NewEvaluator(cfg.Workers, 0)

	sampleReqs := make([]batch.SampleRequest, cfg.Samples)
	for i := range sampleReqs {
		pctx := phase.NewContext()
		if n := pf.ComponentCount(); n > 1 {
			pctx = pctx.WithComponent(i % n)
		}
		sampleReqs[i] = batch.SampleRequest{
			Ctx:         pctx,
			Interaction: mi,
			Sample1:     sampler.Get1D(),
			Sample2:     sampler.Get2D(),
		}
	}

	sampled, err := evaluator.Sample(ctx, pf, sampleReqs)
	if err != nil {
		return 0, err
	}

	evalReqs := make([]batch.EvalRequest, len(sampled))
	for i, s := range sampled {
		evalReqs[i] = batch.EvalRequest{Ctx: sampleReqs[i].Ctx, Interaction: mi, Wo: s.Wo}
	}
	evaluated, err := evaluator.Eval(ctx, pf, evalReqs)
	if err != nil {
		return 0, err
	}

	worst := 0.0
	for i, s := range sampled {
		worst = math.Max(worst, integrator.RelativeDifference(s.PDF, evaluated[i]))
	}
	return worst, nil
}
