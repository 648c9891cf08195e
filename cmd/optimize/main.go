// Command optimize tunes one robot's controller parameters with CMA-ES. The
// objective is the mean final distance to the nearest lit light, plus a
// penalty for dying early.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/sandbox/config"
	"github.com/pthm-cable/sandbox/telemetry"
)

type options struct {
	configPath string
	robot      string
	seeds      int
	runs       int
	maxEvals   int
	population int
	outputDir  string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.StringVar(&opts.robot, "robot", "robot_0", "Robot whose controller is optimized")
	flag.IntVar(&opts.seeds, "seeds", 3, "Number of seeds per evaluation")
	flag.IntVar(&opts.runs, "runs", 2, "Perturbed runs per seed")
	flag.IntVar(&opts.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.StringVar(&opts.outputDir, "output", "", "Output directory for results")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(opts, logger); err != nil {
		logger.Error("optimize failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options, logger *slog.Logger) error {
	if opts.outputDir == "" {
		return errors.New("-output is required")
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := config.Init(opts.configPath); err != nil {
		return err
	}
	baseCfg := config.Cfg()

	params, err := NewParamVector(baseCfg, opts.robot)
	if err != nil {
		return err
	}
	evalSeeds := make([]uint64, opts.seeds)
	for i := range evalSeeds {
		evalSeeds[i] = uint64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, evalSeeds, opts.runs, baseCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	elog, err := newEvalLog(filepath.Join(opts.outputDir, "optimize_log.csv"), params)
	if err != nil {
		return err
	}
	defer elog.Close()

	best := struct {
		fitness float64
		params  []float64
	}{fitness: 1e9}
	evals := 0
	start := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			values := params.Clamp(params.Denormalize(x))
			fitness, err := evaluator.Evaluate(ctx, values)
			if err != nil {
				logger.Warn("evaluation failed", "error", err)
			}
			evals++
			if fitness < best.fitness {
				best.fitness, best.params = fitness, values
			}
			survival := evaluator.LastSurvival()
			if err := elog.Write(evals, fitness, survival, values); err != nil {
				logger.Warn("failed to log evaluation", "error", err)
			}

			elapsed := time.Since(start)
			eta := time.Duration(opts.maxEvals-evals) * (elapsed / time.Duration(evals))
			logger.Info("eval",
				"n", evals,
				"fitness", fitness,
				"survival", survival,
				"best", best.fitness,
				"elapsed", elapsed.Round(time.Second),
				"eta", eta.Round(time.Second),
			)
			return fitness
		},
	}

	dim := params.Dim()
	pop := opts.population
	if pop == 0 {
		pop = 4 + 3*dim/2
	}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: pop}
	settings := &optimize.Settings{FuncEvaluations: opts.maxEvals}

	logger.Info("starting CMA-ES",
		"robot", opts.robot,
		"params", dim,
		"population", pop,
		"max_evals", opts.maxEvals,
		"seeds", opts.seeds,
		"runs_per_seed", opts.runs,
		"ticks_per_run", baseCfg.Derived.Ticks,
	)
	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method)
	if err != nil {
		logger.Warn("optimization ended", "error", err)
	}
	if best.params == nil && result != nil {
		best.params = params.Clamp(params.Denormalize(result.X))
	}
	if best.params == nil {
		return errors.New("no evaluation completed")
	}

	attrs := []any{"evals", evals, "elapsed", time.Since(start).Round(time.Second), "fitness", best.fitness}
	for i, spec := range params.Specs {
		attrs = append(attrs, spec.Name, best.params[i])
	}
	logger.Info("optimization complete", attrs...)

	bestCfg, err := baseCfg.Clone()
	if err != nil {
		return err
	}
	params.ApplyToConfig(bestCfg, best.params)
	if err := bestCfg.WriteYAML(filepath.Join(opts.outputDir, "best_config.yaml")); err != nil {
		return err
	}
	return writeBestRuns(filepath.Join(opts.outputDir, "best_runs.yaml"), evaluator)
}

// writeBestRuns stores the per-lifetime summaries of the best evaluation.
func writeBestRuns(path string, fe *FitnessEvaluator) error {
	var lifetimes []telemetry.LifetimeStats
	for _, r := range fe.BestResults() {
		lifetimes = append(lifetimes, r.Lifetimes...)
	}
	data, err := yaml.Marshal(lifetimes)
	if err != nil {
		return fmt.Errorf("marshaling best runs: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// evalLog appends one CSV row per evaluation. Columns after survival follow
// the parameter order.
type evalLog struct {
	f *os.File
	w *csv.Writer
}

func newEvalLog(path string, pv *ParamVector) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating eval log: %w", err)
	}
	header := []string{"eval", "fitness", "survival"}
	for _, spec := range pv.Specs {
		header = append(header, spec.Name)
	}
	l := &evalLog{f: f, w: csv.NewWriter(f)}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

func (l *evalLog) Write(n int, fitness, survival float64, values []float64) error {
	row := []string{
		strconv.Itoa(n),
		strconv.FormatFloat(fitness, 'f', 6, 64),
		strconv.FormatFloat(survival, 'f', 4, 64),
	}
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *evalLog) Close() error {
	l.w.Flush()
	return l.f.Close()
}
