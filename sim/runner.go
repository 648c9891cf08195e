package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/pthm-cable/sandbox/telemetry"
)

// Result summarizes one completed run.
type Result struct {
	Run       int
	Ticks     int
	Lifetimes []telemetry.LifetimeStats
}

// Run steps the current run to completion. ctx is checked between ticks; a
// cancelled run returns the partial result with the context error.
func (s *Simulation) Run(ctx context.Context) (Result, error) {
	s.logger.Info("run started", "run", s.run, "ticks", s.ticks, "dt", s.dt)
	start := time.Now()
	for s.tick < s.ticks {
		if err := ctx.Err(); err != nil {
			res := s.finish()
			return res, fmt.Errorf("run %d stopped at tick %d: %w", s.run, s.tick, err)
		}
		s.Step()
	}
	res := s.finish()
	alive := 0
	for _, l := range res.Lifetimes {
		if l.Alive {
			alive++
		}
	}
	s.logger.Info("run finished",
		"run", s.run,
		"ticks", s.tick,
		"alive", alive,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}

// RunMany executes n runs. Before each run every component is reset, the
// init hooks run and, unless Options.NoPerturb is set, the perturb hooks run.
func (s *Simulation) RunMany(ctx context.Context, n int) ([]Result, error) {
	results := make([]Result, 0, n)
	for i := range n {
		s.Reset(i)
		s.InitConditions()
		if !s.opts.NoPerturb {
			s.Perturb()
		}
		res, err := s.Run(ctx)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// finish closes the stats window and writes the per-run output.
func (s *Simulation) finish() Result {
	// windows close on multiples of the window length
	if s.tick%s.collector.WindowDurationTicks() != 0 {
		s.flushWindow()
	}
	for _, a := range s.agents {
		l := s.lifetimes.Get(a.Name())
		if l == nil {
			continue
		}
		l.FinalX, l.FinalY = a.Position()
		l.PathLength = telemetry.PathLength(a.Xs(), a.Ys())
		l.LightDistance = s.LightDistance(l.FinalX, l.FinalY)
	}
	res := Result{Run: s.run, Ticks: s.tick, Lifetimes: s.lifetimes.All()}
	if err := s.output.WriteLifetimes(res.Lifetimes); err != nil {
		s.logger.Error("failed to write lifetimes", "error", err)
	}
	if s.opts.WriteSeries {
		if err := s.output.WriteSeries(s.run, s.Series()); err != nil {
			s.logger.Error("failed to write series", "error", err)
		}
	}
	return res
}
