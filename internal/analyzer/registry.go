package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"orato/internal/observe"
)

// Registry holds the configured analyzers and runs them for one request at
// a time of its choosing. Registration order is preserved in the result
// slice so reports are stable.
type Registry struct {
	analyzers []Analyzer
	log       *slog.Logger
	metrics   *observe.Metrics
	timeout   time.Duration
	workers   int
}

// Option is a functional option for Registry.
type Option func(*Registry)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMetrics sets the metrics sink. Default: observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithTimeout sets the per-analyzer wall-clock budget. Zero disables the
// budget.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// WithWorkers bounds how many analyzers run simultaneously. Values below 1
// mean no limit.
func WithWorkers(n int) Option {
	return func(r *Registry) { r.workers = n }
}

// NewRegistry constructs a Registry over the given analyzers.
func NewRegistry(analyzers []Analyzer, opts ...Option) *Registry {
	r := &Registry{
		analyzers: analyzers,
		log:       slog.Default(),
		metrics:   observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Analyzers returns the registered analyzers in registration order.
func (r *Registry) Analyzers() []Analyzer { return r.analyzers }

// Run executes every registered analyzer against arts and returns one
// Result per analyzer in registration order. Analyzers whose required
// features are unavailable are marked skipped without running. A failing,
// panicking, or timed-out analyzer yields a failed result with its default
// score; Run itself never fails.
func (r *Registry) Run(ctx context.Context, arts *Artifacts) []Result {
	results := make([]Result, len(r.analyzers))

	g, gctx := errgroup.WithContext(ctx)
	if r.workers > 0 {
		g.SetLimit(r.workers)
	}

	for i, a := range r.analyzers {
		if missing := r.missingFeatures(a, arts); len(missing) > 0 {
			results[i] = Result{
				AnalyzerID: a.ID(),
				Score:      a.DefaultScore(),
				Status:     StatusSkipped,
				Err:        fmt.Sprintf("required inputs unavailable: %v", missing),
			}
			r.log.Debug("analyzer skipped", "analyzer", a.ID(), "missing", fmt.Sprint(missing))
			r.metrics.RecordAnalyzer(ctx, a.ID(), string(StatusSkipped), 0)
			continue
		}

		i, a := i, a
		g.Go(func() error {
			results[i] = r.runOne(gctx, a, arts)
			return nil
		})
	}

	// Worker funcs always return nil; Wait only synchronizes.
	_ = g.Wait()
	return results
}

func (r *Registry) runOne(ctx context.Context, a Analyzer, arts *Artifacts) Result {
	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if r.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	defer cancel()

	start := time.Now()
	res := r.analyzeSafely(runCtx, a, arts)
	elapsed := time.Since(start)

	// A result produced after the budget expired counts as failed even if
	// the analyzer returned normally with stale inputs.
	if runCtx.Err() != nil && res.Status != StatusFailed {
		res = Result{
			AnalyzerID: a.ID(),
			Score:      a.DefaultScore(),
			Status:     StatusFailed,
			Err:        fmt.Sprintf("analyzer %s: budget exceeded after %s", a.ID(), elapsed.Round(time.Millisecond)),
		}
	}

	res.AnalyzerID = a.ID()
	res.Score = clampScore(res.Score)

	r.metrics.RecordAnalyzer(ctx, a.ID(), string(res.Status), elapsed.Seconds())
	if res.Status == StatusFailed {
		r.log.Warn("analyzer failed", "analyzer", a.ID(), "error", res.Err, "elapsed", elapsed)
	} else {
		r.log.Debug("analyzer finished", "analyzer", a.ID(), "status", string(res.Status), "score", res.Score, "elapsed", elapsed)
	}
	return res
}

// analyzeSafely converts a panic inside an analyzer into a failed result
// so one bad analyzer cannot take down the request.
func (r *Registry) analyzeSafely(ctx context.Context, a Analyzer, arts *Artifacts) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("analyzer panicked", "analyzer", a.ID(), "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
			res = Result{
				AnalyzerID: a.ID(),
				Score:      a.DefaultScore(),
				Status:     StatusFailed,
				Err:        fmt.Sprintf("analyzer %s: panic: %v", a.ID(), rec),
			}
		}
	}()
	return a.Analyze(ctx, arts)
}

func (r *Registry) missingFeatures(a Analyzer, arts *Artifacts) []Feature {
	var missing []Feature
	for _, f := range a.Requires() {
		if !arts.Available(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
