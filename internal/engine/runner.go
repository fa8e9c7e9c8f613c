package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/metrics"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

// maxConcurrentFunctions caps the number of functions RunAll runs in
// parallel. Keeps outbound AWS API concurrency predictable.
const maxConcurrentFunctions = 3

// Runner executes functions, recovers panics, and publishes each run's
// metrics. A Runner is safe for concurrent use.
type Runner struct {
	sink   metrics.Sink
	logger *slog.Logger
}

// NewRunner returns a Runner publishing to sink. A nil sink discards
// metrics; a nil logger means slog.Default().
func NewRunner(sink metrics.Sink, logger *slog.Logger) *Runner {
	if sink == nil {
		sink = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{sink: sink, logger: logger}
}

// Handle runs fn once without publishing metrics and converts the outcome
// into a Response.
func Handle(ctx context.Context, fn Function, req Request) Response {
	return NewRunner(nil, nil).Handle(ctx, fn, req)
}

// Handle runs fn and converts the outcome into a Response: 200 with the
// JSON body on success, 500 with {"error": msg} on any error or panic.
func (r *Runner) Handle(ctx context.Context, fn Function, req Request) Response {
	res, err := r.Invoke(ctx, fn, req)
	if err != nil {
		return errorResponse(err)
	}
	body, err := json.Marshal(res.Body)
	if err != nil {
		return errorResponse(fmt.Errorf("encode %s body: %w", fn.ID(), err))
	}
	return Response{StatusCode: http.StatusOK, Body: string(body)}
}

// Invoke runs fn, publishes its metrics and returns the result. A panic in
// fn is recovered and returned as an error. Metric publishing failures are
// logged and never fail the run.
func (r *Runner) Invoke(ctx context.Context, fn Function, req Request) (res *Result, err error) {
	log := r.logger.With("function", fn.ID())
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			log.Error("function panicked", "panic", p, "stack", string(debug.Stack()))
			res, err = nil, fmt.Errorf("%s: panic: %v", fn.ID(), p)
		}
	}()

	res, err = fn.Run(ctx, req)
	if err != nil {
		log.Error("function failed", "error", err, "duration", time.Since(start))
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%s: no result", fn.ID())
	}
	if res.FunctionID == "" {
		res.FunctionID = fn.ID()
	}

	log.Info("function completed",
		"findings", len(res.Findings),
		"dry_run", req.DryRun,
		"duration", time.Since(start))

	r.publish(ctx, log, res)
	return res, nil
}

func (r *Runner) publish(ctx context.Context, log *slog.Logger, res *Result) {
	if len(res.Metrics) == 0 {
		return
	}
	ns := res.MetricsNamespace
	if ns == "" {
		ns = NamespaceCost
	}
	if err := r.sink.Publish(ctx, ns, res.Metrics); err != nil {
		log.Warn("metric publish failed", "namespace", ns, "error", err)
	}
}

func errorResponse(err error) Response {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	return Response{StatusCode: http.StatusInternalServerError, Body: string(body)}
}

// Outcome is the result of one function within a Report.
type Outcome struct {
	FunctionID string           `json:"function"`
	StatusCode int              `json:"status_code"`
	Body       any              `json:"body,omitempty"`
	Error      string           `json:"error,omitempty"`
	Findings   []models.Finding `json:"findings"`
	Summary    models.Summary   `json:"summary"`
}

// Report collects the outcomes of one CLI run.
type Report struct {
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Profile     string         `json:"profile,omitempty"`
	DryRun      bool           `json:"dry_run"`
	Outcomes    []Outcome      `json:"results"`
	Summary     models.Summary `json:"summary"`
}

// Findings returns every finding across all outcomes, sorted by severity
// then savings.
func (rep *Report) Findings() []models.Finding {
	var all []models.Finding
	for _, o := range rep.Outcomes {
		all = append(all, o.Findings...)
	}
	sortFindings(all)
	return all
}

// RunAll runs fns in parallel, at most maxConcurrentFunctions at a time,
// and collects one Outcome per function in the order of fns. A failing
// function is recorded in its Outcome and does not stop the others; only
// cancellation of ctx aborts the run.
func (r *Runner) RunAll(ctx context.Context, fns []Function, req Request) (*Report, error) {
	outcomes := make([]Outcome, len(fns))
	sem := make(chan struct{}, maxConcurrentFunctions)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

FUNCTIONS:
	for i, fn := range fns {
		select {
		case sem <- struct{}{}:
		case <-gctx.Done():
			break FUNCTIONS
		}

		g.Go(func() error {
			defer func() { <-sem }()

			o := r.outcome(gctx, fn, req)

			mu.Lock()
			outcomes[i] = o
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Profile:     req.Profile,
		DryRun:      req.DryRun,
		Outcomes:    outcomes,
	}
	rep.Summary = ComputeSummary(rep.Findings())
	return rep, nil
}

// outcome runs fn through Invoke and folds the result into an Outcome.
func (r *Runner) outcome(ctx context.Context, fn Function, req Request) Outcome {
	o := Outcome{FunctionID: fn.ID(), Findings: []models.Finding{}}
	res, err := r.Invoke(ctx, fn, req)
	if err != nil {
		o.StatusCode = http.StatusInternalServerError
		o.Error = err.Error()
		return o
	}
	o.StatusCode = http.StatusOK
	o.Body = res.Body
	o.Findings = nonNil(res.Findings)
	sortFindings(o.Findings)
	o.Summary = ComputeSummary(o.Findings)
	return o
}
