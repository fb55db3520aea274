package strategy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/assignparse/internal/model"
	"go.uber.org/zap"
)

// State is a step of the per-request state machine
type State string

const (
	StateSelected    State = "selected"
	StateRunning     State = "running"
	StateSucceeded   State = "succeeded"
	StateFailed      State = "failed"
	StateFallingBack State = "falling_back"
)

// Step is one recorded transition
type Step struct {
	Strategy string        `json:"strategy"`
	State    State         `json:"state"`
	Error    string        `json:"error,omitempty"`
	Elapsed  time.Duration `json:"elapsed_ns,omitempty"`
}

// Trace is the transition log of one Run
type Trace struct {
	RequestID string `json:"request_id"`
	Steps     []Step `json:"steps"`
}

// Strategies returns the distinct strategies that ran, in order.
func (t *Trace) Strategies() []string {
	var out []string
	for _, s := range t.Steps {
		if s.State == StateRunning {
			out = append(out, s.Strategy)
		}
	}
	return out
}

// Final returns the strategy and state of the last step.
func (t *Trace) Final() (string, State) {
	if len(t.Steps) == 0 {
		return "", ""
	}
	last := t.Steps[len(t.Steps)-1]
	return last.Strategy, last.State
}

func (t *Trace) add(strategy string, state State, err error, elapsed time.Duration) {
	step := Step{Strategy: strategy, State: state, Elapsed: elapsed}
	if err != nil {
		step.Error = err.Error()
	}
	t.Steps = append(t.Steps, step)
}

// Runner drives a parse through the selected strategy and, on failure, at
// most one declared fallback.
type Runner struct {
	registry *Registry
	logger   *zap.Logger
}

// NewRunner creates a runner over a registry.
func NewRunner(registry *Registry, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{registry: registry, logger: logger}
}

// Registry returns the runner's registry.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Run parses text with strategy id. It returns the validated record, or
// the error of the last strategy that ran. The trace is always non-nil.
func (r *Runner) Run(ctx context.Context, id, text string) (*model.Record, *Trace, error) {
	trace := &Trace{RequestID: uuid.NewString()}
	log := r.logger.With(zap.String("req_id", trace.RequestID))

	primary, err := r.registry.Get(id)
	if err != nil {
		trace.add(id, StateFailed, err, 0)
		log.Warn("strategy selection failed", zap.String("strategy", id), zap.Error(err))
		return nil, trace, err
	}

	rec, err := r.runOne(ctx, log, trace, primary, text)
	if err == nil {
		return rec, trace, nil
	}
	if !canFallBack(ctx, err) || primary.Fallback() == "" {
		return nil, trace, err
	}

	next, ferr := r.registry.Get(primary.Fallback())
	if ferr != nil {
		return nil, trace, err
	}
	trace.add(primary.ID(), StateFallingBack, nil, 0)
	log.Warn("falling back",
		zap.String("strategy", primary.ID()),
		zap.String("fallback", next.ID()),
		zap.Error(err))

	rec, err = r.runOne(ctx, log, trace, next, text)
	if err != nil {
		return nil, trace, err
	}
	return rec, trace, nil
}

func (r *Runner) runOne(ctx context.Context, log *zap.Logger, trace *Trace, s Strategy, input string) (*model.Record, error) {
	trace.add(s.ID(), StateSelected, nil, 0)
	trace.add(s.ID(), StateRunning, nil, 0)

	start := time.Now()
	rec, err := s.Parse(ctx, input)
	elapsed := time.Since(start)

	if err != nil {
		trace.add(s.ID(), StateFailed, err, elapsed)
		log.Warn("strategy failed",
			zap.String("strategy", s.ID()),
			zap.String("state", string(StateFailed)),
			zap.Int64("elapsed_ms", elapsed.Milliseconds()),
			zap.Error(err))
		return nil, err
	}

	trace.add(s.ID(), StateSucceeded, nil, elapsed)
	log.Info("strategy succeeded",
		zap.String("strategy", s.ID()),
		zap.String("state", string(StateSucceeded)),
		zap.Int64("elapsed_ms", elapsed.Milliseconds()))
	return rec, nil
}

// canFallBack excludes failures a second strategy cannot fix.
func canFallBack(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !model.IsKind(err, model.KindConfiguration)
}
