package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	vlog "github.com/futureCreator/docgen/internal/log"
	"github.com/futureCreator/docgen/internal/run"
	"github.com/futureCreator/docgen/internal/source"
	"github.com/futureCreator/docgen/internal/types"
)

// ErrAlreadyRunning is returned when Run is called while another Run on the
// same Engine is still in progress.
var ErrAlreadyRunning = errors.New("pipeline: engine is already running")

// Generator produces one result per topic.
type Generator interface {
	Generate(ctx context.Context, topic string) (*types.Generation, error)
}

// ArtifactStore persists the result for a zero-based index. It reports the
// written location and whether a structured record was saved.
type ArtifactStore interface {
	Persist(ctx context.Context, index int, res types.Result) (string, bool)
}

// Throttle paces consecutive generation calls.
type Throttle interface {
	Wait(ctx context.Context) error
}

// WorkItemSource is the ordered topic list.
type WorkItemSource interface {
	Len() int
	At(i int) (source.WorkItem, error)
}

// Recorder receives per-item outcomes; *run.Run satisfies it.
type Recorder interface {
	AddItem(run.ItemResult) error
	Complete(elapsed time.Duration) error
	Fail(msg string, elapsed time.Duration) error
}

// State is a node of the engine's control loop.
type State int

const (
	StateInit State = iota
	StateGenerating
	StatePersisting
	StateDeciding
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateGenerating:
		return "generating"
	case StatePersisting:
		return "persisting"
	case StateDeciding:
		return "deciding"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PipelineState is owned by a single Run call.
type PipelineState struct {
	CurrentIndex int
	Pending      *types.Generation

	topic   string
	started time.Time
}

// Report summarizes a run, complete or aborted.
type Report struct {
	Limit        int
	CurrentIndex int
	Degraded     int
	Cost         float64
	Elapsed      time.Duration
}

// ItemError is the failure that aborted a run.
type ItemError struct {
	Index int // zero-based
	Topic string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("doc #%d (%q): %v", e.Index+1, e.Topic, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Engine drives topics through generate → persist → throttle, one at a time.
type Engine struct {
	Generator Generator
	Store     ArtifactStore
	Throttle  Throttle
	Source    WorkItemSource

	// MaxDocuments caps the number of items when > 0.
	MaxDocuments int

	Display  *Display
	Recorder Recorder
	Logger   *slog.Logger

	running atomic.Bool
}

// Limit is the number of items a run processes.
func (e *Engine) Limit() int {
	n := e.Source.Len()
	if e.MaxDocuments > 0 && e.MaxDocuments < n {
		return e.MaxDocuments
	}
	return n
}

// Run processes items strictly in source order. It returns after every item
// is done, or with the first generation failure, leaving later items untouched.
// The report is non-nil whenever the run started.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer e.running.Store(false)

	if err := e.validate(); err != nil {
		return nil, err
	}

	logger := vlog.OrDiscard(e.Logger)
	startTime := time.Now()
	report := &Report{Limit: e.Limit()}
	e.Display.Header(report.Limit)

	var st PipelineState
	state := StateInit
	for state != StateDone {
		next, err := e.step(ctx, state, &st, report, logger)
		if err != nil {
			report.CurrentIndex = st.CurrentIndex
			report.Elapsed = time.Since(startTime)
			e.fail(err, report, logger)
			return report, err
		}
		logger.Debug("transition", "from", state, "to", next, "index", st.CurrentIndex)
		state = next
	}

	report.CurrentIndex = st.CurrentIndex
	report.Elapsed = time.Since(startTime)
	if e.Recorder != nil {
		if err := e.Recorder.Complete(report.Elapsed); err != nil {
			logger.Warn("failed to mark run complete", "err", err)
		}
	}
	logger.Info("run finished", "docs", report.CurrentIndex, "degraded", report.Degraded,
		"elapsed", report.Elapsed.Round(time.Millisecond))
	e.Display.Summary(report.CurrentIndex, report.Degraded, report.Cost, report.Elapsed)
	return report, nil
}

func (e *Engine) step(ctx context.Context, state State, st *PipelineState, report *Report, logger *slog.Logger) (State, error) {
	switch state {
	case StateInit:
		*st = PipelineState{}
		logger.Info("pipeline initialized", "limit", report.Limit)
		if report.Limit == 0 {
			return StateDone, nil
		}
		return StateGenerating, nil
	case StateGenerating:
		return e.generate(ctx, st, logger)
	case StatePersisting:
		return e.persist(ctx, st, report, logger)
	case StateDeciding:
		if st.CurrentIndex >= report.Limit {
			return StateDone, nil
		}
		return StateGenerating, nil
	default:
		return StateDone, fmt.Errorf("pipeline: unexpected state %s", state)
	}
}

func (e *Engine) generate(ctx context.Context, st *PipelineState, logger *slog.Logger) (State, error) {
	item, err := e.Source.At(st.CurrentIndex)
	if err != nil {
		return StateDone, &ItemError{Index: st.CurrentIndex, Err: err}
	}
	st.topic = item.Topic
	if err := ctx.Err(); err != nil {
		return StateDone, &ItemError{Index: item.Index, Topic: item.Topic, Err: err}
	}

	logger.Info("calling model", "doc", item.Index+1, "topic", item.Topic)
	e.Display.ItemStart(item.Index, e.Limit(), item.Topic)
	st.started = time.Now()

	gen, err := e.Generator.Generate(ctx, item.Topic)
	if err != nil {
		return StateDone, &ItemError{Index: item.Index, Topic: item.Topic, Err: err}
	}
	if gen == nil {
		return StateDone, &ItemError{Index: item.Index, Topic: item.Topic, Err: errors.New("generator returned no result")}
	}
	st.Pending = gen
	return StatePersisting, nil
}

func (e *Engine) persist(ctx context.Context, st *PipelineState, report *Report, logger *slog.Logger) (State, error) {
	gen := st.Pending
	location, ok := e.Store.Persist(ctx, st.CurrentIndex, gen.Result)
	duration := time.Since(st.started)

	status := run.ItemStructured
	if !ok {
		status = run.ItemDegraded
		report.Degraded++
		logger.Warn("degraded persistence", "doc", st.CurrentIndex+1, "artifact", location)
	}
	report.Cost += gen.Cost
	e.Display.ItemDone(st.CurrentIndex, report.Limit, st.topic, location, ok, gen.Cost, duration)
	if e.Recorder != nil {
		ir := run.ItemResult{
			Index:      st.CurrentIndex + 1,
			Topic:      st.topic,
			Artifact:   location,
			Status:     status,
			Cost:       gen.Cost,
			TokensIn:   gen.TokensIn,
			TokensOut:  gen.TokensOut,
			DurationMS: duration.Milliseconds(),
		}
		if err := e.Recorder.AddItem(ir); err != nil {
			logger.Warn("failed to save item result", "doc", st.CurrentIndex+1, "err", err)
		}
	}

	if d, ok := e.Throttle.(interface{ Delay() time.Duration }); ok && d.Delay() > 0 {
		logger.Info("throttling", "delay", d.Delay())
		e.Display.Throttling(d.Delay())
	}
	waitErr := e.Throttle.Wait(ctx)

	st.CurrentIndex++
	st.Pending = nil
	if waitErr != nil {
		return StateDone, &ItemError{Index: st.CurrentIndex - 1, Topic: st.topic, Err: waitErr}
	}
	return StateDeciding, nil
}

func (e *Engine) fail(err error, report *Report, logger *slog.Logger) {
	var ie *ItemError
	if errors.As(err, &ie) {
		logger.Error("fatal error, aborting run", "doc", ie.Index+1, "topic", ie.Topic, "err", ie.Err)
		if ie.Index >= report.CurrentIndex {
			e.Display.ItemFailed(ie.Index, report.Limit, ie.Topic, ie.Err)
			if e.Recorder != nil {
				if rerr := e.Recorder.AddItem(run.ItemResult{
					Index: ie.Index + 1, Topic: ie.Topic, Status: run.ItemFailed, Error: ie.Err.Error(),
				}); rerr != nil {
					logger.Warn("failed to save item result", "err", rerr)
				}
			}
		}
	}
	if e.Recorder != nil {
		if rerr := e.Recorder.Fail(err.Error(), report.Elapsed); rerr != nil {
			logger.Error("failed to update run meta", "err", rerr)
		}
	}
	e.Display.Failed(err)
}

func (e *Engine) validate() error {
	switch {
	case e.Generator == nil:
		return errors.New("pipeline: generator is required")
	case e.Store == nil:
		return errors.New("pipeline: artifact store is required")
	case e.Throttle == nil:
		return errors.New("pipeline: throttle is required")
	case e.Source == nil:
		return errors.New("pipeline: work item source is required")
	case e.MaxDocuments < 0:
		return fmt.Errorf("pipeline: max documents must be >= 0, got %d", e.MaxDocuments)
	}
	return nil
}
