// Package scoring turns analysis text into a spam probability. A trained model artifact is
// loaded lazily, exactly once per process; without one the engine answers with a
// rule-based heuristic.
package scoring

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mikey/mailguard/internal/core"
	"go.uber.org/zap"
)

// ReasonModelRuntimeError tags results whose model inference failed
const ReasonModelRuntimeError = "model_runtime_error"

// State is the model availability state of an Engine
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateUnavailable:
		return "unavailable"
	default:
		return "invalid"
	}
}

// Model scores raw analysis text
type Model interface {
	Infer(text string) InferOutcome
}

// InferOutcome is the result of one model inference: a probability, or the reason it
// failed.
type InferOutcome struct {
	Probability float64
	Err         string
}

// Ok reports whether inference produced a probability
func (o InferOutcome) Ok() bool { return o.Err == "" }

// InferOk builds a successful InferOutcome
func InferOk(p float64) InferOutcome { return InferOutcome{Probability: p} }

// InferFailed builds a failed InferOutcome
func InferFailed(reason string) InferOutcome { return InferOutcome{Err: reason} }

// LoadOutcome is the result of loading a model: the model, or the reason it is unavailable
type LoadOutcome struct {
	Model  Model
	Reason string
}

// Loaded reports whether a model is available
func (o LoadOutcome) Loaded() bool { return o.Model != nil }

// Loaded builds a successful LoadOutcome
func Loaded(m Model) LoadOutcome { return LoadOutcome{Model: m} }

// Unavailable builds a failed LoadOutcome
func Unavailable(reason string) LoadOutcome { return LoadOutcome{Reason: reason} }

// Loader produces the model used by an Engine
type Loader interface {
	Load() LoadOutcome
}

// LoaderFunc adapts a function to the Loader interface
type LoaderFunc func() LoadOutcome

// Load calls f
func (f LoaderFunc) Load() LoadOutcome { return f() }

// Engine implements core.Scorer
type Engine struct {
	loader   Loader
	fallback *RuleBased
	logger   *zap.Logger

	mu      sync.Mutex
	state   atomic.Int32
	outcome atomic.Pointer[LoadOutcome]
}

// NewEngine creates an engine in the Unloaded state
func NewEngine(loader Loader, logger *zap.Logger) *Engine {
	return &Engine{
		loader:   loader,
		fallback: NewRuleBased(),
		logger:   logger,
	}
}

// State returns the current model availability state
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Preload settles the model state ahead of the first Score call
func (e *Engine) Preload() State {
	e.ensureLoaded()
	return e.State()
}

// Score returns a probability for text. It never fails: without a model it uses the
// rule-based heuristic, and a failed inference yields an error_fallback result.
func (e *Engine) Score(text string) core.ScoreResult {
	outcome := e.ensureLoaded()
	if !outcome.Loaded() {
		return e.fallback.Score(text)
	}

	inferred := outcome.Model.Infer(text)
	if !inferred.Ok() {
		e.logger.Warn("Model inference failed, using error fallback", zap.String("reason", inferred.Err))
		return core.ScoreResult{
			Probability: 0,
			Kind:        core.ModelKindErrorFallback,
			Reasons:     []string{ReasonModelRuntimeError},
		}
	}
	return core.ScoreResult{
		Probability: inferred.Probability,
		Kind:        core.ModelKindModel,
		Reasons:     []string{},
	}
}

// ensureLoaded returns the settled load outcome, running the loader at most once.
func (e *Engine) ensureLoaded() LoadOutcome {
	if o := e.outcome.Load(); o != nil {
		return *o
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if o := e.outcome.Load(); o != nil {
		return *o
	}

	e.state.Store(int32(StateLoading))
	outcome := e.runLoader()

	if outcome.Loaded() {
		e.state.Store(int32(StateLoaded))
		e.logger.Info("Scoring model loaded")
	} else {
		e.state.Store(int32(StateUnavailable))
		e.logger.Warn("Scoring model unavailable, using rule-based fallback",
			zap.String("reason", outcome.Reason))
	}
	e.outcome.Store(&outcome)
	return outcome
}

// runLoader calls the configured loader, turning a panic into a permanent Unavailable
// outcome.
func (e *Engine) runLoader() (outcome LoadOutcome) {
	if e.loader == nil {
		return Unavailable("no model loader configured")
	}
	defer func() {
		if r := recover(); r != nil {
			outcome = Unavailable(fmt.Sprintf("loader panic: %v", r))
		}
	}()
	return e.loader.Load()
}
