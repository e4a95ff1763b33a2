package hook

import (
	"fmt"
	"runtime/debug"
)

// Phase names one stage of the invocation lifecycle. BEFORE_EXECUTION,
// EXECUTION, AFTER_EXECUTION and ERROR belong to the dispatch lifecycle;
// AFTER_SETUP and BEFORE_REMOVE belong to the smaller installation
// lifecycle driven by the registry.
type Phase string

const (
	PhaseBeforeExecution Phase = "BEFORE_EXECUTION"
	PhaseExecution       Phase = "EXECUTION"
	PhaseAfterExecution  Phase = "AFTER_EXECUTION"
	PhaseError           Phase = "ERROR"
	PhaseAfterSetup      Phase = "AFTER_SETUP"
	PhaseBeforeRemove    Phase = "BEFORE_REMOVE"
)

// Decision is a middleware's verdict on the rest of its phase chain:
// Continue hands over to the next middleware, Done short-circuits the
// chain with a result. The runner acts on the decision itself, so no
// middleware has to inspect shared state to honor another's outcome.
type Decision struct {
	done   bool
	result *Result
}

// Continue passes control to the next middleware in the phase.
func Continue() Decision { return Decision{} }

// Done stops the current phase chain and records r as the invocation
// result. Later phases other than AFTER_EXECUTION are skipped.
func Done(r *Result) Decision { return Decision{done: true, result: r} }

// Middleware is one callback registered against a lifecycle phase.
type Middleware func(*Context) (Decision, error)

// Pipeline holds the ordered middleware chains of one hook. Middleware
// run strictly in registration order within a phase.
type Pipeline struct {
	phases map[Phase][]Middleware
}

func NewPipeline() *Pipeline {
	return &Pipeline{phases: make(map[Phase][]Middleware)}
}

// Use appends middleware to a phase chain in registration order.
func (p *Pipeline) Use(phase Phase, mw ...Middleware) {
	p.phases[phase] = append(p.phases[phase], mw...)
}

// Len reports how many middleware are registered for a phase.
func (p *Pipeline) Len(phase Phase) int {
	return len(p.phases[phase])
}

// Run executes the dispatch lifecycle against ctx. The gate runs between
// BEFORE_EXECUTION and EXECUTION; a negative gate yields a skipped result
// and still runs AFTER_EXECUTION. Exactly one of AFTER_EXECUTION or ERROR
// completes the invocation, and a non-nil result is always returned.
func (p *Pipeline) Run(ctx *Context, gate func(*Context) bool) *Result {
	dec, err := p.RunPhase(ctx, PhaseBeforeExecution)
	if err != nil {
		return p.fail(ctx, err)
	}

	switch {
	case dec.done:
		ctx.SetResult(dec.result)
	case gate != nil && !gate(ctx):
		ctx.Logger.Debug().Msg("execution gate declined")
		ctx.SetResult(Skipped("execution skipped"))
	default:
		dec, err = p.RunPhase(ctx, PhaseExecution)
		if err != nil {
			return p.fail(ctx, err)
		}
		if dec.done {
			ctx.SetResult(dec.result)
		}
	}

	dec, err = p.RunPhase(ctx, PhaseAfterExecution)
	if err != nil {
		return p.fail(ctx, err)
	}
	if dec.done {
		ctx.SetResult(dec.result)
	}

	if ctx.Result() == nil {
		ctx.SetResult(Success("completed"))
	}
	return ctx.Result()
}

// RunPhase executes one phase chain in order, stopping at the first Done
// decision or error. The registry drives AFTER_SETUP and BEFORE_REMOVE
// through this directly.
func (p *Pipeline) RunPhase(ctx *Context, phase Phase) (Decision, error) {
	for i, mw := range p.phases[phase] {
		dec, err := p.call(ctx, phase, i, mw)
		if err != nil {
			return Decision{}, err
		}
		if dec.done {
			return dec, nil
		}
	}
	return Decision{}, nil
}

// fail routes an invocation to the ERROR phase. Whatever result exists
// afterward is returned; a generic failure is synthesized when none does.
func (p *Pipeline) fail(ctx *Context, err error) *Result {
	ctx.SetErr(err)
	ctx.Logger.Error().Err(err).Msg("pipeline error")

	dec, errPhaseErr := p.RunPhase(ctx, PhaseError)
	if errPhaseErr != nil {
		ctx.Logger.Error().Err(errPhaseErr).Msg("error-phase middleware failed")
	} else if dec.done {
		ctx.SetResult(dec.result)
	}

	if ctx.Result() == nil {
		ctx.SetResult(Failure(err.Error()))
	}
	return ctx.Result()
}

// call invokes one middleware with panic recovery so a crashing callback
// degrades into an ordinary pipeline error.
func (p *Pipeline) call(ctx *Context, phase Phase, idx int, mw Middleware) (dec Decision, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ctx.Logger.Error().
				Interface("panic", rec).
				Str("stack", string(debug.Stack())).
				Str("phase", string(phase)).
				Msg("middleware panic")
			err = fmt.Errorf("middleware panic in %s[%d]: %v", phase, idx, rec)
		}
	}()
	return mw(ctx)
}
