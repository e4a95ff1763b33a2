package hook

import "strings"

// Hook is the single capability interface every hook implements. The
// registry owns the descriptor; the hook contributes its schema, accepts
// configuration, gates its own execution, and installs middleware on the
// pipeline phases it cares about.
type Hook interface {
	// Schema declares the persistable descriptor fields, defaults included.
	Schema() Schema

	// Configure hands the hook its descriptor after registration and
	// every config load. Validation errors are configuration errors,
	// reported without stopping the batch.
	Configure(desc *Descriptor) error

	// ShouldRun is the execution gate between BEFORE_EXECUTION and
	// EXECUTION. The default is the descriptor's enabled flag.
	ShouldRun(ctx *Context) bool

	// Register installs the hook's middleware on the pipeline.
	Register(p *Pipeline)
}

// Base supplies descriptor plumbing and the default gate for concrete
// hooks to embed.
type Base struct {
	Desc *Descriptor
}

func (b *Base) Configure(desc *Descriptor) error {
	b.Desc = desc
	return nil
}

// ShouldRun implements the default gate: run when enabled and not skipped
// via the environment.
func (b *Base) ShouldRun(ctx *Context) bool {
	if b.Desc == nil || !b.Desc.Enabled {
		return false
	}
	return !SkippedByEnv(ctx, b.Desc.ID)
}

// SkippedByEnv reports whether id appears in the HOOKWISE_SKIP comma list
// of the invocation's environment snapshot. "all" disables every hook.
func SkippedByEnv(ctx *Context, id string) bool {
	raw := ctx.Getenv("HOOKWISE_SKIP")
	if raw == "" {
		return false
	}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.EqualFold(entry, id) || strings.EqualFold(entry, "all") {
			return true
		}
	}
	return false
}

// ApplyPolicy enforces the descriptor's blocking policy on the final
// result. The dispatcher applies it unconditionally after the pipeline
// finishes, so a middleware that short-circuits or errors cannot hand a
// blocking result past a non-block mode. In non-block modes shouldBlock
// is forced false no matter what severity the findings carry.
func ApplyPolicy(desc *Descriptor, r *Result) {
	if r == nil {
		return
	}
	if desc.BlockingMode == BlockingModeBlock {
		if sev := r.MaxSeverity(); sev != "" && sev.AtLeast(desc.BlockOnSeverity) {
			r.ShouldBlock = true
		}
	} else {
		r.ShouldBlock = false
	}
}
