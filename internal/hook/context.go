package hook

import (
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Context carries the mutable state of exactly one hook invocation. It is
// created by the dispatcher, threaded through every middleware, and
// discarded when the pipeline finishes.
type Context struct {
	// InvocationID tags every log line and history record for this run.
	InvocationID string

	// Event is the version-control event that triggered the invocation.
	Event string

	// Args are the positional arguments forwarded verbatim by the
	// generated hook script.
	Args []string

	// ProjectRoot is the absolute path of the repository being operated on.
	ProjectRoot string

	// Env is a snapshot of the process environment at invocation time.
	Env map[string]string

	Logger zerolog.Logger

	// Data is an open bag middleware use to pass values forward within
	// one invocation.
	Data map[string]any

	result *Result
	err    error
}

// NewContext builds a fresh invocation context with a snapshot of the
// current environment.
func NewContext(event string, args []string, projectRoot string) *Context {
	id := uuid.New().String()
	return &Context{
		InvocationID: id,
		Event:        event,
		Args:         args,
		ProjectRoot:  projectRoot,
		Env:          snapshotEnv(),
		Logger:       log.With().Str("invocation", id).Str("event", event).Logger(),
		Data:         make(map[string]any),
	}
}

func snapshotEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Getenv reads from the invocation's environment snapshot, not the live
// process environment.
func (c *Context) Getenv(key string) string {
	return c.Env[key]
}

// SetResult records the invocation outcome. The last write wins; the
// pipeline runner performs the final read.
func (c *Context) SetResult(r *Result) { c.result = r }

// Result returns the recorded outcome, nil if none has been set yet.
func (c *Context) Result() *Result { return c.result }

// SetErr attaches a middleware error to the context for the ERROR phase.
func (c *Context) SetErr(err error) { c.err = err }

// Err returns the attached error, nil on the happy path.
func (c *Context) Err() error { return c.err }
