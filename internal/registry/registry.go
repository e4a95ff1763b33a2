// Package registry owns the hook descriptors: registration, dispatch of
// one invocation to the hook occupying an event slot, dependency-ordered
// batch setup and removal, and the persisted configuration round trip.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/hookwise/hookwise/internal/hook"
	"github.com/hookwise/hookwise/internal/install"
)

// configVersion tags the persisted configuration document.
const configVersion = 1

// Registration describes one hook handed to Register.
type Registration struct {
	ID          string
	Name        string
	Description string

	// Event is the version-control event slot the hook occupies.
	Event string

	// DependsOn lists hook IDs whose setup must run first.
	DependsOn []string

	// Defaults overlay the schema defaults at registration time.
	Defaults map[string]any

	Hook hook.Hook
}

// entry pairs a descriptor with its implementation and built pipeline.
type entry struct {
	desc     *hook.Descriptor
	impl     hook.Hook
	pipeline *hook.Pipeline
}

// Registry holds every registered hook for one process run.
type Registry struct {
	hooks map[string]*entry

	// order preserves registration order for listing and dependency
	// discovery.
	order []string

	installer  *install.Manager
	configPath string
}

// New returns an empty registry writing scripts through installer and
// persisting configuration at configPath.
func New(installer *install.Manager, configPath string) *Registry {
	return &Registry{
		hooks:      make(map[string]*entry),
		installer:  installer,
		configPath: configPath,
	}
}

// Register constructs the descriptor for reg, merging schema defaults
// with the supplied defaults, builds the hook's pipeline, and stores the
// entry. Registering an ID twice overwrites the previous entry in place
// and logs a warning.
func (r *Registry) Register(reg Registration) (*hook.Descriptor, error) {
	if reg.ID == "" || reg.Hook == nil {
		return nil, fmt.Errorf("registration requires an id and a hook")
	}

	desc := hook.NewDescriptor(reg.ID, reg.Name, reg.Description, reg.Event, reg.Hook.Schema())
	desc.DependsOn = reg.DependsOn
	desc.Apply(reg.Defaults)

	if err := reg.Hook.Configure(desc); err != nil {
		return nil, fmt.Errorf("failed to configure hook %s: %w", reg.ID, err)
	}

	pipeline := hook.NewPipeline()
	reg.Hook.Register(pipeline)

	if _, exists := r.hooks[reg.ID]; exists {
		log.Warn().Str("hook", reg.ID).Msg("re-registering existing hook, previous registration replaced")
	} else {
		r.order = append(r.order, reg.ID)
	}
	r.hooks[reg.ID] = &entry{desc: desc, impl: reg.Hook, pipeline: pipeline}
	return desc, nil
}

// Len reports how many hooks are registered.
func (r *Registry) Len() int { return len(r.hooks) }

// Get returns the descriptor for id, nil when unknown.
func (r *Registry) Get(id string) *hook.Descriptor {
	if e, ok := r.hooks[id]; ok {
		return e.desc
	}
	return nil
}

// List returns every descriptor in registration order.
func (r *Registry) List() []*hook.Descriptor {
	descs := make([]*hook.Descriptor, 0, len(r.order))
	for _, id := range r.order {
		descs = append(descs, r.hooks[id].desc)
	}
	return descs
}

// ByEvent returns the hook occupying an event slot, nil when the slot is
// unbound. Slot occupancy is unique: the last registration for an event
// wins, consistent with ID overwrite semantics.
func (r *Registry) ByEvent(event string) *hook.Descriptor {
	var found *hook.Descriptor
	for _, id := range r.order {
		if r.hooks[id].desc.Event == event {
			found = r.hooks[id].desc
		}
	}
	return found
}

// SetEnabled flips a hook's enabled flag. Unknown IDs are an error.
func (r *Registry) SetEnabled(id string, enabled bool) error {
	e, ok := r.hooks[id]
	if !ok {
		return fmt.Errorf("unknown hook %q", id)
	}
	e.desc.Enabled = enabled
	return nil
}

// Dispatch runs the hook bound to event through its pipeline and returns
// the result. An unbound event yields a skipped result so the triggering
// version-control operation proceeds.
func (r *Registry) Dispatch(ctx *hook.Context) *hook.Result {
	var target *entry
	for _, id := range r.order {
		if r.hooks[id].desc.Event == ctx.Event {
			target = r.hooks[id]
		}
	}
	if target == nil {
		log.Debug().Str("event", ctx.Event).Msg("no hook bound to event")
		return hook.Skipped(fmt.Sprintf("no hook bound to event %s", ctx.Event))
	}

	ctx.Logger = ctx.Logger.With().Str("hook", target.desc.ID).Logger()
	res := target.pipeline.Run(ctx, target.impl.ShouldRun)
	// Blocking policy is applied here, after the pipeline finishes, so it
	// covers every path out of the run including short-circuits and errors.
	hook.ApplyPolicy(target.desc, res)
	return res
}

// SetupOptions controls one batch setup run.
type SetupOptions struct {
	// DryRun logs what would happen without touching disk.
	DryRun bool

	// Only restricts the batch to a single hook ID when non-empty.
	Only string
}

// SetupHooks installs the scripts of every enabled hook in dependency
// order. One hook's failure is recorded and the batch continues; the
// two returned lists name the hooks that succeeded and failed.
func (r *Registry) SetupHooks(opts SetupOptions) (succeeded, failed []string) {
	selected := r.selectIDs(opts.Only)
	for _, id := range r.dependencyOrder(selected) {
		e := r.hooks[id]
		if err := r.setupOne(e, opts.DryRun); err != nil {
			log.Error().Str("hook", id).Err(err).Msg("hook setup failed")
			failed = append(failed, e.desc.Name)
			continue
		}
		succeeded = append(succeeded, e.desc.Name)
	}
	return succeeded, failed
}

// selectIDs filters to enabled hooks, optionally narrowed to one ID.
func (r *Registry) selectIDs(only string) []string {
	var ids []string
	for _, id := range r.order {
		if only != "" && id != only {
			continue
		}
		if !r.hooks[id].desc.Enabled {
			log.Debug().Str("hook", id).Msg("skipping disabled hook")
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// dependencyOrder sorts ids so dependencies come before their dependents,
// by depth-first traversal of the declared edges. A cycle is logged and
// the offending hook is appended in discovery order; the batch never
// aborts on one. Edges to hooks outside ids are ignored.
func (r *Registry) dependencyOrder(ids []string) []string {
	inBatch := make(map[string]bool, len(ids))
	for _, id := range ids {
		inBatch[id] = true
	}

	ordered := make([]string, 0, len(ids))
	visited := make(map[string]bool)
	visiting := make(map[string]bool)

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		if visiting[id] {
			log.Warn().Str("hook", id).Msg("dependency cycle detected, keeping discovery order")
			return
		}
		visiting[id] = true
		for _, dep := range r.hooks[id].desc.DependsOn {
			if inBatch[dep] {
				visit(dep)
			}
		}
		delete(visiting, id)
		visited[id] = true
		ordered = append(ordered, id)
	}

	for _, id := range ids {
		visit(id)
	}
	return ordered
}

// setupOne installs one hook's script and runs its AFTER_SETUP chain.
func (r *Registry) setupOne(e *entry, dryRun bool) error {
	if dryRun {
		log.Info().
			Str("hook", e.desc.ID).
			Str("path", r.installer.ScriptPath(e.desc.Event)).
			Msg("dry run: would install hook script")
		return nil
	}

	if err := r.installer.Install(e.desc.Event); err != nil {
		return err
	}

	hctx := r.lifecycleContext(e)
	if _, err := e.pipeline.RunPhase(hctx, hook.PhaseAfterSetup); err != nil {
		return fmt.Errorf("after-setup middleware failed: %w", err)
	}
	log.Info().Str("hook", e.desc.ID).Str("event", e.desc.Event).Msg("hook installed")
	return nil
}

// RemoveHooks removes every hook's script, marker-gated, restoring the
// latest backup per slot. Per-hook failures are collected, not fatal.
func (r *Registry) RemoveHooks(only string) (succeeded, failed []string) {
	for _, id := range r.order {
		e := r.hooks[id]
		if only != "" && id != only {
			continue
		}
		if err := r.removeOne(e); err != nil {
			log.Error().Str("hook", id).Err(err).Msg("hook removal failed")
			failed = append(failed, e.desc.Name)
			continue
		}
		succeeded = append(succeeded, e.desc.Name)
	}
	return succeeded, failed
}

// removeOne runs the BEFORE_REMOVE chain then deletes the script. A slot
// holding an unmanaged script is a refusal, reported as a failure without
// touching disk.
func (r *Registry) removeOne(e *entry) error {
	hctx := r.lifecycleContext(e)
	if _, err := e.pipeline.RunPhase(hctx, hook.PhaseBeforeRemove); err != nil {
		return fmt.Errorf("before-remove middleware failed: %w", err)
	}

	removed, err := r.installer.Remove(e.desc.Event)
	if err != nil {
		return err
	}
	if removed {
		log.Info().Str("hook", e.desc.ID).Str("event", e.desc.Event).Msg("hook removed")
	}
	return nil
}

// lifecycleContext builds the context handed to the installation
// lifecycle phases.
func (r *Registry) lifecycleContext(e *entry) *hook.Context {
	// The configuration document lives in the project's state directory;
	// its grandparent is the project root.
	hctx := hook.NewContext(e.desc.Event, nil, filepath.Dir(filepath.Dir(r.configPath)))
	hctx.Logger = hctx.Logger.With().Str("hook", e.desc.ID).Logger()
	return hctx
}

// configDoc is the persisted configuration document shape.
type configDoc struct {
	Version int                       `json:"version"`
	Hooks   map[string]map[string]any `json:"hooks"`
}

// SaveConfig writes every hook's schema-declared fields to the
// configuration document, keyed by hook ID.
func (r *Registry) SaveConfig() error {
	doc := configDoc{Version: configVersion, Hooks: make(map[string]map[string]any, len(r.hooks))}
	for id, e := range r.hooks {
		doc.Hooks[id] = e.desc.Values()
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.configPath), 0750); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}
	if err := os.WriteFile(r.configPath, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	log.Debug().Str("path", r.configPath).Msg("configuration saved")
	return nil
}

// LoadConfig applies the persisted document to the registered hooks.
// A missing file leaves schema defaults in place. Unknown hook IDs and
// unknown fields are ignored; missing fields fall back to their schema
// defaults. Load never fails on document content, only on I/O.
func (r *Registry) LoadConfig() error {
	data, err := os.ReadFile(r.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read configuration: %w", err)
	}

	var doc configDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Warn().Str("path", r.configPath).Err(err).Msg("ignoring corrupt configuration document")
		return nil
	}

	for id, values := range doc.Hooks {
		e, ok := r.hooks[id]
		if !ok {
			log.Debug().Str("hook", id).Msg("configuration for unregistered hook ignored")
			continue
		}
		e.desc.Apply(values)
		if err := e.impl.Configure(e.desc); err != nil {
			log.Warn().Str("hook", id).Err(err).Msg("hook rejected loaded configuration")
		}
	}
	return nil
}
