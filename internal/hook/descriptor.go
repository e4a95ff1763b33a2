package hook

// BlockingMode decides whether a hook's findings may abort the triggering
// version-control operation.
type BlockingMode string

const (
	BlockingModeBlock BlockingMode = "block"
	BlockingModeWarn  BlockingMode = "warn"
	BlockingModeNone  BlockingMode = "none"
)

// Strictness tunes how aggressively a hook grades its findings.
type Strictness string

const (
	StrictnessLow    Strictness = "low"
	StrictnessMedium Strictness = "medium"
	StrictnessHigh   Strictness = "high"
)

// FieldType is the declared type of one persistable descriptor field.
type FieldType string

const (
	FieldBool   FieldType = "bool"
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldArray  FieldType = "array"
	FieldObject FieldType = "object"
)

// Field declares one schema property and its default.
type Field struct {
	Type    FieldType
	Default any
}

// Schema declares the persistable fields of a hook descriptor. Only
// schema-declared fields survive a config save/load round trip; anything
// else is ignored on load.
type Schema map[string]Field

// BaseSchema returns the fields every hook shares. Numbers use float64 so
// values compare equal across a JSON round trip.
func BaseSchema() Schema {
	return Schema{
		"enabled":           {Type: FieldBool, Default: true},
		"blocking_mode":     {Type: FieldString, Default: string(BlockingModeWarn)},
		"strictness":        {Type: FieldString, Default: string(StrictnessMedium)},
		"prefer_cli":        {Type: FieldBool, Default: true},
		"block_on_severity": {Type: FieldString, Default: string(SeverityHigh)},
	}
}

// Merge overlays extra onto a copy of s and returns it. Keys in extra win.
func (s Schema) Merge(extra Schema) Schema {
	merged := make(Schema, len(s)+len(extra))
	for k, f := range s {
		merged[k] = f
	}
	for k, f := range extra {
		merged[k] = f
	}
	return merged
}

// Descriptor is the registry's record of one hook: identity, slot binding,
// dependency edges, and the schema-declared configuration state. Created
// at registration, mutated by enable/disable and config load, never
// destroyed during a process run.
type Descriptor struct {
	ID          string
	Name        string
	Description string

	// Event is the version-control event slot this hook occupies.
	Event string

	// DependsOn lists hook IDs whose setup must complete first.
	DependsOn []string

	Enabled         bool
	BlockingMode    BlockingMode
	Strictness      Strictness
	PreferCLI       bool
	BlockOnSeverity Severity

	// Extra holds hook-specific schema fields by key.
	Extra map[string]any

	schema Schema
}

// NewDescriptor builds a descriptor from a schema, with every field at its
// schema default.
func NewDescriptor(id, name, description, event string, schema Schema) *Descriptor {
	d := &Descriptor{
		ID:          id,
		Name:        name,
		Description: description,
		Event:       event,
		Extra:       make(map[string]any),
		schema:      schema,
	}
	d.Apply(nil)
	return d
}

// Schema returns the descriptor's declared schema.
func (d *Descriptor) Schema() Schema { return d.schema }

// Apply sets every schema-declared field from values, falling back to the
// schema default when a key is missing or holds a value of the wrong type.
// Unknown keys in values are ignored. Apply never fails.
func (d *Descriptor) Apply(values map[string]any) {
	for key, field := range d.schema {
		v, ok := values[key]
		if ok {
			v, ok = normalize(field.Type, v)
		}
		if !ok {
			v, _ = normalize(field.Type, field.Default)
		}
		d.setField(key, v)
	}
}

// Values returns the schema-declared fields as a plain map, the shape
// persisted by the registry config document.
func (d *Descriptor) Values() map[string]any {
	values := make(map[string]any, len(d.schema))
	for key := range d.schema {
		values[key] = d.getField(key)
	}
	return values
}

func (d *Descriptor) setField(key string, v any) {
	switch key {
	case "enabled":
		d.Enabled, _ = v.(bool)
	case "blocking_mode":
		s, _ := v.(string)
		d.BlockingMode = BlockingMode(s)
	case "strictness":
		s, _ := v.(string)
		d.Strictness = Strictness(s)
	case "prefer_cli":
		d.PreferCLI, _ = v.(bool)
	case "block_on_severity":
		s, _ := v.(string)
		d.BlockOnSeverity = Severity(s)
	default:
		d.Extra[key] = v
	}
}

func (d *Descriptor) getField(key string) any {
	switch key {
	case "enabled":
		return d.Enabled
	case "blocking_mode":
		return string(d.BlockingMode)
	case "strictness":
		return string(d.Strictness)
	case "prefer_cli":
		return d.PreferCLI
	case "block_on_severity":
		return string(d.BlockOnSeverity)
	default:
		return d.Extra[key]
	}
}

// normalize coerces v to the JSON-native representation of the declared
// type, so values survive a marshal/unmarshal round trip unchanged.
func normalize(t FieldType, v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	switch t {
	case FieldBool:
		b, ok := v.(bool)
		return b, ok
	case FieldString:
		s, ok := v.(string)
		return s, ok
	case FieldNumber:
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
		return nil, false
	case FieldArray:
		a, ok := v.([]any)
		return a, ok
	case FieldObject:
		o, ok := v.(map[string]any)
		return o, ok
	}
	return nil, false
}
