package hook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func policySchema() Schema {
	return BaseSchema().Merge(Schema{
		"pattern":      {Type: FieldString, Default: `^(feature|fix)/`},
		"max_len":      {Type: FieldNumber, Default: float64(72)},
		"allow_list":   {Type: FieldArray, Default: []any{"main", "develop"}},
		"ai_overrides": {Type: FieldObject, Default: map[string]any{"model": "claude-3-5-haiku-latest"}},
	})
}

// TestDescriptor_DefaultsApplied verifies a fresh descriptor carries every
// schema default.
func TestDescriptor_DefaultsApplied(t *testing.T) {
	d := NewDescriptor("branch-policy", "Branch Policy", "", "pre-push", policySchema())

	assert.True(t, d.Enabled)
	assert.Equal(t, BlockingModeWarn, d.BlockingMode)
	assert.Equal(t, StrictnessMedium, d.Strictness)
	assert.True(t, d.PreferCLI)
	assert.Equal(t, SeverityHigh, d.BlockOnSeverity)
	assert.Equal(t, `^(feature|fix)/`, d.Extra["pattern"])
	assert.Equal(t, float64(72), d.Extra["max_len"])
}

// TestDescriptor_ApplyIgnoresUnknownFields verifies unknown keys never
// error and never land in the descriptor.
func TestDescriptor_ApplyIgnoresUnknownFields(t *testing.T) {
	d := NewDescriptor("branch-policy", "Branch Policy", "", "pre-push", policySchema())
	d.Apply(map[string]any{
		"enabled":       false,
		"mystery_field": "ignored",
		"another_field": 42,
		"blocking_mode": "block",
	})

	assert.False(t, d.Enabled)
	assert.Equal(t, BlockingModeBlock, d.BlockingMode)
	_, exists := d.Extra["mystery_field"]
	assert.False(t, exists)
}

// TestDescriptor_ApplyWrongTypeFallsBack verifies a value of the wrong
// type falls back to the schema default instead of erroring.
func TestDescriptor_ApplyWrongTypeFallsBack(t *testing.T) {
	d := NewDescriptor("branch-policy", "Branch Policy", "", "pre-push", policySchema())
	d.Apply(map[string]any{
		"enabled": "yes",
		"max_len": "seventy-two",
	})

	assert.True(t, d.Enabled)
	assert.Equal(t, float64(72), d.Extra["max_len"])
}

// TestDescriptor_ValuesRoundTrip verifies Apply(Values()) is lossless for
// booleans, strings, numbers, arrays and nested objects.
func TestDescriptor_ValuesRoundTrip(t *testing.T) {
	d := NewDescriptor("branch-policy", "Branch Policy", "", "pre-push", policySchema())
	d.Apply(map[string]any{
		"enabled":           false,
		"blocking_mode":     "block",
		"strictness":        "high",
		"prefer_cli":        false,
		"block_on_severity": "medium",
		"pattern":           `^release/`,
		"max_len":           float64(50),
		"allow_list":        []any{"main"},
		"ai_overrides":      map[string]any{"model": "claude-sonnet-4-5", "nested": map[string]any{"k": true}},
	})

	values := d.Values()

	restored := NewDescriptor("branch-policy", "Branch Policy", "", "pre-push", policySchema())
	restored.Apply(values)

	assert.Equal(t, values, restored.Values())
	assert.False(t, restored.Enabled)
	assert.Equal(t, BlockingModeBlock, restored.BlockingMode)
	assert.Equal(t, StrictnessHigh, restored.Strictness)
	assert.Equal(t, SeverityMedium, restored.BlockOnSeverity)
	assert.Equal(t, `^release/`, restored.Extra["pattern"])
	assert.Equal(t, float64(50), restored.Extra["max_len"])
}

// TestDescriptor_IntNormalizedToFloat verifies Go int inputs normalize to
// the JSON-native float64 representation.
func TestDescriptor_IntNormalizedToFloat(t *testing.T) {
	d := NewDescriptor("branch-policy", "Branch Policy", "", "pre-push", policySchema())
	d.Apply(map[string]any{"max_len": 100})

	require.IsType(t, float64(0), d.Extra["max_len"])
	assert.Equal(t, float64(100), d.Extra["max_len"])
}

// TestSchema_MergeOverlaysKeys verifies Merge copies and that extra keys win.
func TestSchema_MergeOverlaysKeys(t *testing.T) {
	base := BaseSchema()
	merged := base.Merge(Schema{
		"enabled": {Type: FieldBool, Default: false},
		"custom":  {Type: FieldString, Default: "x"},
	})

	assert.Equal(t, false, merged["enabled"].Default)
	assert.Equal(t, "x", merged["custom"].Default)
	// base untouched
	assert.Equal(t, true, base["enabled"].Default)
}
