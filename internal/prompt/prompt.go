// Package prompt resolves and renders the per-hook prompt templates sent
// to the generative backend.
//
// Templates are JSON documents {system, user, model, max_tokens,
// temperature} with {{placeholder}} substitution in the system and user
// strings. A user override at .hookwise/prompts/<name>.json wins over the
// built-in document embedded in the binary.
package prompt

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.json
var builtin embed.FS

// Template is one hook's prompt document.
type Template struct {
	System      string  `json:"system"`
	User        string  `json:"user"`
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Load resolves the template for name: the override file under
// overrideDir when present and parseable, the embedded fallback
// otherwise. A corrupt override is logged and ignored rather than
// breaking the hook.
func Load(overrideDir, name string) (*Template, error) {
	if overrideDir != "" {
		path := filepath.Join(overrideDir, name+".json")
		if data, err := os.ReadFile(path); err == nil {
			t, parseErr := parse(data)
			if parseErr == nil {
				log.Debug().Str("template", name).Str("path", path).Msg("using prompt override")
				return t, nil
			}
			log.Warn().Str("path", path).Err(parseErr).Msg("ignoring corrupt prompt override")
		}
	}

	data, err := builtin.ReadFile("templates/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("no prompt template named %q: %w", name, err)
	}
	return parse(data)
}

func parse(data []byte) (*Template, error) {
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	if strings.TrimSpace(t.User) == "" {
		return nil, fmt.Errorf("prompt template has an empty user section")
	}
	return &t, nil
}

// Render substitutes {{key}} placeholders in the system and user sections
// and joins them into the single prompt string sent down a backend
// channel. Placeholders without a value render empty.
func (t *Template) Render(vars map[string]string) string {
	system := substitute(t.System, vars)
	user := substitute(t.User, vars)
	if system == "" {
		return user
	}
	return system + "\n\n" + user
}

// substitute replaces every {{key}} occurrence. Unknown placeholders
// collapse to "" so a stale override never leaks braces into a prompt.
func substitute(s string, vars map[string]string) string {
	for {
		start := strings.Index(s, "{{")
		if start < 0 {
			return s
		}
		end := strings.Index(s[start:], "}}")
		if end < 0 {
			return s
		}
		key := strings.TrimSpace(s[start+2 : start+end])
		s = s[:start] + vars[key] + s[start+end+2:]
	}
}

// budgetEncoding is the tokenizer used for budgeting. Claude does not
// publish its tokenizer; cl100k_base is close enough for a safety margin.
const budgetEncoding = "cl100k_base"

// TruncateToTokens bounds s to at most max tokens, appending a truncation
// notice when anything was cut. When the tokenizer cannot be loaded the
// bound degrades to a byte estimate of four bytes per token.
func TruncateToTokens(s string, max int) string {
	if max <= 0 {
		return s
	}

	enc, err := tiktoken.GetEncoding(budgetEncoding)
	if err != nil {
		log.Warn().Err(err).Msg("tokenizer unavailable, using byte estimate")
		limit := max * 4
		if len(s) <= limit {
			return s
		}
		return s[:limit] + "\n... [truncated]"
	}

	tokens := enc.Encode(s, nil, nil)
	if len(tokens) <= max {
		return s
	}
	return enc.Decode(tokens[:max]) + "\n... [truncated]"
}
