package backend

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// cliChannel invokes the generative service through a local executable.
// The executable mirrors the networked channel's semantic inputs and
// outputs: prompt and model in, generated text out.
type cliChannel struct {
	bin     string
	timeout time.Duration
}

func newCLIChannel(bin string, timeout time.Duration) *cliChannel {
	return &cliChannel{bin: bin, timeout: timeout}
}

func (c *cliChannel) name() string { return "cli" }

// probe checks the executable exists on PATH (or at an absolute path).
func (c *cliChannel) probe(ctx context.Context) error {
	if _, err := exec.LookPath(c.bin); err != nil {
		return fmt.Errorf("command channel executable %q not found: %w", c.bin, err)
	}
	return nil
}

// invoke runs the executable in non-interactive print mode and extracts
// the generated text. JSON output is preferred; plain text is accepted
// as-is for executables without a JSON mode.
func (c *cliChannel) invoke(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{"-p", req.Prompt, "--output-format", "json"}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}

	cmd := exec.CommandContext(ctx, c.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("command channel call failed: %s", detail)
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", fmt.Errorf("command channel returned empty output")
	}

	log.Debug().
		Str("bin", c.bin).
		Dur("duration", time.Since(start)).
		Int("output_bytes", len(out)).
		Msg("command channel call complete")

	if gjson.Valid(out) {
		if result := gjson.Get(out, "result"); result.Exists() {
			return result.String(), nil
		}
	}
	return out, nil
}
