// Package git runs read-only queries against the version-control tool.
//
// Query helpers degrade to empty results on failure so hooks never crash
// on a broken or absent repository; only repository resolution returns
// hard errors, because installation cannot proceed without it.
package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// commandTimeout bounds every subprocess call.
const commandTimeout = 30 * time.Second

// scissors marks the start of the verbose-diff section in a commit
// message file; everything from this line on is discarded.
const scissors = "# ------------------------ >8 ------------------------"

// Client issues git commands against one working directory.
type Client struct {
	dir string
}

// New returns a client rooted at dir.
func New(dir string) *Client {
	return &Client{dir: dir}
}

// run executes git with the given arguments and returns trimmed stdout.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.dir

	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

// RepoRoot resolves the repository's top-level working directory.
func (c *Client) RepoRoot(ctx context.Context) (string, error) {
	root, err := c.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %w", err)
	}
	return root, nil
}

// GitDir resolves the repository's .git directory as an absolute path.
func (c *Client) GitDir(ctx context.Context) (string, error) {
	gitDir, err := c.run(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return "", fmt.Errorf("failed to resolve git directory: %w", err)
	}
	if !filepath.IsAbs(gitDir) {
		root, err := c.RepoRoot(ctx)
		if err != nil {
			return "", err
		}
		gitDir = filepath.Join(root, gitDir)
	}
	return gitDir, nil
}

// HooksDir resolves the directory git reads hook scripts from, honoring
// core.hooksPath when set.
func (c *Client) HooksDir(ctx context.Context) (string, error) {
	if custom, err := c.run(ctx, "config", "--get", "core.hooksPath"); err == nil && custom != "" {
		if !filepath.IsAbs(custom) {
			root, err := c.RepoRoot(ctx)
			if err != nil {
				return "", err
			}
			custom = filepath.Join(root, custom)
		}
		return custom, nil
	}
	gitDir, err := c.GitDir(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(gitDir, "hooks"), nil
}

// CurrentBranch returns the checked-out branch name, "" when it cannot be
// determined (detached head, broken repo). `branch --show-current` prints
// the name even on an unborn branch, where HEAD does not resolve yet.
func (c *Client) CurrentBranch(ctx context.Context) string {
	branch, err := c.run(ctx, "branch", "--show-current")
	if err != nil {
		log.Warn().Err(err).Msg("current branch query failed")
		return ""
	}
	return branch
}

// StagedDiff returns the staged unified diff, "" on failure or when
// nothing is staged.
func (c *Client) StagedDiff(ctx context.Context) string {
	diff, err := c.run(ctx, "diff", "--cached", "--no-color")
	if err != nil {
		log.Warn().Err(err).Msg("staged diff query failed")
		return ""
	}
	return diff
}

// StagedFiles returns the staged file paths, nil on failure.
func (c *Client) StagedFiles(ctx context.Context) []string {
	out, err := c.run(ctx, "diff", "--cached", "--name-only", "-z")
	if err != nil {
		log.Warn().Err(err).Msg("staged files query failed")
		return nil
	}
	if out == "" {
		return nil
	}
	var files []string
	for _, f := range strings.Split(out, "\x00") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}

// RecentSubjects returns the subject lines of the last n commits, newest
// first, nil on failure.
func (c *Client) RecentSubjects(ctx context.Context, n int) []string {
	out, err := c.run(ctx, "log", fmt.Sprintf("-%d", n), "--format=%s")
	if err != nil {
		log.Warn().Err(err).Msg("commit log query failed")
		return nil
	}
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// CommitMessageFromFile reads a commit message file as handed to the
// commit-msg hook, dropping comment lines and the scissors section.
func CommitMessageFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read commit message file: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimRight(line, " \t") == scissors {
			break
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
