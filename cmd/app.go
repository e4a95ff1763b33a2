package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hookwise/hookwise/internal/backend"
	"github.com/hookwise/hookwise/internal/config"
	"github.com/hookwise/hookwise/internal/git"
	"github.com/hookwise/hookwise/internal/hooks"
	"github.com/hookwise/hookwise/internal/install"
	"github.com/hookwise/hookwise/internal/logging"
	"github.com/hookwise/hookwise/internal/registry"
)

// app wires one process run: resolved project, settings, the backend
// client, and the registry with every shipped hook registered and the
// persisted configuration applied.
type app struct {
	projectRoot string
	settings    *config.Settings
	gitc        *git.Client
	installer   *install.Manager
	registry    *registry.Registry
	backend     *backend.Client
}

// newApp builds the process wiring. Logging is configured first so every
// later step logs consistently.
func newApp(g *globalFlags) (*app, error) {
	root, err := resolveProjectRoot(g.project)
	if err != nil {
		return nil, err
	}

	loadEnvFiles(root)

	settings, err := config.Load(config.SettingsPath(root))
	if err != nil {
		return nil, err
	}

	logging.Setup(logging.Options{
		Debug: g.debug || settings.Logging.Level == "debug",
		Quiet: g.quiet,
		JSON:  g.logJSON,
		File:  settings.Logging.File,
	})

	gitc := git.New(root)
	hooksDir, err := gitc.HooksDir(context.Background())
	if err != nil {
		// Outside a repository management commands still need paths;
		// fall back to the conventional location.
		hooksDir = filepath.Join(root, ".git", "hooks")
	}

	a := &app{
		projectRoot: root,
		settings:    settings,
		gitc:        gitc,
		installer:   install.NewManager(hooksDir),
		backend:     backend.New(settings.Backend, config.CacheDir(root)),
	}
	a.registry = registry.New(a.installer, config.HooksConfigPath(root))

	deps := &hooks.Deps{
		Git:        gitc,
		Backend:    a.backend,
		Settings:   settings,
		PromptsDir: config.PromptsDir(root),
	}
	if err := hooks.RegisterAll(a.registry, deps); err != nil {
		return nil, err
	}
	if err := a.registry.LoadConfig(); err != nil {
		return nil, err
	}
	return a, nil
}

// resolveProjectRoot prefers the --project flag, then the enclosing
// repository, then the working directory.
func resolveProjectRoot(flagValue string) (string, error) {
	if flagValue != "" {
		abs, err := filepath.Abs(flagValue)
		if err != nil {
			return "", fmt.Errorf("invalid --project path: %w", err)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	if root, err := git.New(cwd).RepoRoot(context.Background()); err == nil {
		return root, nil
	}
	return cwd, nil
}
