package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"

	"github.com/hookwise/hookwise/internal/config"
)

// cmdDoctor diagnoses the environment: the version-control tool, the
// backend channels, credentials, prompt overrides, and the state of every
// event slot including accumulated backups.
func cmdDoctor(args []string) int {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	g := addGlobalFlags(fs)
	_ = fs.Parse(args)

	a, err := newApp(g)
	if err != nil {
		printError(err.Error())
		return 1
	}

	healthy := true
	printStep("version control")
	if _, err := exec.LookPath("git"); err != nil {
		printError("git not found on PATH")
		healthy = false
	} else if root, err := a.gitc.RepoRoot(context.Background()); err != nil {
		printWarn("not inside a git repository")
	} else {
		printSuccess(fmt.Sprintf("repository at %s", root))
	}

	printStep("backend channels")
	cli, api := a.backend.Available(context.Background())
	reportChannel("command channel", cli)
	reportChannel("networked channel", api)
	if !cli && !api {
		printWarn("no channel available; hooks will use deterministic fallbacks only")
	}
	if os.Getenv("HOOKWISE_API_KEY") == "" &&
		os.Getenv("ANTHROPIC_API_KEY") == "" &&
		os.Getenv("ANTHROPIC_AUTH_TOKEN") == "" {
		printInfo("no API credential in environment (HOOKWISE_API_KEY / ANTHROPIC_API_KEY / ANTHROPIC_AUTH_TOKEN)")
	} else {
		printSuccess("API credential present")
	}

	printStep("prompt templates")
	overrides := 0
	if entries, err := os.ReadDir(config.PromptsDir(a.projectRoot)); err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				overrides++
			}
		}
	}
	if overrides > 0 {
		printInfo(fmt.Sprintf("%d prompt override(s) in %s", overrides, config.PromptsDir(a.projectRoot)))
	} else {
		printInfo("using built-in prompt templates")
	}

	printStep("event slots")
	for _, desc := range a.registry.List() {
		state := "absent"
		switch {
		case a.installer.Installed(desc.Event):
			state = "installed"
		default:
			if _, err := os.Stat(a.installer.ScriptPath(desc.Event)); err == nil {
				state = "foreign script"
			}
		}
		line := fmt.Sprintf("%s: %s", desc.Event, state)
		if n := len(a.installer.Backups(desc.Event)); n > 0 {
			// Backups are never pruned automatically; surface the count
			// so operators can clean up by hand.
			line = fmt.Sprintf("%s, %d backup(s)", line, n)
		}
		printInfo(line)
	}

	if healthy {
		printSuccess("environment looks usable")
		return 0
	}
	return 1
}

func reportChannel(name string, available bool) {
	if available {
		printSuccess(name + " available")
	} else {
		printWarn(name + " unavailable")
	}
}
