package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/hookwise/hookwise/internal/registry"
)

// cmdSetup installs the enabled hooks in dependency order.
func cmdSetup(args []string) int {
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	g := addGlobalFlags(fs)
	dryRun := fs.Bool("dry-run", false, "log what would happen without touching disk")
	only := fs.String("hook", "", "restrict to one hook id")
	_ = fs.Parse(args)

	a, err := newApp(g)
	if err != nil {
		printError(err.Error())
		return 1
	}

	printStep(fmt.Sprintf("installing hooks into %s", a.installer.Dir()))
	succeeded, failed := a.registry.SetupHooks(registry.SetupOptions{DryRun: *dryRun, Only: *only})

	for _, name := range succeeded {
		printSuccess(name)
	}
	for _, name := range failed {
		printError(fmt.Sprintf("%s failed, see log", name))
	}
	if len(succeeded) == 0 && len(failed) == 0 {
		printInfo("no enabled hooks to install")
	}
	if !*dryRun {
		if err := a.registry.SaveConfig(); err != nil {
			printWarn(err.Error())
		}
	}
	if len(failed) > 0 {
		return 1
	}
	return 0
}

// cmdRemove removes installed hooks, restoring backups.
func cmdRemove(args []string) int {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	g := addGlobalFlags(fs)
	only := fs.String("hook", "", "restrict to one hook id")
	_ = fs.Parse(args)

	a, err := newApp(g)
	if err != nil {
		printError(err.Error())
		return 1
	}

	succeeded, failed := a.registry.RemoveHooks(*only)
	for _, name := range succeeded {
		printSuccess(fmt.Sprintf("%s removed", name))
	}
	for _, name := range failed {
		printError(fmt.Sprintf("%s not removed, see log", name))
	}
	if len(failed) > 0 {
		return 1
	}
	return 0
}

// cmdList prints the descriptor table.
func cmdList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	g := addGlobalFlags(fs)
	_ = fs.Parse(args)

	a, err := newApp(g)
	if err != nil {
		printError(err.Error())
		return 1
	}

	fmt.Printf("%-14s %-12s %-9s %-9s %-10s %s\n",
		"ID", "EVENT", "ENABLED", "INSTALLED", "BLOCKING", "DESCRIPTION")
	for _, desc := range a.registry.List() {
		fmt.Printf("%-14s %-12s %-9t %-9t %-10s %s\n",
			desc.ID, desc.Event, desc.Enabled,
			a.installer.Installed(desc.Event), desc.BlockingMode, desc.Description)
	}
	return 0
}

// cmdSetEnabled flips a hook's enabled flag and persists it.
func cmdSetEnabled(args []string, enabled bool) int {
	fs := flag.NewFlagSet("enable", flag.ExitOnError)
	g := addGlobalFlags(fs)
	_ = fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 1 {
		printError("exactly one hook id required")
		return 2
	}
	id := strings.TrimSpace(rest[0])

	a, err := newApp(g)
	if err != nil {
		printError(err.Error())
		return 1
	}
	if err := a.registry.SetEnabled(id, enabled); err != nil {
		printError(err.Error())
		return 1
	}
	if err := a.registry.SaveConfig(); err != nil {
		printError(err.Error())
		return 1
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	printSuccess(fmt.Sprintf("%s %s", id, state))
	return 0
}
