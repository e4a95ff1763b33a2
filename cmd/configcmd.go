package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/hookwise/hookwise/internal/config"
)

// cmdConfig reads or patches single fields of the hook configuration
// document without disturbing the rest of it.
func cmdConfig(args []string) int {
	if len(args) == 0 {
		printError("usage: hookwise config get <path> | set <path> <value>")
		return 2
	}

	switch args[0] {
	case "get":
		return cmdConfigGet(args[1:])
	case "set":
		return cmdConfigSet(args[1:])
	default:
		printError(fmt.Sprintf("unknown config subcommand %q", args[0]))
		return 2
	}
}

func cmdConfigGet(args []string) int {
	fs := flag.NewFlagSet("config get", flag.ExitOnError)
	g := addGlobalFlags(fs)
	_ = fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 1 {
		printError("usage: hookwise config get <path>  (e.g. hooks.commit-msg.enabled)")
		return 2
	}

	a, err := newApp(g)
	if err != nil {
		printError(err.Error())
		return 1
	}
	// newApp already materialized defaults; persist so the document the
	// user addresses always exists.
	if err := a.registry.SaveConfig(); err != nil {
		printError(err.Error())
		return 1
	}

	data, err := os.ReadFile(config.HooksConfigPath(a.projectRoot))
	if err != nil {
		printError(err.Error())
		return 1
	}

	value := gjson.GetBytes(data, rest[0])
	if !value.Exists() {
		printError(fmt.Sprintf("no value at %q", rest[0]))
		return 1
	}
	fmt.Println(value.String())
	return 0
}

func cmdConfigSet(args []string) int {
	fs := flag.NewFlagSet("config set", flag.ExitOnError)
	g := addGlobalFlags(fs)
	_ = fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 2 {
		printError("usage: hookwise config set <path> <value>")
		return 2
	}
	path, raw := rest[0], rest[1]

	a, err := newApp(g)
	if err != nil {
		printError(err.Error())
		return 1
	}
	if err := a.registry.SaveConfig(); err != nil {
		printError(err.Error())
		return 1
	}

	configPath := config.HooksConfigPath(a.projectRoot)
	data, err := os.ReadFile(configPath)
	if err != nil {
		printError(err.Error())
		return 1
	}

	patched, err := sjson.SetBytes(data, path, parseScalar(raw))
	if err != nil {
		printError(fmt.Sprintf("failed to set %q: %v", path, err))
		return 1
	}
	if err := os.WriteFile(configPath, patched, 0600); err != nil {
		printError(err.Error())
		return 1
	}
	printSuccess(fmt.Sprintf("%s = %s", path, raw))
	return 0
}

// parseScalar maps the CLI string to the JSON type it spells: bools and
// numbers stay typed, everything else is a string.
func parseScalar(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
		return b
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}
