package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hookwise/hookwise/internal/config"
	"github.com/hookwise/hookwise/internal/history"
)

// cmdHistory renders the invocation audit log.
func cmdHistory(args []string) int {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	g := addGlobalFlags(fs)
	limit := fs.Int("limit", 20, "number of rows")
	format := fs.String("format", "table", "output format: table, json, yaml")
	_ = fs.Parse(args)

	root, err := resolveProjectRoot(g.project)
	if err != nil {
		printError(err.Error())
		return 1
	}

	store, err := history.Open(config.HistoryPath(root))
	if err != nil {
		printError(err.Error())
		return 1
	}
	defer store.Close()

	records, err := store.Recent(context.Background(), *limit)
	if err != nil {
		printError(err.Error())
		return 1
	}

	switch *format {
	case "table":
		if len(records) == 0 {
			printInfo("no invocations recorded yet")
			return 0
		}
		fmt.Printf("%-20s %-14s %-12s %-9s %-7s %-8s %s\n",
			"WHEN", "HOOK", "EVENT", "STATUS", "BLOCK", "CHANNEL", "DURATION")
		for _, rec := range records {
			fmt.Printf("%-20s %-14s %-12s %-9s %-7t %-8s %s\n",
				rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				rec.Hook, rec.Event, rec.Status, rec.ShouldBlock, rec.Channel, rec.Duration)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			printError(err.Error())
			return 1
		}
	case "yaml":
		if err := yaml.NewEncoder(os.Stdout).Encode(records); err != nil {
			printError(err.Error())
			return 1
		}
	default:
		printError(fmt.Sprintf("unknown format %q", *format))
		return 2
	}
	return 0
}
