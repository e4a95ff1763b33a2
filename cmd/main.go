// Package main is the hookwise entry point: the dispatcher invoked by
// the generated hook scripts plus the management commands around it.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/hookwise/hookwise/internal/config"
)

const appVersion = "0.3.0"

// ANSI print helpers, stdout. Hook output never goes through these; the
// run command writes to stderr to keep stdout clean for git.
func printSuccess(msg string) {
	fmt.Printf("\033[0;32m[OK]\033[0m %s\n", msg)
}

func printInfo(msg string) {
	fmt.Printf("\033[0;34m[INFO]\033[0m %s\n", msg)
}

func printWarn(msg string) {
	fmt.Printf("\033[1;33m[WARN]\033[0m %s\n", msg)
}

func printError(msg string) {
	fmt.Printf("\033[0;31m[ERROR]\033[0m %s\n", msg)
}

func printStep(msg string) {
	fmt.Printf("\033[0;36m>>>\033[0m %s\n", msg)
}

// globalFlags are accepted by every subcommand after its name.
type globalFlags struct {
	debug   bool
	quiet   bool
	logJSON bool
	project string
}

func addGlobalFlags(fs *flag.FlagSet) *globalFlags {
	g := &globalFlags{}
	fs.BoolVar(&g.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&g.quiet, "quiet", false, "errors only")
	fs.BoolVar(&g.logJSON, "log-json", false, "force JSON log lines")
	fs.StringVar(&g.project, "project", "", "project directory (default: current repository)")
	return g
}

// loadEnvFiles loads credentials from the project-local .hookwise/.env
// first, then the repository .env. First value wins, so the hookwise
// file takes precedence.
func loadEnvFiles(projectRoot string) {
	_ = godotenv.Load(config.EnvPath(projectRoot))
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	var code int
	switch cmd := os.Args[1]; cmd {
	case "run":
		code = cmdRun(os.Args[2:])
	case "setup", "install":
		code = cmdSetup(os.Args[2:])
	case "remove", "uninstall":
		code = cmdRemove(os.Args[2:])
	case "list":
		code = cmdList(os.Args[2:])
	case "enable":
		code = cmdSetEnabled(os.Args[2:], true)
	case "disable":
		code = cmdSetEnabled(os.Args[2:], false)
	case "config":
		code = cmdConfig(os.Args[2:])
	case "history":
		code = cmdHistory(os.Args[2:])
	case "doctor":
		code = cmdDoctor(os.Args[2:])
	case "version", "-v", "--version":
		fmt.Printf("hookwise %s\n", appVersion)
	case "help", "-h", "--help":
		printUsage()
	default:
		printError(fmt.Sprintf("unknown command %q", cmd))
		printUsage()
		code = 2
	}
	os.Exit(code)
}

func printUsage() {
	fmt.Print(`hookwise - AI-assisted git hooks dispatcher

Usage:
  hookwise run <event> [args...]      dispatch one hook invocation (called by the installed scripts)
  hookwise setup [--dry-run] [--hook id]   install the enabled hooks into .git/hooks
  hookwise remove [--hook id]         remove installed hooks, restoring any backups
  hookwise list                       show registered hooks and their state
  hookwise enable <id>                enable a hook and persist the change
  hookwise disable <id>               disable a hook and persist the change
  hookwise config get <path>          read a value from the hook configuration
  hookwise config set <path> <value>  write a value into the hook configuration
  hookwise history [--limit n] [--format table|json|yaml]   show recent invocations
  hookwise doctor                     diagnose the environment
  hookwise version                    print the version

Global flags (after the command):
  --debug      enable debug logging
  --quiet      errors only
  --log-json   force JSON log lines
  --project    project directory (default: current repository)
`)
}
