// Command lootwatchd is the loot-tracking daemon: it tails an ARPG
// client's log file, derives inventory deltas, segments them into
// runs, values them against known prices, and optionally syncs prices
// with a remote aggregation service. See internal/httpapi for the
// local REST surface exposed while "serve" is running.
package main

import (
	"fmt"
	"os"
)

func usage() {
	fmt.Fprintln(os.Stderr, `lootwatchd <command> [flags]

Commands:
  init        Create (and optionally seed) the local store, then exit
  serve       Run the tracker daemon and its local HTTP API
  tail        Run the tracker daemon without the HTTP API
  show-runs   Print recent runs for a player scope
  show-state  Print current inventory for a player scope

Run "lootwatchd <command> -h" for command-specific flags.`)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "init":
		return runInit(rest)
	case "serve":
		return runServe(rest)
	case "tail":
		return runTail(rest)
	case "show-runs":
		return runShowRuns(rest)
	case "show-state":
		return runShowState(rest)
	case "-h", "--help", "help":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "lootwatchd: unknown command %q\n\n", cmd)
		usage()
		return 2
	}
}
