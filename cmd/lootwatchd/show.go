package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/lootwatch/lootwatchd/internal/store"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// runShowRuns prints recent runs for a scope as a table. It opens the
// store read-only: no Tailer, no Collector, no write path.
func runShowRuns(args []string) int {
	fs := flag.NewFlagSet("show-runs", flag.ExitOnError)
	var common commonFlags
	bindCommonFlags(fs, &common)
	var scope string
	var limit uint64
	var includeHubZones bool
	fs.StringVar(&scope, "scope", "", "Player scope to list runs for (required; see PUT /api/settings for the active scope)")
	fs.Uint64Var(&limit, "limit", 20, "Maximum number of runs to print")
	fs.BoolVar(&includeHubZones, "hub-zones", false, "Include hub-zone runs (excluded by default)")
	fs.Parse(args)

	if scope == "" {
		fmt.Fprintln(os.Stderr, "show-runs: -scope is required")
		return 2
	}

	env, err := openEnvironment(&common)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer env.Close()

	runs, err := env.store.ListRuns(store.RunFilter{Scope: schema.PlayerScope(scope), HubZones: includeHubZones}, 0, limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tZONE\tTYPE\tSTART\tEND\tSUB-ZONE")
	for _, r := range runs {
		end := "-"
		if r.EndTs != nil {
			end = r.EndTs.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%v\n",
			r.ID, r.ZoneSignature, r.LevelType,
			r.StartTs.Format("2006-01-02 15:04:05"), end, r.IsSubZone)
	}
	w.Flush()
	return 0
}

// runShowState prints the current inventory slot states for a scope.
func runShowState(args []string) int {
	fs := flag.NewFlagSet("show-state", flag.ExitOnError)
	var common commonFlags
	bindCommonFlags(fs, &common)
	var scope string
	fs.StringVar(&scope, "scope", "", "Player scope to print inventory for (required)")
	fs.Parse(args)

	if scope == "" {
		fmt.Fprintln(os.Stderr, "show-state: -scope is required")
		return 2
	}

	env, err := openEnvironment(&common)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer env.Close()

	slots, err := env.store.SlotStates(schema.PlayerScope(scope))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	open, err := env.store.OpenRun(schema.PlayerScope(scope))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if open != nil {
		fmt.Printf("open run: #%d in %s since %s\n\n", open.ID, open.ZoneSignature, open.StartTs.Format(time.RFC3339))
	} else {
		fmt.Println("no open run")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "PAGE\tSLOT\tTYPEID\tQTY")
	for key, state := range slots {
		if state.Empty() {
			continue
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", key.Page, key.Slot, state.TypeId, state.Quantity)
	}
	w.Flush()
	return 0
}
