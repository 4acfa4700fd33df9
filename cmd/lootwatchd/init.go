package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/lootwatch/lootwatchd/internal/util"
	"github.com/lootwatch/lootwatchd/pkg/log"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// runInit opens (creating and migrating, via store.Open) the canonical
// store and optionally seeds it with item display metadata, then exits.
// It never starts the pipeline: "init" is a one-shot setup step run
// before the first "serve".
func runInit(args []string) int {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var common commonFlags
	bindCommonFlags(fs, &common)
	var seedPath string
	fs.StringVar(&seedPath, "seed", "", "Seed the store with item display metadata from `items.json`")
	fs.Parse(args)

	env, err := openEnvironment(&common)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer env.Close()

	if seedPath == "" {
		log.Infof("init: store ready at %s", env.dataDir)
		return 0
	}

	raw, err := os.ReadFile(seedPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var items []schema.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		fmt.Fprintf(os.Stderr, "init: decoding %s: %v\n", seedPath, err)
		return 2
	}

	var seen []schema.TypeId
	inserted := 0
	for _, item := range items {
		if util.Contains(seen, item.TypeId) {
			log.Warnf("init: duplicate typeId %d in %s, keeping first occurrence", item.TypeId, seedPath)
			continue
		}
		seen = append(seen, item.TypeId)
		if err := env.store.UpsertItem(item); err != nil {
			log.Errorf("init: upserting item %d: %v", item.TypeId, err)
			return 1
		}
		inserted++
	}

	log.Infof("init: seeded %d items from %s", inserted, seedPath)
	return 0
}
