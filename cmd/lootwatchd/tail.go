package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lootwatch/lootwatchd/internal/tailer"
	"github.com/lootwatch/lootwatchd/pkg/log"
)

// runTail runs the Collector pipeline against the game log without
// serving HTTP: useful for headless operation or for warming the store
// before a later "serve" run picks it back up.
func runTail(args []string) int {
	fs := flag.NewFlagSet("tail", flag.ExitOnError)
	var common commonFlags
	bindCommonFlags(fs, &common)
	var gameLog string
	fs.StringVar(&gameLog, "log", "", "Path to the game's own log file to tail (default: config logPath)")
	fs.Parse(args)

	env, err := openEnvironment(&common)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer env.Close()

	gameLogPath, err := resolveGameLogPath(gameLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	p, err := buildPipeline(env, gameLogPath)
	if err != nil {
		log.Error(err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("tail: shutting down")
		cancel()
	}()

	if p.cloud != nil {
		if err := p.cloud.Start(ctx); err != nil {
			log.Errorf("tail: cloud sync worker: %v", err)
		}
		defer p.cloud.Stop()
	}

	if err := p.collector.Run(ctx, p.tailer, func(pos tailer.Position) error {
		return p.persistOffset(pos, env.store)
	}); err != nil {
		log.Error(err)
		return 1
	}
	return 0
}
