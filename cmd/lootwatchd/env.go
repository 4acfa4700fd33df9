package main

import (
	"flag"
	"path/filepath"
	"time"

	"github.com/google/gops/agent"

	"github.com/lootwatch/lootwatchd/internal/config"
	"github.com/lootwatch/lootwatchd/internal/store"
	"github.com/lootwatch/lootwatchd/pkg/log"
	"github.com/lootwatch/lootwatchd/pkg/runtimeEnv"
)

// commonFlags are accepted by every subcommand that touches persisted
// state, mirroring the teacher's practice of sharing a handful of
// global flags (-config, -gops, ...) across its own subcommands.
type commonFlags struct {
	portable   bool
	configFile string
	dataDir    string
	gops       bool
	logLevel   string
}

func bindCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.BoolVar(&f.portable, "portable", false, "Keep all persisted state beside the executable instead of the per-user data directory")
	fs.StringVar(&f.configFile, "config", "", "Overwrite the default configuration with the contents of `config.json`")
	fs.StringVar(&f.dataDir, "data-dir", "", "Use `dir` for persisted state instead of resolving one from -portable")
	fs.BoolVar(&f.gops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	fs.StringVar(&f.logLevel, "log-level", "info", "Minimum level logged to the daemon's own log file (debug, info, warn, err)")
}

// environment is everything a subcommand needs after bootstrap: the
// resolved data directory, an opened Store, and the daemon's own log
// file (already installed as pkg/log's output).
type environment struct {
	dataDir   string
	store     *store.Store
	daemonLog *runtimeEnv.RotatingFile
}

// openEnvironment performs the bootstrap every stateful subcommand
// shares: load .env, resolve the data directory, install the rotating
// daemon log, load the config file, migrate a legacy store if found,
// and open the canonical store. Callers must Close() the returned
// environment (and the Store within it) when done.
func openEnvironment(f *commonFlags) (*environment, error) {
	if f.gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			return nil, err
		}
	}

	if err := runtimeEnv.LoadDotEnv("./.env"); err != nil {
		return nil, err
	}

	dataDir := f.dataDir
	if dataDir == "" {
		dir, err := runtimeEnv.DataDir(f.portable)
		if err != nil {
			return nil, err
		}
		dataDir = dir
	}

	log.SetLevel(f.logLevel)
	daemonLog, err := runtimeEnv.NewRotatingFile(
		filepath.Join(dataDir, "lootwatchd.log"),
		runtimeEnv.DefaultRotateBytes, runtimeEnv.DefaultRotateKeep)
	if err != nil {
		return nil, err
	}
	log.SetOutput(daemonLog)

	if err := config.Init(f.configFile); err != nil {
		daemonLog.Close()
		return nil, err
	}

	canonicalStorePath := config.Keys.DB
	if !filepath.IsAbs(canonicalStorePath) {
		canonicalStorePath = filepath.Join(dataDir, filepath.Base(canonicalStorePath))
	}
	legacyStorePath := filepath.Join(dataDir, "lootwatch.legacy.db")
	if err := runtimeEnv.MigrateLegacyStore(legacyStorePath, canonicalStorePath); err != nil {
		log.Warnf("env: legacy store migration: %v", err)
	}

	s, err := store.Open(config.Keys.DBDriver, canonicalStorePath)
	if err != nil {
		daemonLog.Close()
		return nil, err
	}

	return &environment{dataDir: dataDir, store: s, daemonLog: daemonLog}, nil
}

func (e *environment) Close() {
	e.store.Close()
	e.daemonLog.Close()
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warnf("env: invalid duration %q, using %s", s, fallback)
		return fallback
	}
	return d
}
