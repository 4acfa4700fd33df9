package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/lootwatch/lootwatchd/internal/cloudsync"
	"github.com/lootwatch/lootwatchd/internal/collector"
	"github.com/lootwatch/lootwatchd/internal/config"
	"github.com/lootwatch/lootwatchd/internal/httpapi"
	"github.com/lootwatch/lootwatchd/internal/segmenter"
	"github.com/lootwatch/lootwatchd/internal/store"
	"github.com/lootwatch/lootwatchd/internal/tailer"
	"github.com/lootwatch/lootwatchd/internal/valuation"
	"github.com/lootwatch/lootwatchd/pkg/log"
	"github.com/lootwatch/lootwatchd/pkg/runtimeEnv"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// tailPositionSettingKey is where the Tailer's resume position is
// persisted between restarts; not part of the externally-readable
// settings whitelist (internal/store.IsSettingReadable), since it is
// bookkeeping for this process, not user-facing configuration.
const tailPositionSettingKey = "tail-position"

// pipeline bundles the components every log-consuming subcommand
// (serve, tail) wires up identically, so the two subcommands differ
// only in whether an httpapi.RestApi and HTTP listener sit on top.
type pipeline struct {
	collector *collector.Collector
	valuation *valuation.Engine
	metrics   *httpapi.Metrics
	cloud     *cloudsync.Worker
	tailer    *tailer.Tailer
	logPath   string
}

// resolveGameLogPath returns the ARPG client's own log file path: an
// explicit override, else the configured default, else an error, since
// the Tailer has nothing to read without one.
func resolveGameLogPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if config.Keys.LogPath != "" {
		return config.Keys.LogPath, nil
	}
	return "", fmt.Errorf("no game log path given: pass -log or set logPath in the config file")
}

// buildPipeline assembles the Collector, Valuation Engine, metrics, and
// (if LOOTWATCH_CLOUD_URL/LOOTWATCH_CLOUD_KEY are set) the Cloud Sync
// Worker, then resumes the Tailer from its last persisted Position.
func buildPipeline(env *environment, gameLogPath string) (*pipeline, error) {
	classifier := segmenter.NewClassifier(
		config.Keys.HubPathPatterns, config.Keys.SubZoneSignatures, config.Keys.ZoneAliases)

	allowlist := make(schema.GearAllowlist, len(config.Keys.GearAllowlist))
	for _, t := range config.Keys.GearAllowlist {
		allowlist[t] = true
	}

	exchangeTimeout := parseDuration(config.Keys.ExchangeRequestTimeout, 10*time.Second)

	metrics := httpapi.NewMetrics()
	observer := httpapi.NewChangeObserver(metrics)

	c := collector.New(env.store, classifier, schema.GearPageID, allowlist,
		config.Keys.BaseCurrencyType, exchangeTimeout, observer)
	v := valuation.New(env.store, config.Keys.BaseCurrencyType)

	var worker *cloudsync.Worker
	if client, ok := cloudsync.NewFromEnv(os.Getenv("LOOTWATCH_CLOUD_URL"), os.Getenv("LOOTWATCH_CLOUD_KEY")); ok {
		deviceUUID, err := runtimeEnv.DeviceUUID(env.dataDir)
		if err != nil {
			return nil, err
		}
		worker = cloudsync.New(env.store, client, deviceUUID, config.Keys.BaseCurrencyType,
			c.CurrentSeasonID, c.CurrentScope, func(scope schema.PlayerScope) ([]schema.TypeId, error) {
				return env.store.TypeIdsInScope(scope)
			})
		worker.SetObserver(metrics)
	} else {
		log.Info("pipeline: LOOTWATCH_CLOUD_URL/LOOTWATCH_CLOUD_KEY not set, cloud sync disabled")
	}

	var start tailer.Position
	var persisted tailer.PersistablePosition
	switch err := env.store.GetSetting(tailPositionSettingKey, &persisted); {
	case err == nil:
		start = persisted.Position()
	case err == sql.ErrNoRows:
		// First run for this store: start from a cold-start backward scan below.
	default:
		return nil, err
	}

	t := tailer.New(gameLogPath, start, tailer.DefaultPollInterval)

	if start == (tailer.Position{}) {
		lines, err := tailer.BackwardScan(gameLogPath, config.Keys.TailCooldownBackwardBytes)
		if err != nil && err != tailer.ErrSourceUnavailable {
			return nil, err
		}
		if err := c.Prime(lines); err != nil {
			log.Warnf("pipeline: cold-start priming: %v", err)
		}
	}

	return &pipeline{collector: c, valuation: v, metrics: metrics, cloud: worker, tailer: t, logPath: gameLogPath}, nil
}

func (p *pipeline) persistOffset(pos tailer.Position, s *store.Store) error {
	return s.SetSetting(tailPositionSettingKey, pos.Persistable())
}

// newHTTPClient is the shared client for the icon CDN proxy, given its
// own timeout distinct from the exchange-quote client's.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
