// Package config loads and validates the program configuration file and
// exposes it as the package-level Keys value, following the same
// load-into-global-var pattern the teacher uses for its own config.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lootwatch/lootwatchd/internal/tailer"
	"github.com/lootwatch/lootwatchd/pkg/log"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// Keys holds the effective configuration: defaults overlaid by the
// config file, if one is present. cmd/lootwatchd decides the config
// file path (portable vs. per-user data dir) before calling Init.
var Keys schema.ProgramConfig = Defaults()

// Defaults returns the built-in configuration used when no config file
// is present, or as the base that a config file is decoded onto.
func Defaults() schema.ProgramConfig {
	return schema.ProgramConfig{
		Addr:     "localhost:8080",
		LogPath:  "",
		Portable: false,

		DBDriver: "sqlite3",
		DB:       "./lootwatch.db",

		SubZoneSignatures: []string{},
		HubPathPatterns:   []string{"/Hideout/", "/Town/"},
		ZoneAliases:       map[string]string{},
		GearAllowlist:     []schema.TypeId{},
		BaseCurrencyType:  0,

		CloudUplinkInterval:   "5m",
		CloudDownlinkInterval: "15m",

		ExchangeRequestTimeout: "10s",

		TailCooldownBackwardBytes: tailer.DefaultBackwardScanBytes, // 5 MiB
	}
}

// Init reads and validates flagConfigFile, if present, and decodes it
// onto the defaults. A missing file is not an error: the defaults are
// used as-is, the same "no config file is fine" behavior the teacher
// applies to its own optional config.json.
func Init(flagConfigFile string) error {
	if flagConfigFile == "" {
		return nil
	}

	raw, err := os.ReadFile(flagConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", flagConfigFile, err)
	}

	if err := schema.ValidateConfig(bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("config: validating %s: %w", flagConfigFile, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		return fmt.Errorf("config: decoding %s: %w", flagConfigFile, err)
	}

	log.Infof("config: loaded %s", flagConfigFile)
	return nil
}
