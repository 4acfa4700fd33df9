package schema

// ProgramConfig is the JSON configuration file format, overlaid on the
// defaults in internal/config. Unknown fields are rejected at decode time
// the same way the teacher's config loader does, so typos fail loudly
// instead of being silently ignored.
type ProgramConfig struct {
	Addr string `json:"addr"`

	LogPath   string `json:"logPath"`
	Portable  bool   `json:"portable"`

	DBDriver string `json:"dbDriver"`
	DB       string `json:"db"`

	// SubZoneSignatures and HubPathPatterns are configuration, not code
	// (spec.md §9 Open Question (a)).
	SubZoneSignatures []string         `json:"subZoneSignatures"`
	HubPathPatterns   []string         `json:"hubPathPatterns"`
	ZoneAliases       map[string]string `json:"zoneAliases"`
	GearAllowlist     []TypeId         `json:"gearAllowlist"`
	BaseCurrencyType  TypeId           `json:"baseCurrencyType"`

	CloudUplinkInterval   string `json:"cloudUplinkInterval"`
	CloudDownlinkInterval string `json:"cloudDownlinkInterval"`

	ExchangeRequestTimeout string `json:"exchangeRequestTimeout"`

	TailCooldownBackwardBytes int64 `json:"tailCooldownBackwardBytes"`
}
