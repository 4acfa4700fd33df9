package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/lootwatch/lootwatchd/pkg/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*
var schemaFiles embed.FS

func loadEmbedded(s string) (io.ReadCloser, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return schemaFiles.Open(u.Path)
}

func init() {
	jsonschema.Loaders["embedFS"] = loadEmbedded
}

// ValidateConfig validates a decoded ProgramConfig JSON document against
// config.schema.json before it is merged onto the defaults, the same
// fail-fast-on-malformed-input pattern the teacher applies to its own
// config file.
func ValidateConfig(r io.Reader) error {
	s, err := jsonschema.Compile("embedFS://schemas/config.schema.json")
	if err != nil {
		return err
	}

	var v interface{}
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		log.Errorf("schema.ValidateConfig: decode failed: %v", err)
		return err
	}

	if err := s.Validate(v); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}
