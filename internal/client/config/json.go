package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/nixixoo/Notex/internal/flagx"
	"github.com/nixixoo/Notex/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the timeout either as a string like
// "30s" or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JsonConfig struct {
	APIBaseURL     string         `json:"api_base_url"`
	DatabasePath   string         `json:"database_path"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

// parseJson overlays cfg with values loaded from the JSON file named by the
// -c/-config flags. If no file is given, nothing happens. Only fields
// present in the file override the current values.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
}
