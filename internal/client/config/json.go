package config

import (
	"encoding/json"
	"os"

	"github.com/dsavelev/speakerportal/internal/flagx"
	"github.com/dsavelev/speakerportal/internal/timex"
)

// jsonConfig is the DTO for JSON unmarshalling. timex.Duration lets the file
// express intervals either as strings like "30s" or as integer nanoseconds.
type jsonConfig struct {
	APIBaseURL     string         `json:"api_base_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	PollInterval   timex.Duration `json:"poll_interval"`
	DatabaseDSN    string         `json:"database_dsn"`
}

// parseJSON overlays Config with values from the JSON file named by the
// -c/-config flags. Absent flags mean no JSON layer. Read or parse failures
// panic: a config file that was explicitly pointed at must be usable.
func parseJSON(cfg *Config) {
	path := flagx.ConfigFilePath()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.PollInterval.Duration > 0 {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
}
