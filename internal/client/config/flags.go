package config

import (
	"flag"
	"os"
	"time"

	"github.com/dsavelev/speakerportal/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags:
//
//	-a string   base URL of the portal API
//	-t int      request timeout in seconds
//	-i int      notification poll interval in seconds
//	-d string   path to the local sqlite database
//
// os.Args is filtered to the flags handled here so the config-file flags
// (-c/-config) parsed elsewhere do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-i", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the portal API")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "path to the local database")
	timeoutSec := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	pollSec := fs.Int("i", int(cfg.PollInterval.Seconds()), "notification poll interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeoutSec) * time.Second
	cfg.PollInterval = time.Duration(*pollSec) * time.Second
}
