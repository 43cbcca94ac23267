package config

import (
	"flag"
	"os"
	"time"

	"github.com/studentorg/dashsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the remote PocketBase instance
//	-k string   bearer token for remote requests
//	-d string   path to the local replica database
//	-s int      staleness threshold in seconds
//	-i int      connectivity probe interval in seconds
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-k", "-d", "-s", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "base URL of the remote PocketBase instance")
	fs.StringVar(&cfg.AuthToken, "k", cfg.AuthToken, "bearer token for remote requests")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local replica database")
	staleAfter := fs.Int("s", int(cfg.StaleAfter.Seconds()), "staleness threshold (in seconds)")
	pingInterval := fs.Int("i", int(cfg.PingInterval.Seconds()), "connectivity probe interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.StaleAfter = time.Duration(*staleAfter) * time.Second
	cfg.PingInterval = time.Duration(*pingInterval) * time.Second
}
