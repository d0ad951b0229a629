package config

import (
	"flag"
	"os"
	"time"

	"github.com/dkovalev/hubsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-u string   base URL of the remote directory API
//	-d string   path to the local SQLite database
//	-p int      page size for listing fetches
//	-i int      online check interval in seconds
//	-r int      reconnect retry interval in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-d", "-p", "-i", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "u", cfg.APIBaseURL, "base URL of the remote directory API")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local SQLite database")
	fs.IntVar(&cfg.PageSize, "p", cfg.PageSize, "page size for listing fetches")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	reconnectInterval := fs.Int("r", int(cfg.ReconnectInterval.Seconds()), "reconnect retry interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.ReconnectInterval = time.Duration(*reconnectInterval) * time.Second
}
