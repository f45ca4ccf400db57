package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/picdrop/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   sqlite database path
//	-H string   public link host
//	-a string   S3 base endpoint
//	-r string   S3 region
//	-b string   S3 bucket
//	-w string   drop directory to watch
//	-t int      fetch timeout in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-H", "-a", "-r", "-b", "-w", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "sqlite database path")
	fs.StringVar(&cfg.PublicHost, "H", cfg.PublicHost, "public link host")
	fs.StringVar(&cfg.S3BaseEndpoint, "a", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3Region, "r", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.WatchDir, "w", cfg.WatchDir, "drop directory to watch")
	fetchTimeout := fs.Int("t", int(cfg.FetchTimeout.Seconds()), "fetch timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.FetchTimeout = time.Duration(*fetchTimeout) * time.Second
}
