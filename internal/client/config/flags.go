package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/profilekeeper/internal/flagx"
)

// parseFlags overlays cfg with the command-line flags it knows about; other
// arguments are filtered out first with flagx.FilterArgs. It panics on a
// malformed flag value.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-s", "-p", "-l", "-b"}, "-strict")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.StorageBackend, "s", cfg.StorageBackend, "storage backend (sqlite|memory)")
	fs.StringVar(&cfg.PasswordScheme, "p", cfg.PasswordScheme, "password scheme (argon2id|plain)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.StrictUpdates, "strict", cfg.StrictUpdates, "fail updates of unknown users")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket for backups")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
