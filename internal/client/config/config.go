package config

import "time"

// Config holds runtime settings for the profilekeeper CLI.
type Config struct {
	DataDir        string
	DatabaseFile   string
	StorageBackend string
	PasswordScheme string
	StrictUpdates  bool
	LogLevel       string
	BackupTimeout  time.Duration
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
	S3Prefix       string
}

// LoadDefaults populates c with defaults. Backups stay disabled until a
// bucket is configured.
func (c *Config) LoadDefaults() {
	c.DataDir = "data"
	c.DatabaseFile = "profiles.db"
	c.StorageBackend = "sqlite"
	c.PasswordScheme = "argon2id"
	c.StrictUpdates = false
	c.LogLevel = "info"
	c.BackupTimeout = 30 * time.Second
	c.S3Region = "us-east-1"
	c.S3Prefix = "profilekeeper"
}

// LoadConfig applies defaults, then the JSON file (if any), then flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
