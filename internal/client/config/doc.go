// Package config loads runtime configuration for the profilekeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-d string   data directory holding the SQLite file
//	-s string   storage backend: sqlite | memory
//	-p string   password scheme: argon2id | plain
//	-l string   log level: debug | info | warn | error
//	-strict     report unknown user ids on profile updates
//	-b string   S3 bucket for backups (empty disables backups)
//
// # JSON schema
//
//	{
//	  "data_dir": "data",
//	  "database_file": "profiles.db",
//	  "storage_backend": "sqlite",
//	  "password_scheme": "argon2id",
//	  "strict_updates": false,
//	  "log_level": "info",
//	  "backup_timeout": "30s",
//	  "s3_bucket": "profiles",
//	  "s3_region": "us-east-1",
//	  "s3_base_endpoint": "http://127.0.0.1:9000",
//	  "s3_access_key": "admin",
//	  "s3_secret_key": "secretpassword",
//	  "s3_prefix": "profilekeeper"
//	}
//
// Durations accept strings like "30s" or integer nanoseconds (timex.Duration).
// Only keys present in the file override the defaults.
package config
