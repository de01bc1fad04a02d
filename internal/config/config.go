// Package config provides functionality for managing configuration options
// for the service using command-line flags, environment variables and an
// optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
)

// Fallback values that must never reach production silently; Warnings
// reports when they are in effect.
const (
	// DefaultSecretKey is the insecure development signing secret.
	DefaultSecretKey = "notsosecret1234567890987654321"
	// DefaultTokenTimeout is the token expiry window in seconds.
	DefaultTokenTimeout = 300
)

// Options holds the configuration values for the service.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string `json:"server_address"`

	// DatabaseDSN holds the MongoDB connection string.
	DatabaseDSN string `json:"database_dsn"`

	// DatabaseName is the database holding the users and reset_requests
	// collections.
	DatabaseName string `json:"database_name"`

	// SecretKey signs issued tokens.
	SecretKey string `json:"secret_key"`

	// TokenTimeout is the token expiry window in seconds.
	TokenTimeout int `json:"token_timeout"`

	// Config is the path to the config file.
	Config string `json:"-"`
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Addr, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "mongodb://localhost:27017", "document store address")
	flag.StringVar(&options.DatabaseName, "n", "ludmin", "document store database name")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags, the config file and environment
// variables to set configuration values. Environment variables win. It
// returns a pointer to the Options struct containing the parsed values.
func Parse() *Options {
	flag.Parse()

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Addr = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if name := os.Getenv("DATABASE_NAME"); name != "" {
		options.DatabaseName = name
	}
	if secret := os.Getenv("SECRET_KEY"); secret != "" {
		options.SecretKey = secret
	}
	if timeout := os.Getenv("TOKEN_TIMEOUT"); timeout != "" {
		seconds, err := strconv.Atoi(timeout)
		if err != nil {
			log.Fatalf("invalid TOKEN_TIMEOUT: %v", err)
		}
		options.TokenTimeout = seconds
	}

	return options
}

// Warnings applies the insecure fallbacks for unset token settings and
// returns one warning message per fallback used. Callers are expected to
// log every returned message.
func (o *Options) Warnings() []string {
	var warnings []string
	if o.SecretKey == "" {
		o.SecretKey = DefaultSecretKey
		warnings = append(warnings, "SECRET_KEY not configured, using insecure default")
	}
	if o.TokenTimeout == 0 {
		o.TokenTimeout = DefaultTokenTimeout
		warnings = append(warnings, "TOKEN_TIMEOUT not configured, defaulting to 300 seconds")
	}
	return warnings
}
