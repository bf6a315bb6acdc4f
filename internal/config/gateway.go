package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"time"
)

// GatewayOptions holds the configuration values for the smsgate server.
type GatewayOptions struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address"`

	// DatabaseDSN holds the database connection string. Empty selects the
	// in-memory store.
	DatabaseDSN string `json:"database_dsn"`

	// Retention is how long delivery records are kept.
	Retention Duration `json:"retention"`

	// CleanInterval is how often expired records are purged.
	CleanInterval Duration `json:"clean_interval"`

	// Quota caps accepted texts per recipient within Retention.
	// Zero means unlimited.
	Quota int `json:"quota"`

	LogLevel string `json:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// ParseGateway parses args (without the program name), the JSON config
// file and environment variables. Flags are applied first, the file
// overrides them, and SERVER_ADDRESS, DATABASE_DSN and CONFIG override both.
func ParseGateway(args []string) (*GatewayOptions, error) {
	options := &GatewayOptions{
		Retention:     Duration(7 * 24 * time.Hour),
		CleanInterval: Duration(time.Hour),
	}

	fs := flag.NewFlagSet("smsgate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&options.Port, "a", "localhost:9090", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.Var(&options.Retention, "retention", "how long delivery records are kept")
	fs.Var(&options.CleanInterval, "clean-interval", "how often expired records are purged")
	fs.IntVar(&options.Quota, "quota", 0, "accepted texts per recipient within the retention window (0 = unlimited)")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if err := loadFile(options.Config, options); err != nil {
		return nil, err
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}

	if options.CleanInterval <= 0 {
		return nil, errors.New("clean interval must be positive")
	}
	if options.Quota < 0 {
		return nil, errors.New("quota must not be negative")
	}
	return options, nil
}
