// Package config provides functionality for managing configuration options
// for the twofzip CLI and the smsgate development gateway, read from
// defaults, a JSON file, command-line flags and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Notifier back ends selectable with TWOFZIP_NOTIFIER.
const (
	NotifierCurl = "curl"
	NotifierHTTP = "http"
)

// DefaultConfigFile is read when TWOFZIP_CONFIG is unset and the file exists.
const DefaultConfigFile = "twofzip.json"

// Options holds the configuration values for the twofzip CLI.
//
// The CLI takes no flags of its own: its command line starts with -e or -d
// and carries archiver flags through, so everything here comes from the
// JSON file and the environment.
type Options struct {
	// Zip and Unzip are the archiver executables.
	Zip   string `json:"zip"`
	Unzip string `json:"unzip"`

	// Curl is the HTTP client used by the curl notifier.
	Curl string `json:"curl"`

	// Remove deletes an archive whose code could not be delivered.
	Remove string `json:"rm"`

	// GatewayURL is the SMS gateway endpoint.
	GatewayURL string `json:"gateway_url"`

	// Notifier is NotifierCurl or NotifierHTTP.
	Notifier string `json:"notifier"`

	// Timeout bounds each external command. Zero means no limit.
	Timeout Duration `json:"timeout"`

	LogLevel string `json:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Default returns the built-in CLI configuration.
func Default() *Options {
	return &Options{
		Zip:        "zip",
		Unzip:      "unzip",
		Curl:       "curl",
		Remove:     "rm",
		GatewayURL: "http://textbelt.com/text",
		Notifier:   NotifierCurl,
		LogLevel:   "warn",
		Config:     DefaultConfigFile,
	}
}

// Parse builds the CLI configuration: defaults, then the JSON config file,
// then TWOFZIP_* environment variables.
func Parse() (*Options, error) {
	options := Default()

	if configPath := os.Getenv("TWOFZIP_CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if err := loadFile(options.Config, options); err != nil {
		return nil, err
	}

	for env, dst := range map[string]*string{
		"TWOFZIP_ZIP":         &options.Zip,
		"TWOFZIP_UNZIP":       &options.Unzip,
		"TWOFZIP_CURL":        &options.Curl,
		"TWOFZIP_RM":          &options.Remove,
		"TWOFZIP_GATEWAY_URL": &options.GatewayURL,
		"TWOFZIP_NOTIFIER":    &options.Notifier,
		"TWOFZIP_LOG_LEVEL":   &options.LogLevel,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("TWOFZIP_TIMEOUT"); v != "" {
		if err := options.Timeout.Set(v); err != nil {
			return nil, fmt.Errorf("TWOFZIP_TIMEOUT: %w", err)
		}
	}

	if err := options.validate(); err != nil {
		return nil, err
	}
	return options, nil
}

func (o *Options) validate() error {
	switch o.Notifier {
	case NotifierCurl, NotifierHTTP:
	default:
		return fmt.Errorf("unknown notifier %q (want %q or %q)", o.Notifier, NotifierCurl, NotifierHTTP)
	}
	if o.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// loadFile unmarshals the JSON file at path into dst. A missing file is not
// an error.
func loadFile(path string, dst any) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("error while parsing config file %s: %w", path, err)
	}
	return nil
}

// Duration is a time.Duration written as a Go duration string ("30s") in
// JSON files, flags and environment variables.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String implements flag.Value.
func (d Duration) String() string { return time.Duration(d).String() }

// Set implements flag.Value.
func (d *Duration) Set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalJSON accepts a duration string.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string such as \"30s\": %w", err)
	}
	return d.Set(s)
}

// MarshalJSON writes d as a duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
