// Package config provides shared configuration types for leapcatalog.
// This package is decoupled from CLI concerns so that library users can
// configure an extraction programmatically.
package config

import (
	"fmt"
	"strings"
)

// SourceConfig selects and configures the procedure source.
type SourceConfig struct {
	Type string `koanf:"type"` // postgres, static

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode"`
}

// SinkConfig selects and configures the proposal sink.
type SinkConfig struct {
	Type string `koanf:"type"` // file, rest

	// File sink
	Path string `koanf:"path"`

	// REST sink
	Endpoint string `koanf:"endpoint"`
	Token    string `koanf:"token"`
}

// SchemaConfig seeds the schema catalog used during reference
// resolution.
type SchemaConfig struct {
	// Tables lists known tables as "db.schema.name" or
	// "db.schema.name:TYPE" (type defaults to TABLE).
	Tables []string `koanf:"tables"`

	// TempPrefixes are name prefixes marking transient tables that
	// must not appear in lineage. Defaults to "#", "tmp_", "temp_".
	TempPrefixes []string `koanf:"temp_prefixes"`
}

// ProcedureConfig is one inline procedure definition for the static
// source.
type ProcedureConfig struct {
	Schema     string `koanf:"schema"`
	Name       string `koanf:"name"`
	Language   string `koanf:"language"`
	Definition string `koanf:"definition"`
	Comment    string `koanf:"comment"`
	Owner      string `koanf:"owner"`
	ReturnType string `koanf:"return_type"`
}

// Config is the full extraction configuration.
type Config struct {
	// Platform is the source platform identifier used in entity
	// identifiers (e.g. "postgres").
	Platform string `koanf:"platform"`
	// Env is the environment name (e.g. "PROD").
	Env string `koanf:"env"`
	// PlatformInstance optionally names the platform instance.
	PlatformInstance string `koanf:"platform_instance"`
	// Database is the database to scan.
	Database string `koanf:"database"`
	// ContainerName names the procedures container flow.
	ContainerName string `koanf:"container_name"`
	// ExternalURL optionally links entities back to a source UI.
	ExternalURL string `koanf:"external_url"`
	// Strict makes any lineage resolution failure fatal for the run.
	Strict bool `koanf:"strict"`
	// Workers bounds concurrent per-procedure extraction.
	Workers int `koanf:"workers"`
	// StatePath is the path to the SQLite run-history database.
	StatePath string `koanf:"state"`

	Verbose bool `koanf:"verbose"`

	Source     SourceConfig      `koanf:"source"`
	Sink       SinkConfig        `koanf:"sink"`
	Schema     SchemaConfig      `koanf:"schema"`
	Procedures []ProcedureConfig `koanf:"procedures"`
}

// Validate checks the configuration for the fields every run needs.
func (c *Config) Validate() error {
	if c.Platform == "" {
		return fmt.Errorf("platform is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	switch strings.ToLower(c.Source.Type) {
	case "postgres", "static":
	case "":
		return fmt.Errorf("source type is required")
	default:
		return fmt.Errorf("unknown source type: %s", c.Source.Type)
	}
	switch strings.ToLower(c.Sink.Type) {
	case "file", "rest", "stdout":
	case "":
		return fmt.Errorf("sink type is required")
	default:
		return fmt.Errorf("unknown sink type: %s", c.Sink.Type)
	}
	if c.Sink.Type == "rest" && c.Sink.Endpoint == "" {
		return fmt.Errorf("sink endpoint is required for the rest sink")
	}
	return nil
}
