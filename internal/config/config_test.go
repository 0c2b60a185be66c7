package config

import "testing"

func TestParseTableEntry(t *testing.T) {
	tests := []struct {
		entry                 string
		db, schema, name, typ string
		ok                    bool
	}{
		{"salesdb.public.orders", "salesdb", "public", "orders", "TABLE", true},
		{"salesdb.public.v_sales:VIEW", "salesdb", "public", "v_sales", "VIEW", true},
		{"salesdb.public.orders:table", "salesdb", "public", "orders", "TABLE", true},
		{" salesdb.public.orders ", "salesdb", "public", "orders", "TABLE", true},
		{"public.orders", "", "", "", "", false},
		{"a.b.c.d", "", "", "", "", false},
		{"..orders", "", "", "", "", false},
		{"", "", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			db, schema, name, typ, ok := ParseTableEntry(tt.entry)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if db != tt.db || schema != tt.schema || name != tt.name || typ != tt.typ {
				t.Errorf("got (%q, %q, %q, %q), want (%q, %q, %q, %q)",
					db, schema, name, typ, tt.db, tt.schema, tt.name, tt.typ)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Platform: "postgres",
		Database: "salesdb",
		Env:      "PROD",
		Source:   SourceConfig{Type: "postgres"},
		Sink:     SinkConfig{Type: "file", Path: "out.jsonl"},
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing platform", func(c *Config) { c.Platform = "" }},
		{"missing database", func(c *Config) { c.Database = "" }},
		{"missing source type", func(c *Config) { c.Source.Type = "" }},
		{"unknown source type", func(c *Config) { c.Source.Type = "oracle" }},
		{"missing sink type", func(c *Config) { c.Sink.Type = "" }},
		{"unknown sink type", func(c *Config) { c.Sink.Type = "kafka" }},
		{"rest sink without endpoint", func(c *Config) { c.Sink.Type = "rest"; c.Sink.Endpoint = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestValidateAcceptsAllSinkTypes(t *testing.T) {
	for _, typ := range []string{"file", "stdout"} {
		cfg := validConfig()
		cfg.Sink.Type = typ
		if err := cfg.Validate(); err != nil {
			t.Errorf("sink %q rejected: %v", typ, err)
		}
	}
	cfg := validConfig()
	cfg.Sink = SinkConfig{Type: "rest", Endpoint: "http://catalog:8080/ingest"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("rest sink rejected: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d["env"] != "PROD" {
		t.Errorf("env default = %v", d["env"])
	}
	if d["container_name"] != "stored_procedures" {
		t.Errorf("container_name default = %v", d["container_name"])
	}
	if d["workers"] != 4 {
		t.Errorf("workers default = %v", d["workers"])
	}
}
