package config

// Defaults returns the built-in configuration defaults, applied before
// file, environment, and flag overrides.
func Defaults() map[string]any {
	return map[string]any{
		"env":            "PROD",
		"container_name": "stored_procedures",
		"workers":        4,
		"state":          ".leapcatalog/state.db",
		"source.type":    "postgres",
		"source.port":    5432,
		"sink.type":      "file",
		"sink.path":      "proposals.jsonl",
	}
}
