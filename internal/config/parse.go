package config

import "strings"

// ParseTableEntry parses a schema catalog entry of the form
// "db.schema.name" or "db.schema.name:TYPE". The type defaults to
// TABLE.
func ParseTableEntry(entry string) (db, schema, name, typ string, ok bool) {
	typ = "TABLE"
	if i := strings.IndexByte(entry, ':'); i >= 0 {
		typ = strings.ToUpper(strings.TrimSpace(entry[i+1:]))
		entry = entry[:i]
	}
	parts := strings.Split(strings.TrimSpace(entry), ".")
	if len(parts) != 3 {
		return "", "", "", "", false
	}
	for _, p := range parts {
		if p == "" {
			return "", "", "", "", false
		}
	}
	return parts[0], parts[1], parts[2], typ, true
}
