package redis

import (
	"strconv"
	"strings"
)

// ParseInfo splits an INFO-style text block into a flat key/value map.
// Comment lines and blanks are skipped.
func ParseInfo(raw string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[key] = value
	}
	return fields
}

// Older or restricted servers omit fields; readers below fall back to
// zero values instead of erroring so partial responses stay usable.

// FieldStr returns the named field or the fallback when absent.
func FieldStr(fields map[string]string, name, fallback string) string {
	if v, ok := fields[name]; ok && v != "" {
		return v
	}
	return fallback
}

// FieldInt returns the named field as int64, or 0 when absent or malformed.
func FieldInt(fields map[string]string, name string) int64 {
	v, ok := fields[name]
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// FieldFloat returns the named field as float64, or 0 when absent or malformed.
func FieldFloat(fields map[string]string, name string) float64 {
	v, ok := fields[name]
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}

// KeyspaceTotal sums the per-database key counts from an INFO keyspace
// block, e.g. "db0:keys=135,expires=12,avg_ttl=0".
func KeyspaceTotal(fields map[string]string) int64 {
	var total int64
	for key, value := range fields {
		if !strings.HasPrefix(key, "db") {
			continue
		}
		for _, part := range strings.Split(value, ",") {
			name, num, ok := strings.Cut(part, "=")
			if !ok || name != "keys" {
				continue
			}
			n, err := strconv.ParseInt(num, 10, 64)
			if err == nil {
				total += n
			}
		}
	}
	return total
}

// ClientField extracts a field from a CLIENT LIST record line,
// e.g. "id=3 addr=127.0.0.1:51234 ... idle=120 flags=N".
func ClientField(record, name string) string {
	for _, part := range strings.Fields(record) {
		key, value, ok := strings.Cut(part, "=")
		if ok && key == name {
			return value
		}
	}
	return ""
}
