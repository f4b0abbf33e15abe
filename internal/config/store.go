package config

import "strings"

// Session store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// EffectiveStore normalizes the configured session store backend.
// Supported values: "memory", "sqlite", "redis".
// Unknown or empty values fall back to sqlite so sessions survive restarts.
func (c *SessionConfig) EffectiveStore() string {
	if c == nil {
		return StoreMemory
	}
	mode := strings.ToLower(strings.TrimSpace(c.Store))
	switch mode {
	case "memory", "mem", "none":
		return StoreMemory
	case "sqlite", "sqlite3", "file", "":
		if strings.TrimSpace(c.SQLitePath) == "" {
			return StoreMemory
		}
		return StoreSQLite
	case "redis", "valkey":
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return StoreMemory
		}
		return StoreRedis
	default:
		if strings.TrimSpace(c.SQLitePath) != "" {
			return StoreSQLite
		}
		return StoreMemory
	}
}
