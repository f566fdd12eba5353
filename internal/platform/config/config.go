// Package config handles application configuration via environment variables
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"vqamerge/internal/platform/logger"
)

// Conf is a namespaced view over environment variables (e.g., "CORE_MERGE_", "SERVICE_PGSQL_")
// Use New() for global access, or Prefix("CORE_MERGE_") for module scopes.
type Conf struct{ prefix string }

// New creates a root Conf (no prefix)
func New() Conf { return Conf{} }

// Prefix creates a child Conf with an additional prefix, e.g. cfg.Prefix("CORE_RECORDS_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// key composes the fully-qualified env var name
func (c Conf) key(k string) string { return c.prefix + k }

// lookup returns the trimmed value for key
func (c Conf) lookup(key string) string { return strings.TrimSpace(os.Getenv(c.key(key))) }

// Has reports whether key is set to a non-blank value
func (c Conf) Has(key string) bool { return c.lookup(key) != "" }

// MustString panics if the given key is missing or empty
func (c Conf) MustString(key string) string {
	v := c.lookup(key)
	if v == "" {
		logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
	}
	return v
}

// MustInt panics if the given key is missing, empty, or not an int
func (c Conf) MustInt(key string) int {
	s := c.lookup(key)
	if s == "" {
		logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid int value")
	}
	return v
}

// Require ensures that all given keys are present (non-empty). Panics otherwise.
func (c Conf) Require(keys ...string) {
	for _, k := range keys {
		if c.lookup(k) == "" {
			logger.Get().Panic().Str("key", c.key(k)).Msg("missing required env")
		}
	}
}

// MayString returns the value or def if missing/empty
func (c Conf) MayString(key, def string) string {
	v := c.lookup(key)
	if v == "" {
		return def
	}
	return v
}

// MayInt returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayInt(key string, def int) int {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Int("default", def).Msg("invalid int; using default")
	return def
}

// MayNonNegInt is MayInt that also rejects negative values with a warning
func (c Conf) MayNonNegInt(key string, def int) int {
	v := c.MayInt(key, def)
	if v < 0 {
		logger.Get().Warn().Str("key", c.key(key)).Int("value", v).Int("default", def).Msg("negative int; using default")
		return def
	}
	return v
}

// MayBool returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayBool(key string, def bool) bool {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Bool("default", def).Msg("invalid bool; using default")
	return def
}

// MayDuration returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Dur("default", def).Msg("invalid duration; using default")
	return def
}

// MayCSV returns a slice of strings from a comma-separated env var; def if missing/empty
func (c Conf) MayCSV(key string, def []string) []string {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnumCSV is MayCSV with every item lower-cased, de-duplicated and checked against allowed.
// Panics on an item outside allowed.
func (c Conf) MayEnumCSV(key string, def []string, allowed ...string) []string {
	items := c.MayCSV(key, def)
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		v := strings.ToLower(it)
		if !contains(allowed, v) {
			logger.Get().Panic().Str("key", c.key(key)).Str("value", it).Strs("allowed", allowed).Msg("invalid enum value")
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// MayEnum ensures value is one of allowed; returns def if empty; panics if invalid.
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return v
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return "" // unreachable
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}
