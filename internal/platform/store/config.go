package store

import (
	"time"

	"vqamerge/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// boot knobs, zero means default
	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled     bool
	URL         string
	ClientRole  string
	DialTimeout time.Duration // default 10s
}

// FromConfig reads SERVICE_PGSQL_* and SERVICE_CLICKHOUSE_* for the enabled backends.
// A backend that is enabled requires its DBURL
func FromConfig(cfg config.Conf, appName string, withPG, withCH bool) Config {
	out := Config{AppName: appName}
	if withPG {
		pg := cfg.Prefix("SERVICE_PGSQL_")
		out.PG = PGConfig{
			Enabled:     true,
			URL:         pg.MustString("DBURL"),
			MaxConns:    int32(pg.MayNonNegInt("MAX_CONNS", 4)),
			LogSQL:      pg.MayBool("LOG_SQL", false),
			SlowQueryMs: pg.MayNonNegInt("SLOW_MS", 500),
			PingTimeout: pg.MayDuration("PING_TIMEOUT", 3*time.Second),
		}
	}
	if withCH {
		ch := cfg.Prefix("SERVICE_CLICKHOUSE_")
		out.CH = CHConfig{
			Enabled:     true,
			URL:         ch.MustString("DBURL"),
			ClientRole:  appName,
			DialTimeout: ch.MayDuration("DIAL_TIMEOUT", 10*time.Second),
		}
	}
	return out
}
