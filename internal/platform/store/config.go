package store

import "time"

// Config aggregates per backend configuration
type Config struct {
	// AppName is reported to servers that accept a client name
	AppName string

	PG    PGConfig
	MySQL MySQLConfig
	CH    CHConfig
}

// Boot controls the startup ping loop shared by all backends
type Boot struct {
	ConnectRetries int           // default 6 (about a minute with exponential backoff)
	PingTimeout    time.Duration // default 5s
}

func (b Boot) retries() int {
	if b.ConnectRetries <= 0 {
		return 6
	}
	return b.ConnectRetries
}

func (b Boot) pingTimeout() time.Duration {
	if b.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return b.PingTimeout
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int
	Boot
}

// MySQLConfig configures mysql/mariadb connectivity and tracing
type MySQLConfig struct {
	Enabled         bool
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool
	SlowQueryMs     int
	Boot
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled bool
	URL     string
	Version string
	Boot
}
