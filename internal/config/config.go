// Package config loads application configuration from environment
// variables.  A .env file in the working directory, when present, is read
// first; variables already set in the environment win.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.
//
// Fields:
//   Env                   – application environment (APP_ENV, default "dev").
//   UDPHost, UDPPort      – datagram listen address (UDP_HOST, UDP_PORT=9876).
//   UDPWorkers            – request handler goroutines (UDP_WORKERS=8).
//   UDPQueueSize          – datagrams buffered ahead of the workers (UDP_QUEUE_SIZE=1024).
//   HTTPPort              – ops gateway port (HTTP_PORT=8080); "off" disables it.
//   DB                    – MySQL settings; durability is off when DB_HOST is unset.
//   AMQPURL               – RabbitMQ URL (AMQP_URL); events are off when empty.
//   AuditLogPath          – file the audit consumer appends to (AUDIT_LOG_PATH).
//   IdempotencyTTL        – lifetime of cached create results (IDEMPOTENCY_TTL=10m).
//   IdempotencyMaxEntries – cache bound (IDEMPOTENCY_MAX_ENTRIES=10000).
//   Persist               – write-behind queue settings.
type Config struct {
	Env                   string
	UDPHost               string
	UDPPort               int
	UDPWorkers            int
	UDPQueueSize          int
	HTTPPort              string
	DB                    DBConfig
	AMQPURL               string
	AuditLogPath          string
	IdempotencyTTL        time.Duration
	IdempotencyMaxEntries int
	Persist               PersistConfig
}

// DBConfig describes the MySQL connection.
type DBConfig struct {
	User string
	Pass string
	Host string
	Port string
	Name string
	Seed bool // insert the demo catalog into an empty database

	MaxConns int // pool size (DB_MAX_CONNS, default 25)
}

// Enabled reports whether a database was configured.
func (c DBConfig) Enabled() bool { return c.Host != "" }

// DSN renders the go-sql-driver/mysql data source name.  parseTime maps
// DATETIME to time.Time and loc=UTC keeps stored times consistent.
func (c DBConfig) DSN() string {
	auth := c.User
	if c.Pass != "" {
		auth = fmt.Sprintf("%s:%s", c.User, c.Pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, c.Host, c.Port, c.Name)
}

// PersistConfig tunes the write-behind queue.
type PersistConfig struct {
	QueueSize      int           // pending writes before new ones are journaled (PERSIST_QUEUE_SIZE)
	Retries        int           // extra attempts per write (PERSIST_RETRIES)
	Backoff        time.Duration // pause before the first retry, doubled each time (PERSIST_BACKOFF)
	WriteTimeout   time.Duration // per-attempt deadline (PERSIST_WRITE_TIMEOUT)
	ReconcileEvery time.Duration // journal replay interval (RECONCILE_EVERY)
}

// Load reads .env (if any) and the environment.  Invalid required values
// stop the process with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
	cfg := Config{
		Env:                   envStr("APP_ENV", "dev"),
		UDPHost:               envStr("UDP_HOST", "0.0.0.0"),
		UDPPort:               envInt("UDP_PORT", 9876),
		UDPWorkers:            envInt("UDP_WORKERS", 8),
		UDPQueueSize:          envInt("UDP_QUEUE_SIZE", 1024),
		HTTPPort:              envStr("HTTP_PORT", "8080"),
		AMQPURL:               os.Getenv("AMQP_URL"),
		AuditLogPath:          envStr("AUDIT_LOG_PATH", "logs/reservations.log"),
		IdempotencyTTL:        envDur("IDEMPOTENCY_TTL", 10*time.Minute),
		IdempotencyMaxEntries: envInt("IDEMPOTENCY_MAX_ENTRIES", 10000),
		Persist: PersistConfig{
			QueueSize:      envInt("PERSIST_QUEUE_SIZE", 4096),
			Retries:        envInt("PERSIST_RETRIES", 3),
			Backoff:        envDur("PERSIST_BACKOFF", 200*time.Millisecond),
			WriteTimeout:   envDur("PERSIST_WRITE_TIMEOUT", 5*time.Second),
			ReconcileEvery: envDur("RECONCILE_EVERY", time.Minute),
		},
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB = DBConfig{
			User: must("DB_USER"),
			Pass: os.Getenv("DB_PASS"), // empty allowed
			Host: host,
			Port: envStr("DB_PORT", "3306"),
			Name: must("DB_NAME"),
			Seed: envBool("DB_SEED", true),

			MaxConns: envInt("DB_MAX_CONNS", 25),
		}
	}
	if cfg.UDPPort < 1 || cfg.UDPPort > 65535 {
		log.Fatalf("invalid UDP_PORT: %d", cfg.UDPPort)
	}
	if cfg.UDPWorkers < 1 {
		cfg.UDPWorkers = 1
	}
	if cfg.UDPQueueSize < 1 {
		cfg.UDPQueueSize = 1
	}
	if cfg.IdempotencyMaxEntries < 1 {
		cfg.IdempotencyMaxEntries = 1
	}
	if cfg.Persist.Retries < 0 {
		cfg.Persist.Retries = 0
	}
	if cfg.Persist.ReconcileEvery <= 0 {
		cfg.Persist.ReconcileEvery = time.Minute
	}
	return cfg
}

// UDPAddr is the host:port the datagram server binds.
func (c Config) UDPAddr() string { return fmt.Sprintf("%s:%d", c.UDPHost, c.UDPPort) }

// HTTPEnabled reports whether the ops gateway should start.
func (c Config) HTTPEnabled() bool { return !strings.EqualFold(c.HTTPPort, "off") && c.HTTPPort != "" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
