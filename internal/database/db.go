// Package database opens the MySQL connection pool used by the repository.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-udp-reservation/internal/config"
)

const pingTimeout = 5 * time.Second

// Open connects to MySQL and pings it before returning.  The pool keeps
// cfg.MaxConns connections open and idle; the write-behind queue is the
// only steady writer, so the pool rarely needs more than a few.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, err
	}
	conns := cfg.MaxConns
	if conns < 1 {
		conns = 25
	}
	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(conns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql at %s:%s: %w", cfg.Host, cfg.Port, err)
	}
	return db, nil
}
