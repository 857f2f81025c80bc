package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite implementa DB sobre mattn/go-sqlite3.
type SQLite struct {
	Path string
	Conn *sql.DB
	sqlStore
}

func (d *SQLite) Connect() error {
	path := strings.TrimSpace(d.Path)
	if path == "" {
		path = "./database.db"
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
	}
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("error obrint SQLite: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("error connectant a SQLite: %w", err)
	}
	// Una sola connexió: evita "database is locked" i fa que :memory: sigui una sola BD.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(5 * time.Minute)
	d.Conn = conn
	d.sqlStore = newSQLStore(conn, "sqlite", "CURRENT_TIMESTAMP")
	logInfof("Conectat a SQLite (%s)", path)
	return nil
}

func (d *SQLite) Close() {
	if d.Conn != nil {
		d.Conn.Close()
	}
}

func (d *SQLite) Exec(query string, args ...interface{}) (int64, error) {
	return execRowsAffected(d.Conn, query, args...)
}
