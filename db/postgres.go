package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

type PostgreSQL struct {
	Host   string
	Port   string
	User   string
	Pass   string
	DBName string
	Conn   *sql.DB
	sqlStore
}

func (p *PostgreSQL) Connect() error {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Pass, p.DBName)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("error connectant a PostgreSQL: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("error connectant a PostgreSQL: %w", err)
	}
	p.Conn = conn
	p.sqlStore = newSQLStore(conn, "postgres", "NOW()")
	logInfof("Conectat a PostgreSQL")
	return nil
}

func (p *PostgreSQL) Exec(query string, args ...interface{}) (int64, error) {
	return execRowsAffected(p.Conn, formatPlaceholders("postgres", query), args...)
}

func (p *PostgreSQL) Close() {
	if p.Conn != nil {
		p.Conn.Close()
	}
}
