package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// formatPlaceholders converteix '?' a placeholders de l'estil PostgreSQL ($1, $2...) si cal.
func formatPlaceholders(style, query string) string {
	if strings.ToLower(style) != "postgres" {
		return query
	}
	var b strings.Builder
	idx := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			b.WriteString(fmt.Sprintf("$%d", idx))
			idx++
		} else {
			b.WriteByte(query[i])
		}
	}
	return b.String()
}

// queryer és la part comuna de *sql.DB i *sql.Tx.
type queryer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type sqlHelper struct {
	db     queryer
	conn   *sql.DB
	style  string
	nowFun string
}

func newSQLHelper(db *sql.DB, style, nowFun string) sqlHelper {
	return sqlHelper{db: db, conn: db, style: strings.ToLower(style), nowFun: nowFun}
}

// withTx retorna una còpia del helper que executa sobre la transacció.
func (h sqlHelper) withTx(tx *sql.Tx) sqlHelper {
	h.db = tx
	return h
}

// insert executa un INSERT i retorna l'id generat (RETURNING id a PostgreSQL).
func (h sqlHelper) insert(stmt string, args ...interface{}) (int, error) {
	if h.style == "postgres" {
		stmt += " RETURNING id"
	}
	stmt = formatPlaceholders(h.style, stmt)
	if h.style == "postgres" {
		var id int
		if err := h.db.QueryRow(stmt, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := h.db.Exec(stmt, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (h sqlHelper) exec(stmt string, args ...interface{}) (sql.Result, error) {
	return h.db.Exec(formatPlaceholders(h.style, stmt), args...)
}

func (h sqlHelper) queryRow(query string, args ...interface{}) *sql.Row {
	return h.db.QueryRow(formatPlaceholders(h.style, query), args...)
}

func (h sqlHelper) query(query string, args ...interface{}) (*sql.Rows, error) {
	return h.db.Query(formatPlaceholders(h.style, query), args...)
}

func (h sqlHelper) count(query string, args ...interface{}) (int, error) {
	var n int
	if err := h.queryRow(query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// storeOps implementa Store sobre un sqlHelper. El mateix codi serveix per a
// la connexió i per a una transacció.
type storeOps struct {
	h sqlHelper
}

// sqlStore és la implementació compartida de DB per als tres motors.
type sqlStore struct {
	storeOps
}

func newSQLStore(conn *sql.DB, style, nowFun string) sqlStore {
	return sqlStore{storeOps{h: newSQLHelper(conn, style, nowFun)}}
}

func (s sqlStore) WithTx(ctx context.Context, fn func(Store) error) (err error) {
	if s.h.conn == nil {
		return fmt.Errorf("connexió no inicialitzada")
	}
	tx, err := s.h.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("no s'ha pogut començar transacció: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(storeOps{h: s.h.withTx(tx)}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logErrorf("rollback fallit: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error fent COMMIT: %w", err)
	}
	return nil
}

func execRowsAffected(conn *sql.DB, query string, args ...interface{}) (int64, error) {
	res, err := conn.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// NullInt converteix un id a sql.NullInt64; 0 o negatiu és NULL.
func NullInt(v int) sql.NullInt64 {
	if v <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}
