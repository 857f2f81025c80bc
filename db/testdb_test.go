package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testDBConfig descriu un motor sobre el qual es llancen els tests.
type testDBConfig struct {
	Label  string
	Config map[string]string
}

// loadTestDBConfigs retorna sempre SQLite i, si hi ha les variables
// TEST_POSTGRES_DB_HOST / TEST_MYSQL_DB_HOST, també Postgres i MySQL.
func loadTestDBConfigs(t *testing.T) []testDBConfig {
	t.Helper()

	cfgs := []testDBConfig{{
		Label: "sqlite",
		Config: map[string]string{
			"DB_ENGINE": "sqlite",
			"DB_PATH":   filepath.Join(t.TempDir(), "test.db"),
			"RECREADB":  "true",
		},
	}}

	if host := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DB_HOST")); host != "" {
		cfgs = append(cfgs, testDBConfig{
			Label: "postgres",
			Config: map[string]string{
				"DB_ENGINE": "postgres",
				"DB_HOST":   host,
				"DB_PORT":   envOr("TEST_POSTGRES_DB_PORT", "5432"),
				"DB_USR":    envOr("TEST_POSTGRES_DB_USER", "postgres"),
				"DB_PASS":   os.Getenv("TEST_POSTGRES_DB_PASS"),
				"DB_NAME":   envOr("TEST_POSTGRES_DB_NAME", "postgres"),
				"RECREADB":  "true",
			},
		})
	}

	if host := strings.TrimSpace(os.Getenv("TEST_MYSQL_DB_HOST")); host != "" {
		cfgs = append(cfgs, testDBConfig{
			Label: "mysql",
			Config: map[string]string{
				"DB_ENGINE": "mysql",
				"DB_HOST":   host,
				"DB_PORT":   envOr("TEST_MYSQL_DB_PORT", "3306"),
				"DB_USR":    envOr("TEST_MYSQL_DB_USER", "root"),
				"DB_PASS":   os.Getenv("TEST_MYSQL_DB_PASS"),
				"DB_NAME":   envOr("TEST_MYSQL_DB_NAME", "arbres_test"),
				"RECREADB":  "true",
			},
		})
	}
	return cfgs
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// forEachTestDB executa fn sobre cada motor configurat amb una BD recreada.
// Els motors externs comparteixen BD, per això no es llancen en paral·lel.
func forEachTestDB(t *testing.T, fn func(t *testing.T, d DB)) {
	t.Helper()
	for _, c := range loadTestDBConfigs(t) {
		t.Run(c.Label, func(t *testing.T) {
			d, err := NewDB(c.Config)
			if err != nil {
				t.Fatalf("no s'ha pogut inicialitzar DB %s de prova: %v", c.Label, err)
			}
			defer d.Close()
			fn(t, d)
		})
	}
}

func mustArbre(t *testing.T, d DB, owner int, nom string) *Arbre {
	t.Helper()
	a := &Arbre{OwnerUserID: owner, Nom: nom}
	if _, err := d.CreateArbre(a); err != nil {
		t.Fatalf("CreateArbre(%s) ha fallat: %v", nom, err)
	}
	return a
}

func mustPersona(t *testing.T, d DB, p Persona) *Persona {
	t.Helper()
	if _, err := d.CreatePersona(&p); err != nil {
		t.Fatalf("CreatePersona(%s) ha fallat: %v", p.Nom, err)
	}
	return &p
}
