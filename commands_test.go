package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcmoiagese/ArbresFamiliars/core/arbre"
	"github.com/marcmoiagese/ArbresFamiliars/db"
)

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"3", "12"})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 12}, ids)

	_, err = parseIDs([]string{"3", "x"})
	assert.Error(t, err)
	_, err = parseIDs([]string{"0"})
	assert.Error(t, err)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI_EnllacaIGeneracions(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cli.db")
	cfgPath := filepath.Join(dir, "config.cfg")
	cfg := "DB_ENGINE=sqlite\nDB_PATH=" + dbPath + "\nLOG_LEVEL=silent\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	envPath := filepath.Join(dir, "no.env")

	out, err := runCLI(t, "initdb", "--config", cfgPath, "--env", envPath,
		"--admin-usuari", "admin", "--admin-email", "admin@example.com", "--admin-password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "administrador admin")

	database, err := db.NewDB(map[string]string{"DB_ENGINE": "sqlite", "DB_PATH": dbPath})
	require.NoError(t, err)
	origen, err := database.CreateArbre(&db.Arbre{OwnerUserID: 1, Nom: "Origen"})
	require.NoError(t, err)
	desti, err := database.CreateArbre(&db.Arbre{OwnerUserID: 1, Nom: "Destí"})
	require.NoError(t, err)
	pare := db.Persona{ArbreID: origen, Nom: "Pare", IsOriginal: true}
	_, err = database.CreatePersona(&pare)
	require.NoError(t, err)
	_, err = database.CreatePersona(&db.Persona{ArbreID: origen, Nom: "Fill", PareID: db.NullInt(pare.ID), IsOriginal: true})
	require.NoError(t, err)
	database.Close()

	ids := func(v ...int) []string {
		s := make([]string, len(v))
		for i, n := range v {
			s[i] = strconv.Itoa(n)
		}
		return s
	}

	out, err = runCLI(t, append([]string{"generacions", "--config", cfgPath, "--env", envPath}, ids(origen)...)...)
	require.NoError(t, err)
	dec := json.NewDecoder(strings.NewReader(out))
	var gens [][]arbre.Node
	for dec.More() {
		var g []arbre.Node
		require.NoError(t, dec.Decode(&g))
		gens = append(gens, g)
	}
	require.Len(t, gens, 2)
	assert.Equal(t, "Pare", gens[0][0].Name)

	out, err = runCLI(t, append([]string{"enllaca", "--config", cfgPath, "--env", envPath}, ids(origen, desti)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "enllaçat")

	_, err = runCLI(t, append([]string{"desenllaca", "--config", cfgPath, "--env", envPath}, ids(origen)...)...)
	require.NoError(t, err)

	_, err = runCLI(t, "desenllaca", "--config", cfgPath, "--env", envPath, "999")
	assert.Error(t, err)
}

func TestCLI_Usuari(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "usuaris.db")
	cfgPath := filepath.Join(dir, "config.cfg")
	require.NoError(t, os.WriteFile(cfgPath, []byte("DB_ENGINE=sqlite\nDB_PATH="+dbPath+"\nLOG_LEVEL=silent\n"), 0o600))
	envPath := filepath.Join(dir, "no.env")

	_, err := runCLI(t, "initdb", "--config", cfgPath, "--env", envPath,
		"--admin-usuari", "root", "--admin-email", "root@example.com", "--admin-password", "secret")
	require.NoError(t, err)

	out, err := runCLI(t, "usuari", "admin", "1", "false", "--config", cfgPath, "--env", envPath)
	require.NoError(t, err)
	assert.Contains(t, out, "administrador=false")
	out, err = runCLI(t, "usuari", "actiu", "1", "false", "--config", cfgPath, "--env", envPath)
	require.NoError(t, err)
	assert.Contains(t, out, "actiu=false")

	database, err := db.NewDB(map[string]string{"DB_ENGINE": "sqlite", "DB_PATH": dbPath})
	require.NoError(t, err)
	defer database.Close()
	u, err := database.GetUserByID(1)
	require.NoError(t, err)
	assert.False(t, u.IsAdmin)
	assert.False(t, u.Active)
	_, err = database.AuthenticateUser("root", "secret")
	assert.Error(t, err, "un usuari inactiu no s'ha de poder autenticar")

	_, err = runCLI(t, "usuari", "admin", "99", "true", "--config", cfgPath, "--env", envPath)
	assert.Error(t, err)
	_, err = runCLI(t, "usuari", "actiu", "1", "potser", "--config", cfgPath, "--env", envPath)
	assert.Error(t, err)
}
