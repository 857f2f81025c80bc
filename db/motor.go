package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrHasChildren es retorna quan s'intenta esborrar una persona que encara té fills.
	ErrHasChildren = errors.New("la persona té fills i no es pot esborrar")
	// ErrTreeNotEmpty es retorna quan s'intenta esborrar un arbre amb persones o arbres fills.
	ErrTreeNotEmpty = errors.New("l'arbre té persones o arbres fills")
)

// Store agrupa les operacions que el servei d'enllaç fa servir. Es pot
// obtenir tant sobre la connexió com dins d'una transacció (WithTx).
type Store interface {
	GetArbre(id int) (*Arbre, error)
	UpdateArbreEnllac(a *Arbre) error
	GetPersona(id int) (*Persona, error)
	ListPersonesByArbre(arbreID int) ([]Persona, error)
	ListClons(arbreID, origenID int) ([]Persona, error)
	CreatePersona(p *Persona) (int, error)
	UpdatePersona(p *Persona) error
	SetConnectionPoint(personaID int, val bool) error
	CountArbresByConnectionPersona(personaID int) (int, error)
	DeleteClonsByOrigen(origenID int) (int64, error)
	InsertCanvi(c *Canvi) (int, error)
}

type DB interface {
	Store
	Connect() error
	Close()
	Exec(query string, args ...interface{}) (int64, error)
	// WithTx executa fn dins d'una transacció: commit si fn retorna nil,
	// rollback si retorna error o fa pànic.
	WithTx(ctx context.Context, fn func(Store) error) error

	// Usuaris
	InsertUser(u *User, password string) (int, error)
	GetUserByID(id int) (*User, error)
	AuthenticateUser(usernameOrEmail, password string) (*User, error)
	SetUserAdmin(id int, admin bool) error
	SetUserActive(id int, active bool) error

	// Arbres
	CreateArbre(a *Arbre) (int, error)
	ListArbresByOwner(ownerID int) ([]Arbre, error)
	ListArbresByParent(parentID int) ([]Arbre, error)
	RenameArbre(id int, nom string) error
	DeleteArbre(ownerID, id int) error

	// Persones
	CountFills(personaID int) (int, error)
	DeletePersona(id int) error
	SearchPersones(ownerID int, words []string, limit int) ([]Persona, error)

	// Catàlegs
	CreateOfici(nom string) (int, error)
	ListOficis() ([]Ofici, error)
	CreatePais(nom, codi string) (int, error)
	ListPaisos() ([]Pais, error)

	// Arbres combinats
	CreateArbreCombinat(c *ArbreCombinat) (int, error)
	GetArbreCombinat(id int) (*ArbreCombinat, error)
	AddArbreCombinatItem(it *ArbreCombinatItem) (int, error)
	ListArbreCombinatItems(combinatID int) ([]ArbreCombinatItem, error)

	// Registre de canvis d'enllaç
	ListCanvisByArbre(arbreID int, limit int) ([]Canvi, error)
}

type User struct {
	ID        int
	Usuari    string
	Email     string
	Password  []byte
	IsAdmin   bool
	Active    bool
	CreatedAt sql.NullTime
}

// Arbre és un arbre familiar. DataIndependent=false vol dir que les seves
// persones s'han clonat dins ParentArbreID.
type Arbre struct {
	ID                  int
	OwnerUserID         int
	Nom                 string
	ParentArbreID       sql.NullInt64
	ConnectionPersonaID sql.NullInt64
	DataIndependent     bool
	CreatedAt           sql.NullTime
	UpdatedAt           sql.NullTime
}

type Persona struct {
	ID                int
	ArbreID           int
	Nom               string
	NomPare           string
	NomAvi            string
	Cognom            string
	Sexe              string
	DataNaixement     sql.NullString
	DataDefuncio      sql.NullString
	Ciutat            string
	Foto              string
	Notes             string
	Motiu             string
	OficiID           sql.NullInt64
	PaisID            sql.NullInt64
	PareID            sql.NullInt64
	MareID            sql.NullInt64
	IsOriginal        bool
	OriginalArbreID   sql.NullInt64
	SourcePersonaID   sql.NullInt64
	IsConnectionPoint bool
	CreatedAt         sql.NullTime
	UpdatedAt         sql.NullTime
}

// NomComplet retorna el nom per mostrar: nom, nom del pare, nom de l'avi i cognom.
func (p Persona) NomComplet() string {
	parts := make([]string, 0, 4)
	for _, v := range []string{p.Nom, p.NomPare, p.NomAvi, p.Cognom} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

type Ofici struct {
	ID  int
	Nom string
}

type Pais struct {
	ID   int
	Nom  string
	Codi string
}

// ArbreCombinat és una vista agregada de diversos arbres; no és propietari de dades.
type ArbreCombinat struct {
	ID          int
	OwnerUserID int
	Nom         string
	CreatedAt   sql.NullTime
}

type ArbreCombinatItem struct {
	ID                  int
	CombinatID          int
	ArbreID             int
	ConnectionPersonaID sql.NullInt64
}

// Canvi és una entrada del registre d'operacions d'enllaç.
type Canvi struct {
	ID           int
	OpID         string
	ArbreID      int
	DestiArbreID sql.NullInt64
	Accio        string
	Resultat     string
	Detall       string
	CreatedAt    sql.NullTime
}

// Funció principal per obtenir una connexió i crear l'esquema si cal
func NewDB(config map[string]string) (DB, error) {
	var dbInstance DB
	engine := strings.ToLower(strings.TrimSpace(config["DB_ENGINE"]))

	switch engine {
	case "", "sqlite":
		engine = "sqlite"
		dbInstance = &SQLite{Path: config["DB_PATH"]}
	case "postgres":
		dbInstance = &PostgreSQL{
			Host:   config["DB_HOST"],
			Port:   config["DB_PORT"],
			User:   config["DB_USR"],
			Pass:   config["DB_PASS"],
			DBName: config["DB_NAME"],
		}
	case "mysql":
		dbInstance = &MySQL{
			Host:   config["DB_HOST"],
			Port:   config["DB_PORT"],
			User:   config["DB_USR"],
			Pass:   config["DB_PASS"],
			DBName: config["DB_NAME"],
		}
	default:
		return nil, fmt.Errorf("motor de BD desconegut: %s", engine)
	}

	if err := dbInstance.Connect(); err != nil {
		return nil, err
	}

	recrea := strings.EqualFold(strings.TrimSpace(config["RECREADB"]), "true")
	if err := CreateSchema(engine, dbInstance, recrea); err != nil {
		dbInstance.Close()
		return nil, fmt.Errorf("error creant esquema amb %s: %w", engine, err)
	}

	return dbInstance, nil
}

// CreateSchema executa les sentències de l'esquema del motor. Amb recrea=true
// primer esborra les taules existents.
func CreateSchema(engine string, db DB, recrea bool) error {
	stmts, ok := schemaStatements[engine]
	if !ok {
		return fmt.Errorf("sense esquema per al motor %s", engine)
	}
	if recrea {
		logInfof("Recreant BD (%s)", engine)
		for _, table := range dropOrder {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return fmt.Errorf("error esborrant %s: %w", table, err)
			}
		}
	}
	for _, stmt := range stmts {
		q := strings.TrimSpace(stmt)
		if q == "" {
			continue
		}
		if _, err := db.Exec(q); err != nil {
			snip := q
			if len(snip) > 120 {
				snip = snip[:120] + " ..."
			}
			return fmt.Errorf("error executant '%s': %w", snip, err)
		}
	}
	logInfof("Esquema preparat")
	return nil
}
