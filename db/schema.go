package db

// Ordre d'esborrat quan RECREADB=true (fills abans que pares).
var dropOrder = []string{
	"arbres_canvis",
	"arbres_combinats_items",
	"arbres_combinats",
	"persones",
	"arbres",
	"paisos",
	"oficis",
	"usuaris",
}

var schemaStatements = map[string][]string{
	"sqlite": {
		`CREATE TABLE IF NOT EXISTS usuaris (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            usuari TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL UNIQUE,
            password_hash BLOB NOT NULL,
            is_admin BOOLEAN NOT NULL DEFAULT 0,
            active BOOLEAN NOT NULL DEFAULT 1,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS oficis (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            nom TEXT NOT NULL UNIQUE
        )`,
		`CREATE TABLE IF NOT EXISTS paisos (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            nom TEXT NOT NULL,
            codi TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS arbres (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            owner_user_id INTEGER NOT NULL,
            nom TEXT NOT NULL,
            parent_arbre_id INTEGER,
            connection_persona_id INTEGER,
            data_independent BOOLEAN NOT NULL DEFAULT 1,
            created_at TIMESTAMP,
            updated_at TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_arbres_owner ON arbres(owner_user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_arbres_parent ON arbres(parent_arbre_id)`,
		`CREATE TABLE IF NOT EXISTS persones (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            arbre_id INTEGER NOT NULL REFERENCES arbres(id),
            nom TEXT NOT NULL DEFAULT '',
            nom_pare TEXT NOT NULL DEFAULT '',
            nom_avi TEXT NOT NULL DEFAULT '',
            cognom TEXT NOT NULL DEFAULT '',
            sexe TEXT NOT NULL DEFAULT '',
            data_naixement TEXT,
            data_defuncio TEXT,
            ciutat TEXT NOT NULL DEFAULT '',
            foto TEXT NOT NULL DEFAULT '',
            notes TEXT NOT NULL DEFAULT '',
            motiu TEXT NOT NULL DEFAULT '',
            ofici_id INTEGER,
            pais_id INTEGER,
            pare_id INTEGER,
            mare_id INTEGER,
            is_original BOOLEAN NOT NULL DEFAULT 1,
            original_arbre_id INTEGER,
            source_persona_id INTEGER,
            is_connection_point BOOLEAN NOT NULL DEFAULT 0,
            created_at TIMESTAMP,
            updated_at TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_persones_arbre ON persones(arbre_id)`,
		`CREATE INDEX IF NOT EXISTS idx_persones_origen ON persones(original_arbre_id, is_original)`,
		`CREATE TABLE IF NOT EXISTS arbres_combinats (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            owner_user_id INTEGER NOT NULL,
            nom TEXT NOT NULL,
            created_at TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS arbres_combinats_items (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            combinat_id INTEGER NOT NULL REFERENCES arbres_combinats(id) ON DELETE CASCADE,
            arbre_id INTEGER NOT NULL REFERENCES arbres(id),
            connection_persona_id INTEGER
        )`,
		`CREATE TABLE IF NOT EXISTS arbres_canvis (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            op_id TEXT NOT NULL,
            arbre_id INTEGER NOT NULL,
            desti_arbre_id INTEGER,
            accio TEXT NOT NULL,
            resultat TEXT NOT NULL,
            detall TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_arbres_canvis_arbre ON arbres_canvis(arbre_id)`,
	},
	"postgres": {
		`CREATE TABLE IF NOT EXISTS usuaris (
            id SERIAL PRIMARY KEY,
            usuari TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL UNIQUE,
            password_hash BYTEA NOT NULL,
            is_admin BOOLEAN NOT NULL DEFAULT FALSE,
            active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMP DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS oficis (
            id SERIAL PRIMARY KEY,
            nom TEXT NOT NULL UNIQUE
        )`,
		`CREATE TABLE IF NOT EXISTS paisos (
            id SERIAL PRIMARY KEY,
            nom TEXT NOT NULL,
            codi TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS arbres (
            id SERIAL PRIMARY KEY,
            owner_user_id INTEGER NOT NULL,
            nom TEXT NOT NULL,
            parent_arbre_id INTEGER,
            connection_persona_id INTEGER,
            data_independent BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMP,
            updated_at TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_arbres_owner ON arbres(owner_user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_arbres_parent ON arbres(parent_arbre_id)`,
		`CREATE TABLE IF NOT EXISTS persones (
            id SERIAL PRIMARY KEY,
            arbre_id INTEGER NOT NULL REFERENCES arbres(id),
            nom TEXT NOT NULL DEFAULT '',
            nom_pare TEXT NOT NULL DEFAULT '',
            nom_avi TEXT NOT NULL DEFAULT '',
            cognom TEXT NOT NULL DEFAULT '',
            sexe TEXT NOT NULL DEFAULT '',
            data_naixement TEXT,
            data_defuncio TEXT,
            ciutat TEXT NOT NULL DEFAULT '',
            foto TEXT NOT NULL DEFAULT '',
            notes TEXT NOT NULL DEFAULT '',
            motiu TEXT NOT NULL DEFAULT '',
            ofici_id INTEGER,
            pais_id INTEGER,
            pare_id INTEGER,
            mare_id INTEGER,
            is_original BOOLEAN NOT NULL DEFAULT TRUE,
            original_arbre_id INTEGER,
            source_persona_id INTEGER,
            is_connection_point BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMP,
            updated_at TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_persones_arbre ON persones(arbre_id)`,
		`CREATE INDEX IF NOT EXISTS idx_persones_origen ON persones(original_arbre_id, is_original)`,
		`CREATE TABLE IF NOT EXISTS arbres_combinats (
            id SERIAL PRIMARY KEY,
            owner_user_id INTEGER NOT NULL,
            nom TEXT NOT NULL,
            created_at TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS arbres_combinats_items (
            id SERIAL PRIMARY KEY,
            combinat_id INTEGER NOT NULL REFERENCES arbres_combinats(id) ON DELETE CASCADE,
            arbre_id INTEGER NOT NULL REFERENCES arbres(id),
            connection_persona_id INTEGER
        )`,
		`CREATE TABLE IF NOT EXISTS arbres_canvis (
            id SERIAL PRIMARY KEY,
            op_id TEXT NOT NULL,
            arbre_id INTEGER NOT NULL,
            desti_arbre_id INTEGER,
            accio TEXT NOT NULL,
            resultat TEXT NOT NULL,
            detall TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_arbres_canvis_arbre ON arbres_canvis(arbre_id)`,
	},
	"mysql": {
		`CREATE TABLE IF NOT EXISTS usuaris (
            id INT AUTO_INCREMENT PRIMARY KEY,
            usuari VARCHAR(100) NOT NULL UNIQUE,
            email VARCHAR(255) NOT NULL UNIQUE,
            password_hash BLOB NOT NULL,
            is_admin BOOLEAN NOT NULL DEFAULT FALSE,
            active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS oficis (
            id INT AUTO_INCREMENT PRIMARY KEY,
            nom VARCHAR(255) NOT NULL UNIQUE
        )`,
		`CREATE TABLE IF NOT EXISTS paisos (
            id INT AUTO_INCREMENT PRIMARY KEY,
            nom VARCHAR(255) NOT NULL,
            codi VARCHAR(10) NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS arbres (
            id INT AUTO_INCREMENT PRIMARY KEY,
            owner_user_id INT NOT NULL,
            nom VARCHAR(255) NOT NULL,
            parent_arbre_id INT NULL,
            connection_persona_id INT NULL,
            data_independent BOOLEAN NOT NULL DEFAULT TRUE,
            created_at DATETIME NULL,
            updated_at DATETIME NULL,
            INDEX idx_arbres_owner (owner_user_id),
            INDEX idx_arbres_parent (parent_arbre_id)
        )`,
		`CREATE TABLE IF NOT EXISTS persones (
            id INT AUTO_INCREMENT PRIMARY KEY,
            arbre_id INT NOT NULL,
            nom VARCHAR(255) NOT NULL DEFAULT '',
            nom_pare VARCHAR(255) NOT NULL DEFAULT '',
            nom_avi VARCHAR(255) NOT NULL DEFAULT '',
            cognom VARCHAR(255) NOT NULL DEFAULT '',
            sexe VARCHAR(20) NOT NULL DEFAULT '',
            data_naixement VARCHAR(50) NULL,
            data_defuncio VARCHAR(50) NULL,
            ciutat VARCHAR(255) NOT NULL DEFAULT '',
            foto VARCHAR(500) NOT NULL DEFAULT '',
            notes TEXT NULL,
            motiu TEXT NULL,
            ofici_id INT NULL,
            pais_id INT NULL,
            pare_id INT NULL,
            mare_id INT NULL,
            is_original BOOLEAN NOT NULL DEFAULT TRUE,
            original_arbre_id INT NULL,
            source_persona_id INT NULL,
            is_connection_point BOOLEAN NOT NULL DEFAULT FALSE,
            created_at DATETIME NULL,
            updated_at DATETIME NULL,
            INDEX idx_persones_arbre (arbre_id),
            INDEX idx_persones_origen (original_arbre_id, is_original),
            FOREIGN KEY (arbre_id) REFERENCES arbres(id)
        )`,
		`CREATE TABLE IF NOT EXISTS arbres_combinats (
            id INT AUTO_INCREMENT PRIMARY KEY,
            owner_user_id INT NOT NULL,
            nom VARCHAR(255) NOT NULL,
            created_at DATETIME NULL
        )`,
		`CREATE TABLE IF NOT EXISTS arbres_combinats_items (
            id INT AUTO_INCREMENT PRIMARY KEY,
            combinat_id INT NOT NULL,
            arbre_id INT NOT NULL,
            connection_persona_id INT NULL,
            FOREIGN KEY (combinat_id) REFERENCES arbres_combinats(id) ON DELETE CASCADE,
            FOREIGN KEY (arbre_id) REFERENCES arbres(id)
        )`,
		`CREATE TABLE IF NOT EXISTS arbres_canvis (
            id INT AUTO_INCREMENT PRIMARY KEY,
            op_id VARCHAR(36) NOT NULL,
            arbre_id INT NOT NULL,
            desti_arbre_id INT NULL,
            accio VARCHAR(30) NOT NULL,
            resultat VARCHAR(30) NOT NULL,
            detall TEXT NULL,
            created_at DATETIME NULL,
            INDEX idx_arbres_canvis_arbre (arbre_id)
        )`,
	},
}
