package db

import (
	"database/sql"
	"strings"
)

const personaCols = `id, arbre_id, nom, nom_pare, nom_avi, cognom, sexe, data_naixement, data_defuncio, ciutat, foto, notes, motiu,
        ofici_id, pais_id, pare_id, mare_id, is_original, original_arbre_id, source_persona_id, is_connection_point, created_at, updated_at`

func scanPersona(row rowScanner) (*Persona, error) {
	var p Persona
	if err := row.Scan(&p.ID, &p.ArbreID, &p.Nom, &p.NomPare, &p.NomAvi, &p.Cognom, &p.Sexe, &p.DataNaixement, &p.DataDefuncio,
		&p.Ciutat, &p.Foto, &p.Notes, &p.Motiu, &p.OficiID, &p.PaisID, &p.PareID, &p.MareID,
		&p.IsOriginal, &p.OriginalArbreID, &p.SourcePersonaID, &p.IsConnectionPoint, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (h sqlHelper) listPersones(query string, args ...interface{}) ([]Persona, error) {
	rows, err := h.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Persona
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *p)
	}
	return res, rows.Err()
}

func trimPersona(p *Persona) {
	p.Nom = strings.TrimSpace(p.Nom)
	p.NomPare = strings.TrimSpace(p.NomPare)
	p.NomAvi = strings.TrimSpace(p.NomAvi)
	p.Cognom = strings.TrimSpace(p.Cognom)
	p.Sexe = strings.TrimSpace(p.Sexe)
	p.Ciutat = strings.TrimSpace(p.Ciutat)
}

func (s storeOps) GetPersona(id int) (*Persona, error) {
	return scanPersona(s.h.queryRow(`SELECT `+personaCols+` FROM persones WHERE id = ?`, id))
}

func (s storeOps) ListPersonesByArbre(arbreID int) ([]Persona, error) {
	return s.h.listPersones(`SELECT `+personaCols+` FROM persones WHERE arbre_id = ? ORDER BY id`, arbreID)
}

// ListClons retorna els clons que origenID ha deixat dins arbreID.
func (s storeOps) ListClons(arbreID, origenID int) ([]Persona, error) {
	return s.h.listPersones(`SELECT `+personaCols+` FROM persones
        WHERE arbre_id = ? AND original_arbre_id = ? AND is_original = ? ORDER BY id`, arbreID, origenID, false)
}

func (s storeOps) CreatePersona(p *Persona) (int, error) {
	if p == nil {
		return 0, nil
	}
	trimPersona(p)
	stmt := `INSERT INTO persones (arbre_id, nom, nom_pare, nom_avi, cognom, sexe, data_naixement, data_defuncio, ciutat, foto, notes, motiu,
        ofici_id, pais_id, pare_id, mare_id, is_original, original_arbre_id, source_persona_id, is_connection_point, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ` + s.h.nowFun + `, ` + s.h.nowFun + `)`
	id, err := s.h.insert(stmt, p.ArbreID, p.Nom, p.NomPare, p.NomAvi, p.Cognom, p.Sexe, p.DataNaixement, p.DataDefuncio,
		p.Ciutat, p.Foto, p.Notes, p.Motiu, p.OficiID, p.PaisID, p.PareID, p.MareID,
		p.IsOriginal, p.OriginalArbreID, p.SourcePersonaID, p.IsConnectionPoint)
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

// UpdatePersona reescriu els camps descriptius i els pares; no toca
// arbre_id, created_at ni la procedència del clon.
func (s storeOps) UpdatePersona(p *Persona) error {
	if p == nil || p.ID == 0 {
		return nil
	}
	trimPersona(p)
	stmt := `UPDATE persones
        SET nom = ?, nom_pare = ?, nom_avi = ?, cognom = ?, sexe = ?, data_naixement = ?, data_defuncio = ?, ciutat = ?, foto = ?, notes = ?, motiu = ?,
            ofici_id = ?, pais_id = ?, pare_id = ?, mare_id = ?, is_connection_point = ?, updated_at = ` + s.h.nowFun + `
        WHERE id = ?`
	res, err := s.h.exec(stmt, p.Nom, p.NomPare, p.NomAvi, p.Cognom, p.Sexe, p.DataNaixement, p.DataDefuncio, p.Ciutat, p.Foto, p.Notes, p.Motiu,
		p.OficiID, p.PaisID, p.PareID, p.MareID, p.IsConnectionPoint, p.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s storeOps) SetConnectionPoint(personaID int, val bool) error {
	_, err := s.h.exec(`UPDATE persones SET is_connection_point = ?, updated_at = `+s.h.nowFun+` WHERE id = ?`, val, personaID)
	return err
}

// DeleteClonsByOrigen esborra tots els clons amb original_arbre_id = origenID,
// sigui quin sigui l'arbre on viuen. Els originals no es toquen.
func (s storeOps) DeleteClonsByOrigen(origenID int) (int64, error) {
	res, err := s.h.exec(`DELETE FROM persones WHERE original_arbre_id = ? AND is_original = ?`, origenID, false)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s sqlStore) CountFills(personaID int) (int, error) {
	return s.h.count(`SELECT COUNT(*) FROM persones WHERE pare_id = ? OR mare_id = ?`, personaID, personaID)
}

// DeletePersona esborra una persona sense fills; si en té retorna ErrHasChildren.
func (s sqlStore) DeletePersona(id int) error {
	fills, err := s.CountFills(id)
	if err != nil {
		return err
	}
	if fills > 0 {
		return ErrHasChildren
	}
	res, err := s.h.exec(`DELETE FROM persones WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SearchPersones busca persones dels arbres de l'usuari on cada paraula
// apareix al nom, al nom del pare, al de l'avi o al cognom.
func (s sqlStore) SearchPersones(ownerID int, words []string, limit int) ([]Persona, error) {
	if limit <= 0 {
		limit = 10
	}
	clauses := []string{"a.owner_user_id = ?"}
	args := []interface{}{ownerID}
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w == "" {
			continue
		}
		like := "%" + likeEscaper.Replace(w) + "%"
		clauses = append(clauses, "(LOWER(p.nom) LIKE ? ESCAPE '!' OR LOWER(p.nom_pare) LIKE ? ESCAPE '!' OR LOWER(p.nom_avi) LIKE ? ESCAPE '!' OR LOWER(p.cognom) LIKE ? ESCAPE '!')")
		args = append(args, like, like, like, like)
	}
	if len(clauses) == 1 {
		return nil, nil
	}
	args = append(args, limit)
	query := `SELECT ` + prefixCols("p.", personaCols) + ` FROM persones p JOIN arbres a ON a.id = p.arbre_id
        WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY p.nom, p.id LIMIT ?`
	return s.h.listPersones(query, args...)
}

// likeEscaper escapa els comodins de LIKE amb '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func prefixCols(prefix, cols string) string {
	parts := strings.Split(cols, ",")
	for i, c := range parts {
		parts[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}
