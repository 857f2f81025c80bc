package db

import (
	"database/sql"
	"strings"
)

const arbreCols = `id, owner_user_id, nom, parent_arbre_id, connection_persona_id, data_independent, created_at, updated_at`

func scanArbre(row rowScanner) (*Arbre, error) {
	var a Arbre
	if err := row.Scan(&a.ID, &a.OwnerUserID, &a.Nom, &a.ParentArbreID, &a.ConnectionPersonaID, &a.DataIndependent, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (h sqlHelper) listArbres(query string, args ...interface{}) ([]Arbre, error) {
	rows, err := h.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Arbre
	for rows.Next() {
		a, err := scanArbre(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *a)
	}
	return res, rows.Err()
}

func (s storeOps) GetArbre(id int) (*Arbre, error) {
	return scanArbre(s.h.queryRow(`SELECT `+arbreCols+` FROM arbres WHERE id = ?`, id))
}

func (s storeOps) ListArbresByParent(parentID int) ([]Arbre, error) {
	return s.h.listArbres(`SELECT `+arbreCols+` FROM arbres WHERE parent_arbre_id = ? ORDER BY id`, parentID)
}

// UpdateArbreEnllac escriu els tres camps d'enllaç en una sola sentència.
func (s storeOps) UpdateArbreEnllac(a *Arbre) error {
	if a == nil || a.ID == 0 {
		return nil
	}
	stmt := `UPDATE arbres
        SET data_independent = ?, parent_arbre_id = ?, connection_persona_id = ?, updated_at = ` + s.h.nowFun + `
        WHERE id = ?`
	res, err := s.h.exec(stmt, a.DataIndependent, a.ParentArbreID, a.ConnectionPersonaID, a.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountArbresByConnectionPersona compta els arbres enllaçats a través de la persona.
func (s storeOps) CountArbresByConnectionPersona(personaID int) (int, error) {
	return s.h.count(`SELECT COUNT(*) FROM arbres WHERE connection_persona_id = ?`, personaID)
}

func (s sqlStore) CreateArbre(a *Arbre) (int, error) {
	if a == nil {
		return 0, nil
	}
	a.Nom = strings.TrimSpace(a.Nom)
	if !a.ParentArbreID.Valid {
		a.DataIndependent = true
	}
	stmt := `INSERT INTO arbres (owner_user_id, nom, parent_arbre_id, connection_persona_id, data_independent, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ` + s.h.nowFun + `, ` + s.h.nowFun + `)`
	id, err := s.h.insert(stmt, a.OwnerUserID, a.Nom, a.ParentArbreID, a.ConnectionPersonaID, a.DataIndependent)
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

func (s sqlStore) ListArbresByOwner(ownerID int) ([]Arbre, error) {
	return s.h.listArbres(`SELECT `+arbreCols+` FROM arbres WHERE owner_user_id = ? ORDER BY nom, id`, ownerID)
}

func (s sqlStore) RenameArbre(id int, nom string) error {
	res, err := s.h.exec(`UPDATE arbres SET nom = ?, updated_at = `+s.h.nowFun+` WHERE id = ?`, strings.TrimSpace(nom), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteArbre esborra un arbre buit del propietari. Amb persones o arbres
// fills retorna ErrTreeNotEmpty.
func (s sqlStore) DeleteArbre(ownerID, id int) error {
	persones, err := s.h.count(`SELECT COUNT(*) FROM persones WHERE arbre_id = ?`, id)
	if err != nil {
		return err
	}
	fills, err := s.h.count(`SELECT COUNT(*) FROM arbres WHERE parent_arbre_id = ?`, id)
	if err != nil {
		return err
	}
	if persones > 0 || fills > 0 {
		return ErrTreeNotEmpty
	}
	res, err := s.h.exec(`DELETE FROM arbres WHERE id = ? AND owner_user_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return err
}
