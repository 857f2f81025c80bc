package db

func (s storeOps) InsertCanvi(c *Canvi) (int, error) {
	if c == nil {
		return 0, nil
	}
	stmt := `INSERT INTO arbres_canvis (op_id, arbre_id, desti_arbre_id, accio, resultat, detall, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ` + s.h.nowFun + `)`
	id, err := s.h.insert(stmt, c.OpID, c.ArbreID, c.DestiArbreID, c.Accio, c.Resultat, c.Detall)
	if err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}

// ListCanvisByArbre retorna els canvis on l'arbre és origen o destí, més recents primer.
func (s sqlStore) ListCanvisByArbre(arbreID int, limit int) ([]Canvi, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.h.query(`SELECT id, op_id, arbre_id, desti_arbre_id, accio, resultat, detall, created_at
        FROM arbres_canvis WHERE arbre_id = ? OR desti_arbre_id = ? ORDER BY id DESC LIMIT ?`, arbreID, arbreID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Canvi
	for rows.Next() {
		var c Canvi
		if err := rows.Scan(&c.ID, &c.OpID, &c.ArbreID, &c.DestiArbreID, &c.Accio, &c.Resultat, &c.Detall, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
