package db

import "strings"

func (s sqlStore) CreateArbreCombinat(c *ArbreCombinat) (int, error) {
	if c == nil {
		return 0, nil
	}
	c.Nom = strings.TrimSpace(c.Nom)
	id, err := s.h.insert(`INSERT INTO arbres_combinats (owner_user_id, nom, created_at) VALUES (?, ?, `+s.h.nowFun+`)`,
		c.OwnerUserID, c.Nom)
	if err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}

func (s sqlStore) GetArbreCombinat(id int) (*ArbreCombinat, error) {
	var c ArbreCombinat
	err := s.h.queryRow(`SELECT id, owner_user_id, nom, created_at FROM arbres_combinats WHERE id = ?`, id).
		Scan(&c.ID, &c.OwnerUserID, &c.Nom, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s sqlStore) AddArbreCombinatItem(it *ArbreCombinatItem) (int, error) {
	if it == nil {
		return 0, nil
	}
	id, err := s.h.insert(`INSERT INTO arbres_combinats_items (combinat_id, arbre_id, connection_persona_id) VALUES (?, ?, ?)`,
		it.CombinatID, it.ArbreID, it.ConnectionPersonaID)
	if err != nil {
		return 0, err
	}
	it.ID = id
	return id, nil
}

func (s sqlStore) ListArbreCombinatItems(combinatID int) ([]ArbreCombinatItem, error) {
	rows, err := s.h.query(`SELECT id, combinat_id, arbre_id, connection_persona_id
        FROM arbres_combinats_items WHERE combinat_id = ? ORDER BY id`, combinatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []ArbreCombinatItem
	for rows.Next() {
		var it ArbreCombinatItem
		if err := rows.Scan(&it.ID, &it.CombinatID, &it.ArbreID, &it.ConnectionPersonaID); err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}
