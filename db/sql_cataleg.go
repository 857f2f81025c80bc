package db

import (
	"fmt"
	"strings"
)

func (s sqlStore) CreateOfici(nom string) (int, error) {
	nom = strings.TrimSpace(nom)
	if nom == "" {
		return 0, fmt.Errorf("nom d'ofici buit")
	}
	return s.h.insert(`INSERT INTO oficis (nom) VALUES (?)`, nom)
}

func (s sqlStore) ListOficis() ([]Ofici, error) {
	rows, err := s.h.query(`SELECT id, nom FROM oficis ORDER BY nom`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Ofici
	for rows.Next() {
		var o Ofici
		if err := rows.Scan(&o.ID, &o.Nom); err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}

func (s sqlStore) CreatePais(nom, codi string) (int, error) {
	nom = strings.TrimSpace(nom)
	if nom == "" {
		return 0, fmt.Errorf("nom de país buit")
	}
	return s.h.insert(`INSERT INTO paisos (nom, codi) VALUES (?, ?)`, nom, strings.ToUpper(strings.TrimSpace(codi)))
}

func (s sqlStore) ListPaisos() ([]Pais, error) {
	rows, err := s.h.query(`SELECT id, nom, codi FROM paisos ORDER BY nom`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Pais
	for rows.Next() {
		var p Pais
		if err := rows.Scan(&p.ID, &p.Nom, &p.Codi); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}
