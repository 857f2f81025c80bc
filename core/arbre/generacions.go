// Package arbre organitza persones en generacions i calcula la disposició
// gràfica d'un arbre familiar.
package arbre

import (
	"iter"
	"slices"
	"strings"

	"github.com/marcmoiagese/ArbresFamiliars/db"
)

// Node és la vista mínima d'una persona que necessita el dibuix.
type Node struct {
	ID         int    `json:"id"`
	FatherID   *int   `json:"father_id,omitempty"`
	MotherID   *int   `json:"mother_id,omitempty"`
	Name       string `json:"name"`
	Birth      string `json:"birth,omitempty"`
	Death      string `json:"death,omitempty"`
	City       string `json:"city,omitempty"`
	Occupation string `json:"occupation,omitempty"`
}

// FromPersona converteix una fila de persones. oficis resol ofici_id a nom
// i pot ser nil.
func FromPersona(p db.Persona, oficis map[int]string) Node {
	n := Node{
		ID:   p.ID,
		Name: p.NomComplet(),
		City: strings.TrimSpace(p.Ciutat),
	}
	if n.Name == "" {
		n.Name = "?"
	}
	if p.PareID.Valid {
		id := int(p.PareID.Int64)
		n.FatherID = &id
	}
	if p.MareID.Valid {
		id := int(p.MareID.Int64)
		n.MotherID = &id
	}
	if p.DataNaixement.Valid {
		n.Birth = strings.TrimSpace(p.DataNaixement.String)
	}
	if p.DataDefuncio.Valid {
		n.Death = strings.TrimSpace(p.DataDefuncio.String)
	}
	if p.OficiID.Valid && oficis != nil {
		n.Occupation = oficis[int(p.OficiID.Int64)]
	}
	return n
}

// FromPersones converteix una llista mantenint l'ordre.
func FromPersones(persones []db.Persona, oficis map[int]string) []Node {
	res := make([]Node, 0, len(persones))
	for _, p := range persones {
		res = append(res, FromPersona(p, oficis))
	}
	return res
}

// Generations recorre les persones per capes (BFS per pare) començant per
// les que no tenen pare. Si no n'hi ha cap, totes formen una sola generació.
// Les persones que el recorregut no assoleix (pares penjants, cicles) surten
// juntes en una darrera generació. Cada persona surt exactament una vegada.
func Generations(persons []Node) iter.Seq[[]Node] {
	return func(yield func([]Node) bool) {
		if len(persons) == 0 {
			return
		}

		children := make(map[int][]int, len(persons))
		var current []int
		for i, p := range persons {
			if p.FatherID == nil {
				current = append(current, i)
				continue
			}
			children[*p.FatherID] = append(children[*p.FatherID], i)
		}

		if len(current) == 0 {
			yield(slices.Clone(persons))
			return
		}

		// visited va per índex perquè ids duplicats no facin perdre files
		visited := make([]bool, len(persons))
		for _, i := range current {
			visited[i] = true
		}

		for len(current) > 0 {
			if !yield(pick(persons, current)) {
				return
			}
			var next []int
			for _, i := range current {
				for _, c := range children[persons[i].ID] {
					if visited[c] {
						continue
					}
					visited[c] = true
					next = append(next, c)
				}
			}
			current = next
		}

		var orphans []int
		for i := range persons {
			if !visited[i] {
				orphans = append(orphans, i)
			}
		}
		if len(orphans) > 0 {
			yield(pick(persons, orphans))
		}
	}
}

// OrganizeByGeneration és Generations materialitzat.
func OrganizeByGeneration(persons []Node) [][]Node {
	return slices.Collect(Generations(persons))
}

func pick(persons []Node, idx []int) []Node {
	res := make([]Node, 0, len(idx))
	for _, i := range idx {
		res = append(res, persons[i])
	}
	return res
}
