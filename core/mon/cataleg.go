// Package mon serveix el catàleg de països i oficis que fan servir les fitxes
// de persona.
package mon

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/marcmoiagese/ArbresFamiliars/db"
)

type Cataleg interface {
	ListPaisos() ([]db.Pais, error)
	ListOficis() ([]db.Ofici, error)
}

type Pais struct {
	ID   int    `json:"id"`
	Nom  string `json:"nom"`
	Codi string `json:"codi"`
}

type Ofici struct {
	ID  int    `json:"id"`
	Nom string `json:"nom"`
}

// Paisos retorna els països; amb filtre només els que el contenen al nom o
// al codi, sense distingir majúscules.
func Paisos(c Cataleg, filtre string) ([]Pais, error) {
	llista, err := c.ListPaisos()
	if err != nil {
		return nil, err
	}
	filtre = strings.ToLower(strings.TrimSpace(filtre))
	res := make([]Pais, 0, len(llista))
	for _, p := range llista {
		if filtre != "" && !strings.Contains(strings.ToLower(p.Nom), filtre) && !strings.EqualFold(p.Codi, filtre) {
			continue
		}
		res = append(res, Pais{ID: p.ID, Nom: p.Nom, Codi: p.Codi})
	}
	return res, nil
}

func Oficis(c Cataleg, filtre string) ([]Ofici, error) {
	llista, err := c.ListOficis()
	if err != nil {
		return nil, err
	}
	filtre = strings.ToLower(strings.TrimSpace(filtre))
	res := make([]Ofici, 0, len(llista))
	for _, o := range llista {
		if filtre != "" && !strings.Contains(strings.ToLower(o.Nom), filtre) {
			continue
		}
		res = append(res, Ofici{ID: o.ID, Nom: o.Nom})
	}
	return res, nil
}

// ErrorWriter escriu la resposta d'error amb el codi indicat.
type ErrorWriter func(w http.ResponseWriter, status int)

func PaisosHandler(c Cataleg, writeErr ErrorWriter) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		res, err := Paisos(c, r.URL.Query().Get("q"))
		writeLlista(w, writeErr, res, err)
	}
}

func OficisHandler(c Cataleg, writeErr ErrorWriter) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		res, err := Oficis(c, r.URL.Query().Get("q"))
		writeLlista(w, writeErr, res, err)
	}
}

func writeLlista(w http.ResponseWriter, writeErr ErrorWriter, v interface{}, err error) {
	if err != nil {
		writeErr(w, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
