package cerca

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/marcmoiagese/ArbresFamiliars/db"
)

const maxResultats = 10

// Searcher és la part de la BD que fa servir la cerca.
type Searcher interface {
	SearchPersones(ownerID int, words []string, limit int) ([]db.Persona, error)
}

type Resultat struct {
	ID        int    `json:"id"`
	ArbreID   int    `json:"arbre_id"`
	Nom       string `json:"nom"`
	Ciutat    string `json:"ciutat,omitempty"`
	Naixement string `json:"naixement,omitempty"`
	Clon      bool   `json:"clon,omitempty"`
}

// ErrorWriter escriu la resposta d'error amb el codi indicat.
type ErrorWriter func(w http.ResponseWriter, status int)

// CercaHandler busca persones dels arbres de l'usuari. userID resol l'usuari
// de la petició; si falla es respon 401 a través de writeErr.
func CercaHandler(s Searcher, userID func(*http.Request) (int, error), writeErr ErrorWriter) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		uid, err := userID(r)
		if err != nil {
			writeErr(w, http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		words := strings.Fields(r.URL.Query().Get("q"))
		if len(words) == 0 {
			json.NewEncoder(w).Encode([]Resultat{})
			return
		}

		persones, err := s.SearchPersones(uid, words, maxResultats)
		if err != nil {
			writeErr(w, http.StatusInternalServerError)
			return
		}

		resultats := make([]Resultat, 0, len(persones))
		for _, p := range persones {
			resultats = append(resultats, Resultat{
				ID:        p.ID,
				ArbreID:   p.ArbreID,
				Nom:       p.NomComplet(),
				Ciutat:    p.Ciutat,
				Naixement: p.DataNaixement.String,
				Clon:      !p.IsOriginal,
			})
		}
		json.NewEncoder(w).Encode(resultats)
	}
}
