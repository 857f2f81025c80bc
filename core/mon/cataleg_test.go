package mon

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	"github.com/marcmoiagese/ArbresFamiliars/db"
)

type fakeCataleg struct {
	paisos []db.Pais
	oficis []db.Ofici
	err    error
}

func (f fakeCataleg) ListPaisos() ([]db.Pais, error) { return f.paisos, f.err }
func (f fakeCataleg) ListOficis() ([]db.Ofici, error) { return f.oficis, f.err }

var cataleg = fakeCataleg{
	paisos: []db.Pais{{ID: 1, Nom: "Andorra", Codi: "AD"}, {ID: 2, Nom: "Espanya", Codi: "ES"}, {ID: 3, Nom: "França", Codi: "FR"}},
	oficis: []db.Ofici{{ID: 1, Nom: "Pagès"}, {ID: 2, Nom: "Paleta"}, {ID: 3, Nom: "Teixidor"}},
}

func jsonError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": "error"})
}

func TestPaisosFiltre(t *testing.T) {
	tots, err := Paisos(cataleg, "")
	if err != nil || len(tots) != 3 {
		t.Fatalf("esperava 3 països, tinc %d (%v)", len(tots), err)
	}
	perNom, _ := Paisos(cataleg, "fran")
	if len(perNom) != 1 || perNom[0].Codi != "FR" {
		t.Fatalf("filtre per nom inesperat: %+v", perNom)
	}
	perCodi, _ := Paisos(cataleg, "es")
	if len(perCodi) != 1 || perCodi[0].Nom != "Espanya" {
		t.Fatalf("filtre per codi inesperat: %+v", perCodi)
	}
}

func TestOficisHandler(t *testing.T) {
	r := httprouter.New()
	r.GET("/api/oficis", OficisHandler(cataleg, jsonError))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/oficis?q=pa", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("codi inesperat %d", rr.Code)
	}
	var got []Ofici
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("JSON invàlid: %v", err)
	}
	if len(got) != 2 || got[0].Nom != "Pagès" || got[1].Nom != "Paleta" {
		t.Fatalf("oficis inesperats: %+v", got)
	}
}

func TestPaisosHandlerBuitIError(t *testing.T) {
	r := httprouter.New()
	r.GET("/api/paisos", PaisosHandler(fakeCataleg{}, jsonError))
	r.GET("/api/error", PaisosHandler(fakeCataleg{err: errors.New("bd caiguda")}, jsonError))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/paisos", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "[]\n" {
		t.Fatalf("esperava llista buida, tinc %d %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/error", nil))
	if rr.Code != http.StatusInternalServerError || !strings.Contains(rr.Body.String(), `"ok":false`) {
		t.Fatalf("esperava 500 amb cos JSON, tinc %d %q", rr.Code, rr.Body.String())
	}
}
