package cerca

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/julienschmidt/httprouter"

	"github.com/marcmoiagese/ArbresFamiliars/db"
)

type fakeSearcher struct {
	gotOwner int
	gotWords []string
	persones []db.Persona
	err      error
}

func (f *fakeSearcher) SearchPersones(ownerID int, words []string, limit int) ([]db.Persona, error) {
	f.gotOwner = ownerID
	f.gotWords = words
	if limit != maxResultats {
		return nil, errors.New("límit inesperat")
	}
	return f.persones, f.err
}

func headerUser(r *http.Request) (int, error) {
	return strconv.Atoi(r.Header.Get("X-User-ID"))
}

func jsonError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": "error"})
}

func expectJSONError(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("esperava %d, tinc %d", status, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type inesperat: %q", ct)
	}
	var resp struct {
		Ok    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp.Ok || resp.Error == "" {
		t.Fatalf("resposta d'error inesperada: %q (%v)", rr.Body.String(), err)
	}
}

func serve(s Searcher, url, user string) *httptest.ResponseRecorder {
	r := httprouter.New()
	r.GET("/api/cerca", CercaHandler(s, headerUser, jsonError))
	req := httptest.NewRequest(http.MethodGet, url, nil)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestCercaHandler(t *testing.T) {
	s := &fakeSearcher{persones: []db.Persona{
		{ID: 4, ArbreID: 2, Nom: "Joan", Cognom: "Puig", Ciutat: "Vic", IsOriginal: true,
			DataNaixement: sql.NullString{String: "1901-05-02", Valid: true}},
		{ID: 9, ArbreID: 3, Nom: "Joan", Cognom: "Puig"},
	}}
	rr := serve(s, "/api/cerca?q=joan+puig", "7")
	if rr.Code != http.StatusOK {
		t.Fatalf("codi inesperat %d", rr.Code)
	}
	if s.gotOwner != 7 || len(s.gotWords) != 2 || s.gotWords[1] != "puig" {
		t.Fatalf("paràmetres inesperats: owner=%d paraules=%v", s.gotOwner, s.gotWords)
	}
	var got []Resultat
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("JSON invàlid: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("esperava 2 resultats, tinc %d", len(got))
	}
	if got[0].Nom != "Joan Puig" || got[0].Naixement != "1901-05-02" || got[0].Clon {
		t.Fatalf("primer resultat inesperat: %+v", got[0])
	}
	if !got[1].Clon || got[1].ArbreID != 3 {
		t.Fatalf("segon resultat hauria de ser un clon: %+v", got[1])
	}
}

func TestCercaHandlerSenseConsulta(t *testing.T) {
	s := &fakeSearcher{}
	rr := serve(s, "/api/cerca?q=+++", "1")
	if rr.Code != http.StatusOK || rr.Body.String() != "[]\n" {
		t.Fatalf("esperava llista buida, tinc %d %q", rr.Code, rr.Body.String())
	}
	if s.gotWords != nil {
		t.Fatalf("no s'hauria d'haver consultat la BD")
	}
}

func TestCercaHandlerErrors(t *testing.T) {
	expectJSONError(t, serve(&fakeSearcher{}, "/api/cerca?q=joan", ""), http.StatusUnauthorized)
	expectJSONError(t, serve(&fakeSearcher{err: errors.New("bd")}, "/api/cerca?q=joan", "1"), http.StatusInternalServerError)
}
