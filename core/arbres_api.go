package core

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/marcmoiagese/ArbresFamiliars/core/arbre"
	"github.com/marcmoiagese/ArbresFamiliars/core/enllac"
	"github.com/marcmoiagese/ArbresFamiliars/core/foto"
	"github.com/marcmoiagese/ArbresFamiliars/db"
)

const (
	genericErrorMsg = "S'ha produït un error durant l'operació"
	userHeader      = "X-User-ID"
	maxFotoBytes    = 20 << 20
	thumbnailSide   = 400
)

var errNoAutenticat = errors.New("usuari no autenticat")

type apiResponse struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type enllacRequest struct {
	DestiID             int  `json:"desti_id" validate:"required,gt=0"`
	ConnectionPersonaID *int `json:"connection_persona_id" validate:"omitempty,gt=0"`
}

type sincronitzaRequest struct {
	DestiID int `json:"desti_id" validate:"omitempty,gt=0"`
}

type combinatArbre struct {
	ArbreID             int          `json:"arbre_id"`
	Nom                 string       `json:"nom"`
	ConnectionPersonaID int          `json:"connection_persona_id,omitempty"`
	Persones            []arbre.Node `json:"persones"`
}

type combinatResponse struct {
	ID     int             `json:"id"`
	Nom    string          `json:"nom"`
	Arbres []combinatArbre `json:"arbres"`
}

type canviResponse struct {
	OpID     string `json:"op_id"`
	ArbreID  int    `json:"arbre_id"`
	DestiID  int    `json:"desti_id,omitempty"`
	Accio    string `json:"accio"`
	Resultat string `json:"resultat"`
	Detall   string `json:"detall,omitempty"`
	Data     string `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	writeJSONStatus(w, http.StatusOK, payload)
}

func writeJSONStatus(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int) {
	writeJSONStatus(w, status, apiResponse{Ok: false, Error: genericErrorMsg})
}

// currentUserID llegeix l'usuari que l'autenticador ha deixat a la capçalera.
func currentUserID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(r.Header.Get(userHeader)))
	if err != nil || id <= 0 {
		return 0, errNoAutenticat
	}
	return id, nil
}

func paramID(ps httprouter.Params, name string) (int, bool) {
	id, err := strconv.Atoi(ps.ByName(name))
	return id, err == nil && id > 0
}

// ownedArbre carrega l'arbre si pertany a l'usuari; si no, escriu la resposta d'error.
func (a *App) ownedArbre(w http.ResponseWriter, userID, arbreID int) (*db.Arbre, bool) {
	t, err := a.DB.GetArbre(arbreID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound)
		} else {
			Errorf("error carregant arbre %d: %v", arbreID, err)
			writeError(w, http.StatusInternalServerError)
		}
		return nil, false
	}
	if t.OwnerUserID != userID {
		writeError(w, http.StatusNotFound)
		return nil, false
	}
	return t, true
}

// arbreRequest resol usuari i arbre de la ruta.
func (a *App) arbreRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (int, *db.Arbre, bool) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized)
		return 0, nil, false
	}
	id, ok := paramID(ps, "id")
	if !ok {
		writeError(w, http.StatusBadRequest)
		return 0, nil, false
	}
	t, ok := a.ownedArbre(w, userID, id)
	return userID, t, ok
}

func (a *App) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Body != nil && r.ContentLength != 0 {
		dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
		dec.DisallowUnknownFields()
		if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			Debugf("cos JSON invàlid: %v", err)
			writeError(w, http.StatusBadRequest)
			return false
		}
	}
	if err := a.validate.Struct(dst); err != nil {
		Debugf("validació fallida: %v", err)
		writeError(w, http.StatusBadRequest)
		return false
	}
	return true
}

func (a *App) oficisMap() map[int]string {
	res := map[int]string{}
	oficis, err := a.DB.ListOficis()
	if err != nil {
		Errorf("error carregant oficis: %v", err)
		return res
	}
	for _, o := range oficis {
		res[o.ID] = o.Nom
	}
	return res
}

func (a *App) arbreNodes(arbreID int) ([]arbre.Node, error) {
	persones, err := a.DB.ListPersonesByArbre(arbreID)
	if err != nil {
		return nil, err
	}
	return arbre.FromPersones(persones, a.oficisMap()), nil
}

// ArbreGeneracionsHandler retorna les generacions de l'arbre: [][]node.
func (a *App) ArbreGeneracionsHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	_, t, ok := a.arbreRequest(w, r, ps)
	if !ok {
		return
	}
	nodes, err := a.arbreNodes(t.ID)
	if err != nil {
		Errorf("error llistant persones de l'arbre %d: %v", t.ID, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	gens := arbre.OrganizeByGeneration(nodes)
	if gens == nil {
		gens = [][]arbre.Node{}
	}
	writeJSON(w, gens)
}

// ArbreLayoutHandler retorna caixes i línies de la vista jeràrquica.
func (a *App) ArbreLayoutHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	_, t, ok := a.arbreRequest(w, r, ps)
	if !ok {
		return
	}
	nodes, err := a.arbreNodes(t.ID)
	if err != nil {
		Errorf("error llistant persones de l'arbre %d: %v", t.ID, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	layout := arbre.LayoutHierarchical(arbre.BuildForest(nodes), arbre.DefaultSpacing())
	if layout.Boxes == nil {
		layout.Boxes = []arbre.Box{}
	}
	if layout.Lines == nil {
		layout.Lines = []arbre.Line{}
	}
	writeJSON(w, layout)
}

// linkerStatus tradueix l'error del servei d'enllaç a un codi HTTP.
func linkerStatus(err error) int {
	switch {
	case errors.Is(err, enllac.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, enllac.ErrSameTree), errors.Is(err, enllac.ErrCycle), errors.Is(err, enllac.ErrConnectionPerson):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ArbreEnllacHandler copia les persones de l'arbre dins l'arbre destí.
func (a *App) ArbreEnllacHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, t, ok := a.arbreRequest(w, r, ps)
	if !ok {
		return
	}
	var req enllacRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	if _, ok := a.ownedArbre(w, userID, req.DestiID); !ok {
		return
	}
	if err := a.Linker.CopyTreeData(r.Context(), t.ID, req.DestiID, req.ConnectionPersonaID); err != nil {
		writeError(w, linkerStatus(err))
		return
	}
	writeJSON(w, apiResponse{Ok: true})
}

// ArbreSincronitzaHandler refresca els clons; sense desti_id fa servir l'arbre pare.
func (a *App) ArbreSincronitzaHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, t, ok := a.arbreRequest(w, r, ps)
	if !ok {
		return
	}
	var req sincronitzaRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	desti := req.DestiID
	if desti == 0 {
		if !t.ParentArbreID.Valid {
			writeError(w, http.StatusBadRequest)
			return
		}
		desti = int(t.ParentArbreID.Int64)
	}
	if _, ok := a.ownedArbre(w, userID, desti); !ok {
		return
	}
	if err := a.Linker.SyncUpdates(r.Context(), t.ID, desti); err != nil {
		writeError(w, linkerStatus(err))
		return
	}
	writeJSON(w, apiResponse{Ok: true})
}

func (a *App) ArbreDesenllacHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	_, t, ok := a.arbreRequest(w, r, ps)
	if !ok {
		return
	}
	if err := a.Linker.UnlinkTree(r.Context(), t.ID); err != nil {
		writeError(w, linkerStatus(err))
		return
	}
	writeJSON(w, apiResponse{Ok: true})
}

// ArbreCanvisHandler llista el registre d'operacions d'enllaç de l'arbre.
func (a *App) ArbreCanvisHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	_, t, ok := a.arbreRequest(w, r, ps)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	canvis, err := a.DB.ListCanvisByArbre(t.ID, limit)
	if err != nil {
		Errorf("error llistant canvis de l'arbre %d: %v", t.ID, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	res := make([]canviResponse, 0, len(canvis))
	for _, c := range canvis {
		cr := canviResponse{
			OpID:     c.OpID,
			ArbreID:  c.ArbreID,
			DestiID:  int(c.DestiArbreID.Int64),
			Accio:    c.Accio,
			Resultat: c.Resultat,
			Detall:   c.Detall,
		}
		if c.CreatedAt.Valid {
			cr.Data = c.CreatedAt.Time.Format("2006-01-02 15:04:05")
		}
		res = append(res, cr)
	}
	writeJSON(w, res)
}

// CombinatHandler agrega les persones dels arbres d'un arbre combinat. Només
// hi surten arbres de l'usuari.
func (a *App) CombinatHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized)
		return
	}
	id, ok := paramID(ps, "id")
	if !ok {
		writeError(w, http.StatusBadRequest)
		return
	}
	c, ok := a.ownedCombinat(w, userID, id)
	if !ok {
		return
	}
	items, err := a.DB.ListArbreCombinatItems(c.ID)
	if err != nil {
		Errorf("error llistant items del combinat %d: %v", c.ID, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	oficis := a.oficisMap()
	res := combinatResponse{ID: c.ID, Nom: c.Nom, Arbres: make([]combinatArbre, 0, len(items))}
	for _, it := range items {
		t, err := a.DB.GetArbre(it.ArbreID)
		if err != nil {
			Errorf("combinat %d: arbre %d: %v", c.ID, it.ArbreID, err)
			continue
		}
		if t.OwnerUserID != userID {
			Debugf("combinat %d: arbre %d d'un altre usuari, s'omet", c.ID, t.ID)
			continue
		}
		persones, err := a.DB.ListPersonesByArbre(t.ID)
		if err != nil {
			Errorf("combinat %d: persones de l'arbre %d: %v", c.ID, t.ID, err)
			writeError(w, http.StatusInternalServerError)
			return
		}
		nodes := arbre.FromPersones(persones, oficis)
		if nodes == nil {
			nodes = []arbre.Node{}
		}
		res.Arbres = append(res.Arbres, combinatArbre{
			ArbreID:             t.ID,
			Nom:                 t.Nom,
			ConnectionPersonaID: int(it.ConnectionPersonaID.Int64),
			Persones:            nodes,
		})
	}
	writeJSON(w, res)
}

// PersonaFotoHandler valida la imatge pujada, en desa la miniatura i
// l'assigna a la persona.
func (a *App) PersonaFotoHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized)
		return
	}
	id, ok := paramID(ps, "id")
	if !ok {
		writeError(w, http.StatusBadRequest)
		return
	}
	p, err := a.DB.GetPersona(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound)
		} else {
			Errorf("error carregant persona %d: %v", id, err)
			writeError(w, http.StatusInternalServerError)
		}
		return
	}
	if _, ok := a.ownedArbre(w, userID, p.ArbreID); !ok {
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxFotoBytes+1))
	if err != nil || len(data) == 0 || len(data) > maxFotoBytes {
		writeError(w, http.StatusBadRequest)
		return
	}
	info, err := foto.Validate(bytes.NewReader(data))
	if err != nil {
		Debugf("foto rebutjada per a la persona %d: %v", id, err)
		writeError(w, http.StatusUnprocessableEntity)
		return
	}
	thumb, err := foto.Thumbnail(bytes.NewReader(data), thumbnailSide)
	if err != nil {
		Errorf("error generant miniatura de la persona %d: %v", id, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	if err := os.MkdirAll(a.FotosDir, 0o755); err != nil {
		Errorf("error creant %s: %v", a.FotosDir, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	name := fmt.Sprintf("persona-%d.png", p.ID)
	if err := os.WriteFile(filepath.Join(a.FotosDir, name), thumb, 0o644); err != nil {
		Errorf("error desant foto %s: %v", name, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	p.Foto = name
	if err := a.DB.UpdatePersona(p); err != nil {
		Errorf("error actualitzant foto de la persona %d: %v", id, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	Infof("foto %s (%s %dx%d) assignada a la persona %d", name, info.Format, info.Width, info.Height, p.ID)
	writeJSON(w, map[string]interface{}{"ok": true, "foto": name})
}
