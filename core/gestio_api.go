package core

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/marcmoiagese/ArbresFamiliars/db"
)

type creatResponse struct {
	Ok bool `json:"ok"`
	ID int  `json:"id"`
}

type arbreResponse struct {
	ID                  int    `json:"id"`
	Nom                 string `json:"nom"`
	ParentArbreID       int    `json:"parent_arbre_id,omitempty"`
	ConnectionPersonaID int    `json:"connection_persona_id,omitempty"`
	DataIndependent     bool   `json:"data_independent"`
}

type nomRequest struct {
	Nom string `json:"nom" validate:"required,max=255"`
}

type paisRequest struct {
	Nom  string `json:"nom" validate:"required,max=255"`
	Codi string `json:"codi" validate:"omitempty,max=8"`
}

type personaRequest struct {
	Nom           string `json:"nom" validate:"required,max=255"`
	NomPare       string `json:"nom_pare" validate:"max=255"`
	NomAvi        string `json:"nom_avi" validate:"max=255"`
	Cognom        string `json:"cognom" validate:"max=255"`
	Sexe          string `json:"sexe" validate:"omitempty,oneof=M F"`
	DataNaixement string `json:"data_naixement"`
	DataDefuncio  string `json:"data_defuncio"`
	Ciutat        string `json:"ciutat"`
	Notes         string `json:"notes"`
	Motiu         string `json:"motiu"`
	OficiID       int    `json:"ofici_id" validate:"gte=0"`
	PaisID        int    `json:"pais_id" validate:"gte=0"`
	PareID        int    `json:"pare_id" validate:"gte=0"`
	MareID        int    `json:"mare_id" validate:"gte=0"`
}

type combinatItemRequest struct {
	ArbreID             int  `json:"arbre_id" validate:"required,gt=0"`
	ConnectionPersonaID *int `json:"connection_persona_id" validate:"omitempty,gt=0"`
}

type autenticaRequest struct {
	Usuari   string `json:"usuari" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func toArbreResponse(t db.Arbre) arbreResponse {
	return arbreResponse{
		ID:                  t.ID,
		Nom:                 t.Nom,
		ParentArbreID:       int(t.ParentArbreID.Int64),
		ConnectionPersonaID: int(t.ConnectionPersonaID.Int64),
		DataIndependent:     t.DataIndependent,
	}
}

// personaDeLArbre comprova que la persona existeix i és de l'arbre indicat.
func (a *App) personaDeLArbre(personaID, arbreID int) (bool, error) {
	p, err := a.DB.GetPersona(personaID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.ArbreID == arbreID, nil
}

// ArbresHandler llista els arbres de l'usuari.
func (a *App) ArbresHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized)
		return
	}
	arbres, err := a.DB.ListArbresByOwner(userID)
	if err != nil {
		Errorf("error llistant arbres de l'usuari %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	res := make([]arbreResponse, 0, len(arbres))
	for _, t := range arbres {
		res = append(res, toArbreResponse(t))
	}
	writeJSON(w, res)
}

func (a *App) CreaArbreHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized)
		return
	}
	var req nomRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	id, err := a.DB.CreateArbre(&db.Arbre{OwnerUserID: userID, Nom: req.Nom})
	if err != nil {
		Errorf("error creant arbre per a l'usuari %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusCreated, creatResponse{Ok: true, ID: id})
}

func (a *App) ReanomenaArbreHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	_, t, ok := a.arbreRequest(w, r, ps)
	if !ok {
		return
	}
	var req nomRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	if err := a.DB.RenameArbre(t.ID, req.Nom); err != nil {
		Errorf("error reanomenant arbre %d: %v", t.ID, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	writeJSON(w, apiResponse{Ok: true})
}

// EsborraArbreHandler només esborra arbres buits; si no ho és respon 409.
func (a *App) EsborraArbreHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, t, ok := a.arbreRequest(w, r, ps)
	if !ok {
		return
	}
	switch err := a.DB.DeleteArbre(userID, t.ID); {
	case err == nil:
		writeJSON(w, apiResponse{Ok: true})
	case errors.Is(err, db.ErrTreeNotEmpty):
		writeError(w, http.StatusConflict)
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound)
	default:
		Errorf("error esborrant arbre %d: %v", t.ID, err)
		writeError(w, http.StatusInternalServerError)
	}
}

// ArbreFillsHandler llista els arbres que tenen aquest arbre com a pare d'enllaç.
func (a *App) ArbreFillsHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, t, ok := a.arbreRequest(w, r, ps)
	if !ok {
		return
	}
	fills, err := a.DB.ListArbresByParent(t.ID)
	if err != nil {
		Errorf("error llistant fills de l'arbre %d: %v", t.ID, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	res := make([]arbreResponse, 0, len(fills))
	for _, f := range fills {
		if f.OwnerUserID == userID {
			res = append(res, toArbreResponse(f))
		}
	}
	writeJSON(w, res)
}

// CreaPersonaHandler afegeix una persona original a l'arbre. Pare i mare han
// de ser del mateix arbre.
func (a *App) CreaPersonaHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	_, t, ok := a.arbreRequest(w, r, ps)
	if !ok {
		return
	}
	var req personaRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	for _, pid := range []int{req.PareID, req.MareID} {
		if pid == 0 {
			continue
		}
		mateix, err := a.personaDeLArbre(pid, t.ID)
		if err != nil {
			Errorf("error comprovant la persona %d: %v", pid, err)
			writeError(w, http.StatusInternalServerError)
			return
		}
		if !mateix {
			writeError(w, http.StatusUnprocessableEntity)
			return
		}
	}
	p := &db.Persona{
		ArbreID:       t.ID,
		Nom:           req.Nom,
		NomPare:       req.NomPare,
		NomAvi:        req.NomAvi,
		Cognom:        req.Cognom,
		Sexe:          req.Sexe,
		DataNaixement: nullString(req.DataNaixement),
		DataDefuncio:  nullString(req.DataDefuncio),
		Ciutat:        req.Ciutat,
		Notes:         req.Notes,
		Motiu:         req.Motiu,
		OficiID:       db.NullInt(req.OficiID),
		PaisID:        db.NullInt(req.PaisID),
		PareID:        db.NullInt(req.PareID),
		MareID:        db.NullInt(req.MareID),
		IsOriginal:    true,
	}
	id, err := a.DB.CreatePersona(p)
	if err != nil {
		Errorf("error creant persona a l'arbre %d: %v", t.ID, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusCreated, creatResponse{Ok: true, ID: id})
}

// EsborraPersonaHandler respon 409 si la persona encara té fills.
func (a *App) EsborraPersonaHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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
	switch err := a.DB.DeletePersona(p.ID); {
	case err == nil:
		writeJSON(w, apiResponse{Ok: true})
	case errors.Is(err, db.ErrHasChildren):
		writeError(w, http.StatusConflict)
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound)
	default:
		Errorf("error esborrant persona %d: %v", p.ID, err)
		writeError(w, http.StatusInternalServerError)
	}
}

func (a *App) CreaCombinatHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized)
		return
	}
	var req nomRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	id, err := a.DB.CreateArbreCombinat(&db.ArbreCombinat{OwnerUserID: userID, Nom: req.Nom})
	if err != nil {
		Errorf("error creant combinat per a l'usuari %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusCreated, creatResponse{Ok: true, ID: id})
}

// AfegeixCombinatItemHandler afegeix un arbre propi al combinat; la persona
// de connexió, si n'hi ha, ha de ser d'aquell arbre.
func (a *App) AfegeixCombinatItemHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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
	var req combinatItemRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	if _, ok := a.ownedArbre(w, userID, req.ArbreID); !ok {
		return
	}
	item := &db.ArbreCombinatItem{CombinatID: c.ID, ArbreID: req.ArbreID}
	if req.ConnectionPersonaID != nil {
		mateix, err := a.personaDeLArbre(*req.ConnectionPersonaID, req.ArbreID)
		if err != nil {
			Errorf("error comprovant la persona %d: %v", *req.ConnectionPersonaID, err)
			writeError(w, http.StatusInternalServerError)
			return
		}
		if !mateix {
			writeError(w, http.StatusUnprocessableEntity)
			return
		}
		item.ConnectionPersonaID = db.NullInt(*req.ConnectionPersonaID)
	}
	itemID, err := a.DB.AddArbreCombinatItem(item)
	if err != nil {
		Errorf("error afegint l'arbre %d al combinat %d: %v", req.ArbreID, c.ID, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusCreated, creatResponse{Ok: true, ID: itemID})
}

// ownedCombinat carrega el combinat si pertany a l'usuari; si no, escriu l'error.
func (a *App) ownedCombinat(w http.ResponseWriter, userID, id int) (*db.ArbreCombinat, bool) {
	c, err := a.DB.GetArbreCombinat(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound)
		} else {
			Errorf("error carregant combinat %d: %v", id, err)
			writeError(w, http.StatusInternalServerError)
		}
		return nil, false
	}
	if c.OwnerUserID != userID {
		writeError(w, http.StatusNotFound)
		return nil, false
	}
	return c, true
}

// requireAdmin respon 401/403 si l'usuari de la petició no és un administrador actiu.
func (a *App) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized)
		return false
	}
	u, err := a.DB.GetUserByID(userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			Errorf("error carregant usuari %d: %v", userID, err)
		}
		writeError(w, http.StatusForbidden)
		return false
	}
	if !u.IsAdmin || !u.Active {
		writeError(w, http.StatusForbidden)
		return false
	}
	return true
}

func (a *App) CreaOficiHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !a.requireAdmin(w, r) {
		return
	}
	var req nomRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	id, err := a.DB.CreateOfici(req.Nom)
	if err != nil {
		Errorf("error creant ofici %q: %v", req.Nom, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusCreated, creatResponse{Ok: true, ID: id})
}

func (a *App) CreaPaisHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !a.requireAdmin(w, r) {
		return
	}
	var req paisRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	id, err := a.DB.CreatePais(req.Nom, req.Codi)
	if err != nil {
		Errorf("error creant país %q: %v", req.Nom, err)
		writeError(w, http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusCreated, creatResponse{Ok: true, ID: id})
}

// AutenticaHandler comprova usuari i contrasenya i retorna l'id que
// l'autenticador ha de posar a X-User-ID.
func (a *App) AutenticaHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req autenticaRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	u, err := a.DB.AuthenticateUser(req.Usuari, req.Password)
	if err != nil {
		Debugf("autenticació fallida per a %q: %v", req.Usuari, err)
		writeError(w, http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]interface{}{"ok": true, "user_id": u.ID, "admin": u.IsAdmin})
}
