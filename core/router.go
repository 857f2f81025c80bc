package core

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcmoiagese/ArbresFamiliars/core/cerca"
	"github.com/marcmoiagese/ArbresFamiliars/core/mon"
)

func (a *App) Router() *httprouter.Router {
	router := httprouter.New()

	router.POST("/api/autentica", a.AutenticaHandler)

	router.GET("/api/arbres", a.ArbresHandler)
	router.POST("/api/arbres", a.CreaArbreHandler)
	router.PUT("/api/arbres/:id", a.ReanomenaArbreHandler)
	router.DELETE("/api/arbres/:id", a.EsborraArbreHandler)
	router.GET("/api/arbres/:id/fills", a.ArbreFillsHandler)
	router.POST("/api/arbres/:id/persones", a.CreaPersonaHandler)
	router.DELETE("/api/persones/:id", a.EsborraPersonaHandler)
	router.GET("/api/arbres/:id/generacions", a.ArbreGeneracionsHandler)
	router.GET("/api/arbres/:id/layout", a.ArbreLayoutHandler)
	router.GET("/api/arbres/:id/canvis", a.ArbreCanvisHandler)
	router.POST("/api/arbres/:id/enllac", a.ArbreEnllacHandler)
	router.POST("/api/arbres/:id/sincronitza", a.ArbreSincronitzaHandler)
	router.POST("/api/arbres/:id/desenllac", a.ArbreDesenllacHandler)
	router.POST("/api/combinats", a.CreaCombinatHandler)
	router.GET("/api/combinats/:id", a.CombinatHandler)
	router.POST("/api/combinats/:id/items", a.AfegeixCombinatItemHandler)
	router.POST("/api/persones/:id/foto", a.PersonaFotoHandler)
	router.GET("/api/cerca", cerca.CercaHandler(a.DB, currentUserID, writeError))
	router.GET("/api/paisos", mon.PaisosHandler(a.DB, writeError))
	router.GET("/api/oficis", mon.OficisHandler(a.DB, writeError))
	router.POST("/api/paisos", a.CreaPaisHandler)
	router.POST("/api/oficis", a.CreaOficiHandler)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		Errorf("pànic a %s %s: %v", r.Method, r.URL.Path, v)
		writeError(w, http.StatusInternalServerError)
	}
	return router
}
