package core

import (
	"io"

	"github.com/go-playground/validator/v10"

	"github.com/marcmoiagese/ArbresFamiliars/core/enllac"
	"github.com/marcmoiagese/ArbresFamiliars/db"
)

// App encapsula dependències compartides per evitar reobrir recursos per petició.
type App struct {
	Config   map[string]string
	DB       db.DB
	Linker   *enllac.Service
	FotosDir string
	validate *validator.Validate
	closers  []io.Closer
}

func NewApp(cfg map[string]string, database db.DB, linker *enllac.Service) *App {
	if linker == nil {
		linker = enllac.NewService(database, nil, nil)
	}
	dir := cfg["FOTOS_DIR"]
	if dir == "" {
		dir = "./fotos"
	}
	return &App{
		Config:   cfg,
		DB:       database,
		Linker:   linker,
		FotosDir: dir,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// OnClose registra recursos (publicador AMQP, client redis...) que es tanquen amb l'App.
func (a *App) OnClose(c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, c)
	}
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			Errorf("error tancant recurs: %v", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
