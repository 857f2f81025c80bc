package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcmoiagese/ArbresFamiliars/core"
	"github.com/marcmoiagese/ArbresFamiliars/core/arbre"
	"github.com/marcmoiagese/ArbresFamiliars/db"
)

var (
	connexioID    int
	recreaDB      bool
	adminUsuari   string
	adminEmail    string
	adminPassword string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Arrenca l'API HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	enllacaCmd = &cobra.Command{
		Use:   "enllaca <origen> <desti>",
		Short: "Copia les persones de l'arbre origen dins l'arbre destí",
		Args:  cobra.ExactArgs(2),
		RunE:  runEnllaca,
	}

	sincronitzaCmd = &cobra.Command{
		Use:   "sincronitza <origen> <desti>",
		Short: "Refresca els clons de l'origen dins el destí",
		Args:  cobra.ExactArgs(2),
		RunE:  runSincronitza,
	}

	desenllacaCmd = &cobra.Command{
		Use:   "desenllaca <arbre>",
		Short: "Esborra els clons de l'arbre i el torna independent",
		Args:  cobra.ExactArgs(1),
		RunE:  runDesenllaca,
	}

	generacionsCmd = &cobra.Command{
		Use:   "generacions <arbre>",
		Short: "Mostra les generacions d'un arbre en JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runGeneracions,
	}

	usuariCmd = &cobra.Command{
		Use:   "usuari",
		Short: "Gestiona els permisos dels usuaris",
	}

	usuariAdminCmd = &cobra.Command{
		Use:   "admin <id> <true|false>",
		Short: "Dona o treu permisos d'administrador",
		Args:  cobra.ExactArgs(2),
		RunE:  runUsuariFlag("administrador", func(d db.DB, id int, v bool) error { return d.SetUserAdmin(id, v) }),
	}

	usuariActiuCmd = &cobra.Command{
		Use:   "actiu <id> <true|false>",
		Short: "Activa o desactiva un usuari",
		Args:  cobra.ExactArgs(2),
		RunE:  runUsuariFlag("actiu", func(d db.DB, id int, v bool) error { return d.SetUserActive(id, v) }),
	}

	initdbCmd = &cobra.Command{
		Use:   "initdb",
		Short: "Crea l'esquema de la BD i, opcionalment, un usuari administrador",
		Args:  cobra.NoArgs,
		RunE:  runInitDB,
	}
)

func init() {
	enllacaCmd.Flags().IntVar(&connexioID, "connexio", 0, "persona de connexió dins l'arbre destí")
	initdbCmd.Flags().BoolVar(&recreaDB, "recrea", false, "esborra i torna a crear totes les taules")
	initdbCmd.Flags().StringVar(&adminUsuari, "admin-usuari", "", "nom de l'usuari administrador")
	initdbCmd.Flags().StringVar(&adminEmail, "admin-email", "", "correu de l'usuari administrador")
	initdbCmd.Flags().StringVar(&adminPassword, "admin-password", "", "contrasenya de l'usuari administrador")

	usuariCmd.AddCommand(usuariAdminCmd, usuariActiuCmd)
	rootCmd.AddCommand(serveCmd, enllacaCmd, sincronitzaCmd, desenllacaCmd, generacionsCmd, initdbCmd, usuariCmd)
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("id d'arbre invàlid: %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, ac, err := bootstrap()
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              ac.ListenAddr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		core.Infof("Servidor escoltant a %s", ac.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	core.Infof("Aturant el servidor...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runEnllaca(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	app, _, err := bootstrap()
	if err != nil {
		return err
	}
	defer app.Close()

	var connexio *int
	if connexioID > 0 {
		connexio = &connexioID
	}
	if err := app.Linker.CopyTreeData(cmd.Context(), ids[0], ids[1], connexio); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Arbre %d enllaçat a %d\n", ids[0], ids[1])
	return nil
}

func runSincronitza(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	app, _, err := bootstrap()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Linker.SyncUpdates(cmd.Context(), ids[0], ids[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Arbre %d sincronitzat amb %d\n", ids[0], ids[1])
	return nil
}

func runDesenllaca(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	app, _, err := bootstrap()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Linker.UnlinkTree(cmd.Context(), ids[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Arbre %d desenllaçat\n", ids[0])
	return nil
}

func runGeneracions(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	app, _, err := bootstrap()
	if err != nil {
		return err
	}
	defer app.Close()

	persones, err := app.DB.ListPersonesByArbre(ids[0])
	if err != nil {
		return err
	}
	oficis := map[int]string{}
	if llista, err := app.DB.ListOficis(); err == nil {
		for _, o := range llista {
			oficis[o.ID] = o.Nom
		}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	for gen := range arbre.Generations(arbre.FromPersones(persones, oficis)) {
		if err := enc.Encode(gen); err != nil {
			return err
		}
	}
	return nil
}

func runInitDB(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if recreaDB {
		cfg["RECREADB"] = "true"
	}
	database, err := db.NewDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if adminUsuari == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Esquema preparat")
		return nil
	}
	if adminPassword == "" {
		return fmt.Errorf("cal --admin-password per crear l'usuari %s", adminUsuari)
	}
	u := &db.User{Usuari: adminUsuari, Email: adminEmail, IsAdmin: true, Active: true}
	id, err := database.InsertUser(u, adminPassword)
	if err != nil {
		return fmt.Errorf("no s'ha pogut crear l'administrador: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Esquema preparat; administrador %s creat amb id %d\n", u.Usuari, id)
	return nil
}

// runUsuariFlag comprova que l'usuari existeix i li canvia el camp booleà.
func runUsuariFlag(camp string, set func(db.DB, int, bool) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return fmt.Errorf("id d'usuari invàlid: %q", args[0])
		}
		val, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("valor invàlid %q: cal true o false", args[1])
		}
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := db.NewDB(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		u, err := database.GetUserByID(id)
		if err != nil {
			return fmt.Errorf("usuari %d: %w", id, err)
		}
		if err := set(database, id, val); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Usuari %s: %s=%t\n", u.Usuari, camp, val)
		return nil
	}
}
