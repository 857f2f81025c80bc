package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcmoiagese/ArbresFamiliars/cnf"
	"github.com/marcmoiagese/ArbresFamiliars/core"
	"github.com/marcmoiagese/ArbresFamiliars/core/enllac"
	"github.com/marcmoiagese/ArbresFamiliars/db"
)

var (
	configPath string
	envPath    string

	rootCmd = &cobra.Command{
		Use:           "arbres",
		Short:         "Arbres familiars: enllaç, sincronització i vista jeràrquica",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "cnf/config.cfg", "fitxer de configuració (clau=valor o .yaml)")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "fitxer .env que sobreescriu la configuració")
}

// loadConfig llegeix la configuració, hi aplica el .env i la deixa a cnf.Config.
func loadConfig() (map[string]string, cnf.AppConfig, error) {
	cfg, err := cnf.LoadConfig(configPath)
	if err != nil {
		return nil, cnf.AppConfig{}, err
	}
	if err := cnf.ApplyEnvFile(cfg, envPath); err != nil {
		return nil, cnf.AppConfig{}, err
	}
	cnf.Config = cfg
	ac, err := cnf.ParseConfig(cfg)
	if err != nil {
		return nil, cnf.AppConfig{}, err
	}
	core.SetLogLevel(ac.LogLevel)
	return cfg, ac, nil
}

// bootstrap obre la BD i munta el servei d'enllaç amb el bloqueig i el
// publicador configurats.
func bootstrap() (*core.App, cnf.AppConfig, error) {
	cfg, ac, err := loadConfig()
	if err != nil {
		return nil, ac, err
	}
	database, err := db.NewDB(cfg)
	if err != nil {
		return nil, ac, fmt.Errorf("no s'ha pogut obrir la BD: %w", err)
	}

	var locker enllac.Locker = enllac.NewLocalLocker()
	var redisLocker *enllac.RedisLocker
	if ac.LockBackend == "redis" {
		redisLocker, err = enllac.NewRedisLocker(ac.RedisURL, ac.LockTTL)
		if err != nil {
			database.Close()
			return nil, ac, err
		}
		locker = redisLocker
	}

	var publisher enllac.Publisher = enllac.LogPublisher{}
	var amqpPublisher *enllac.AMQPPublisher
	if ac.AMQPURL != "" {
		amqpPublisher, err = enllac.NewAMQPPublisher(ac.AMQPURL, ac.AMQPExchange, ac.AMQPRoutingKey)
		if err != nil {
			if redisLocker != nil {
				redisLocker.Close()
			}
			database.Close()
			return nil, ac, err
		}
		publisher = amqpPublisher
	}

	app := core.NewApp(cfg, database, enllac.NewService(database, locker, publisher))
	if redisLocker != nil {
		app.OnClose(redisLocker)
	}
	if amqpPublisher != nil {
		app.OnClose(amqpPublisher)
	}
	core.Infof("Configuració carregada: motor=%s bloqueig=%s entorn=%s", ac.DBEngine, ac.LockBackend, ac.Env)
	return app, ac, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
