package cnf

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config – Variable pública amb les opcions de configuració
var Config map[string]string

// AppConfig – Configuració tipada per facilitar l'ús
type AppConfig struct {
	DBEngine       string
	DBPath         string
	RecreaDB       bool
	LogLevel       string
	Env            string
	DBHost         string
	DBUser         string
	DBPass         string
	DBPort         string
	DBName         string
	ListenAddr     string
	LockBackend    string
	LockTTL        time.Duration
	RedisURL       string
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
	FotosDir       string
}

// LoadConfig carrega el fitxer en format clau=valor, ignorant línies buides o comentaris.
// Si el camí acaba en .yaml/.yml es llegeix amb LoadYAML.
func LoadConfig(path string) (map[string]string, error) {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return LoadYAML(path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("no s'ha pogut obrir el fitxer de configuració: %w", err)
	}
	defer file.Close()

	config := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			if value != "" {
				commentIdx := -1
				for _, marker := range []string{" #", "\t#", " ;", "\t;"} {
					if idx := strings.Index(value, marker); idx >= 0 && (commentIdx == -1 || idx < commentIdx) {
						commentIdx = idx
					}
				}
				if commentIdx >= 0 {
					value = strings.TrimSpace(value[:commentIdx])
				}
			}
			config[key] = value
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error llegint config: %w", err)
	}

	Config = config
	return config, nil
}

// ApplyEnvFile sobreescriu claus de cfg amb les d'un fitxer .env. Si el fitxer
// no existeix no fa res.
func ApplyEnvFile(cfg map[string]string, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("error llegint %s: %w", path, err)
	}
	for k, v := range env {
		cfg[k] = strings.TrimSpace(v)
	}
	return nil
}

// ParseConfig converteix map[string]string en AppConfig amb valors per defecte.
func ParseConfig(cfg map[string]string) (AppConfig, error) {
	ac := AppConfig{
		DBEngine:       strings.TrimSpace(cfg["DB_ENGINE"]),
		DBPath:         cfg["DB_PATH"],
		LogLevel:       strings.TrimSpace(cfg["LOG_LEVEL"]),
		Env:            strings.TrimSpace(cfg["ENVIRONMENT"]),
		DBHost:         cfg["DB_HOST"],
		DBUser:         cfg["DB_USR"],
		DBPass:         cfg["DB_PASS"],
		DBPort:         cfg["DB_PORT"],
		DBName:         cfg["DB_NAME"],
		ListenAddr:     strings.TrimSpace(cfg["LISTEN_ADDR"]),
		LockBackend:    strings.ToLower(strings.TrimSpace(cfg["LOCK_BACKEND"])),
		RedisURL:       strings.TrimSpace(cfg["REDIS_URL"]),
		AMQPURL:        strings.TrimSpace(cfg["AMQP_URL"]),
		AMQPExchange:   strings.TrimSpace(cfg["AMQP_EXCHANGE"]),
		AMQPRoutingKey: strings.TrimSpace(cfg["AMQP_ROUTING_KEY"]),
		FotosDir:       strings.TrimSpace(cfg["FOTOS_DIR"]),
	}

	if ac.DBEngine == "" {
		ac.DBEngine = "sqlite"
	}
	if ac.DBPath == "" {
		ac.DBPath = "./database.db"
	}
	if ac.LogLevel == "" {
		ac.LogLevel = "info"
	}
	if ac.Env == "" {
		ac.Env = os.Getenv("ENVIRONMENT")
		if ac.Env == "" {
			ac.Env = "development"
		}
	}
	if ac.ListenAddr == "" {
		ac.ListenAddr = ":8080"
	}

	if v, ok := cfg["RECREADB"]; ok {
		ac.RecreaDB, _ = strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
	}

	switch ac.LockBackend {
	case "":
		ac.LockBackend = "local"
	case "local":
	case "redis":
		if ac.RedisURL == "" {
			return ac, fmt.Errorf("LOCK_BACKEND=redis necessita REDIS_URL")
		}
	default:
		return ac, fmt.Errorf("LOCK_BACKEND desconegut: %s", ac.LockBackend)
	}

	ac.LockTTL = 30 * time.Second
	if v := strings.TrimSpace(cfg["LOCK_TTL"]); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return ac, fmt.Errorf("LOCK_TTL invàlid: %q", v)
		}
		ac.LockTTL = d
	}

	if ac.AMQPExchange == "" {
		ac.AMQPExchange = "arbres"
	}
	if ac.AMQPRoutingKey == "" {
		ac.AMQPRoutingKey = "arbres.enllac"
	}
	if ac.FotosDir == "" {
		ac.FotosDir = "./fotos"
	}

	return ac, nil
}
