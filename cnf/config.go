package cnf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// YamlConfig és la forma YAML de la mateixa configuració clau=valor.
type YamlConfig struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	ListenAddr  string `yaml:"listen_addr"`
	FotosDir    string `yaml:"fotos_dir"`
	Database    struct {
		Engine   string `yaml:"engine"`
		Path     string `yaml:"path"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DBName   string `yaml:"dbname"`
		Recrea   bool   `yaml:"recrea"`
	} `yaml:"database"`
	Lock struct {
		Backend  string `yaml:"backend"`
		RedisURL string `yaml:"redis_url"`
		TTL      string `yaml:"ttl"`
	} `yaml:"lock"`
	AMQP struct {
		URL        string `yaml:"url"`
		Exchange   string `yaml:"exchange"`
		RoutingKey string `yaml:"routing_key"`
	} `yaml:"amqp"`
}

// LoadYAML llegeix un fitxer YAML i el converteix al mapa de claus de LoadConfig.
func LoadYAML(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error obrint fitxer de configuració: %w", err)
	}
	var yc YamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("error decodificant YAML: %w", err)
	}

	config := map[string]string{}
	set := func(key, val string) {
		if val = strings.TrimSpace(val); val != "" {
			config[key] = val
		}
	}
	set("ENVIRONMENT", yc.Environment)
	set("LOG_LEVEL", yc.LogLevel)
	set("LISTEN_ADDR", yc.ListenAddr)
	set("FOTOS_DIR", yc.FotosDir)
	set("DB_ENGINE", yc.Database.Engine)
	set("DB_PATH", yc.Database.Path)
	set("DB_HOST", yc.Database.Host)
	if yc.Database.Port > 0 {
		config["DB_PORT"] = strconv.Itoa(yc.Database.Port)
	}
	set("DB_USR", yc.Database.User)
	set("DB_PASS", yc.Database.Password)
	set("DB_NAME", yc.Database.DBName)
	if yc.Database.Recrea {
		config["RECREADB"] = "true"
	}
	set("LOCK_BACKEND", yc.Lock.Backend)
	set("REDIS_URL", yc.Lock.RedisURL)
	set("LOCK_TTL", yc.Lock.TTL)
	set("AMQP_URL", yc.AMQP.URL)
	set("AMQP_EXCHANGE", yc.AMQP.Exchange)
	set("AMQP_ROUTING_KEY", yc.AMQP.RoutingKey)

	Config = config
	return config, nil
}
