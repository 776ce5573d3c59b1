package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type Log struct {
	Level string
	JSON  bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type DB struct {
	// Driver selects the dialector: sqlite (default, embedded), mysql
	// or postgres.
	Driver             string
	DSN                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Cache struct {
	// Backend selects where cached entries live: "memory" (default,
	// in-process) or "redis".
	Backend       string `mapstructure:"backend"`
	DefaultTTLSec int    `mapstructure:"default_ttl_sec"`
	Redis         Redis  `mapstructure:"redis"`
}

type Ready struct {
	TimeoutSec int
}

type Config struct {
	App   App
	Log   Log
	JWT   JWT
	DB    DB
	Cache Cache `mapstructure:"cache"`
	Ready Ready
}

func Load(path string) *Config {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("read config: %v", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	return &c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "./data/records.db")
	v.SetDefault("db.maxopenconns", 1)
	v.SetDefault("db.maxidleconns", 1)
	v.SetDefault("db.loglevel", "warn")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.default_ttl_sec", 60)
	v.SetDefault("ready.timeoutsec", 10)
}
