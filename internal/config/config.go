package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "EXPENSES_"

type Application struct {
	Host      string    `koanf:"host"`
	Port      int       `koanf:"port"`
	Frontend  Frontend  `koanf:"frontend"`
	Database  Database  `koanf:"db"`
	Auth      Auth      `koanf:"auth"`
	LLM       LLM       `koanf:"llm"`
	Insights  Insights  `koanf:"insights"`
	RateLimit RateLimit `koanf:"ratelimit"`
}

type Frontend struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
}

type Database struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Pass     string `koanf:"pass"`
	Name     string `koanf:"name"`
	Schema   string `koanf:"schema"`
	SSLMode  string `koanf:"sslmode"`
	MaxConns int32  `koanf:"maxconns"`
	MinConns int32  `koanf:"minconns"`
	// Migrations is the migrations directory. Empty searches upwards from the working directory.
	Migrations string `koanf:"migrations"`
}

type AuthMode string

const (
	// AuthModeJWT verifies identity provider tokens.
	AuthModeJWT AuthMode = "jwt"
	// AuthModeHeader trusts the X-User-Id header. Development only.
	AuthModeHeader AuthMode = "header"
)

type Auth struct {
	Mode          AuthMode `koanf:"mode"`
	Issuer        string   `koanf:"issuer"`
	Audience      string   `koanf:"audience"`
	HMACSecret    string   `koanf:"hmacsecret"`
	PublicKeyFile string   `koanf:"publickeyfile"`
	Provider      string   `koanf:"provider"`
	ClientId      string   `koanf:"clientid"`
	ClientSecret  string   `koanf:"clientsecret"`
	AuthURL       string   `koanf:"authurl"`
	TokenURL      string   `koanf:"tokenurl"`
	Scopes        []string `koanf:"scopes"`
	CookieSecure  bool     `koanf:"cookiesecure"`
}

type LLM struct {
	BaseURL string        `koanf:"baseurl"`
	APIKey  string        `koanf:"apikey"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
	Referer string        `koanf:"referer"`
	Title   string        `koanf:"title"`
}

type Insights struct {
	CacheTTL  time.Duration `koanf:"cachettl"`
	CacheSize int           `koanf:"cachesize"`
}

type RateLimit struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

func Defaults() Application {
	return Application{
		Host: "http://localhost:3000",
		Port: 8181,
		Frontend: Frontend{
			Enabled: false,
			Dir:     "frontend",
		},
		Database: Database{
			Host:     "localhost",
			Port:     5432,
			User:     "expenses",
			Pass:     "",
			Name:     "expenses",
			Schema:   "expenses",
			SSLMode:  "disable",
			MaxConns: 25,
			MinConns: 2,
		},
		Auth: Auth{
			Mode:         AuthModeJWT,
			Scopes:       []string{"openid", "email", "profile"},
			CookieSecure: true,
		},
		LLM: LLM{
			BaseURL: "https://openrouter.ai/api/v1",
			Model:   "meta-llama/llama-3.2-3b-instruct:free",
			Timeout: 20 * time.Second,
			Referer: "http://localhost:3000",
			Title:   "ExpenseTracker AI",
		},
		Insights: Insights{
			CacheTTL:  10 * time.Minute,
			CacheSize: 1024,
		},
		RateLimit: RateLimit{
			RPS:   0.5,
			Burst: 5,
		},
	}
}

// Load reads configuration from struct defaults, then the optional YAML file at path, then
// EXPENSES_* environment variables. A .env file in the working directory is applied to the
// environment first.
func Load(path string) (Application, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("unable to load .env file: %v", err)
		}
	} else {
		log.Info("Loaded environment from .env file")
	}

	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			if k == "auth.scopes" {
				return k, strings.Fields(strings.ReplaceAll(v, ",", " "))
			}
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
