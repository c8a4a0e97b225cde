package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/m-tereshkin/ticket-triage-service/internal/router"
)

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	Postgres Postgres `yaml:"postgres"`
	Server   Server   `yaml:"server" env-required:"true"`
	GitHub   GitHub   `yaml:"github"`
	Jira     Jira     `yaml:"jira"`
	Routing  Routing  `yaml:"routing"`
}

type Postgres struct {
	Username        string        `env:"POSTGRES_USER" env-required:"true"`
	Password        string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	Host            string        `yaml:"host" env-required:"true"`
	Port            string        `env:"POSTGRES_PORT" env-required:"true"`
	Database        string        `env:"POSTGRES_DB" env-required:"true"`
	MaxOpenConns    int           `yaml:"max_open_conns" env-default:"50"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env-default:"10"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env-default:"5m"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env-default:"1m"`
}

type Server struct {
	Host    string        `yaml:"host" env-default:"localhost"`
	Port    string        `yaml:"port" env-default:"8080"`
	Timeout time.Duration `yaml:"timeout" env-default:"5s"`
}

// GitHub configures the issue gateway. Domain other than github.com
// switches the client to a GitHub Enterprise API endpoint.
type GitHub struct {
	Token  string `env:"GITHUB_TOKEN" env-required:"true"`
	Domain string `yaml:"domain" env-default:"github.com"`
}

// Jira configures the optional tracker lookup used to enrich webhook
// payloads that carry only a ticket key. All three fields empty
// disables the lookup.
type Jira struct {
	URL      string `yaml:"url" env:"JIRA_URL"`
	Username string `env:"JIRA_USERNAME"`
	Token    string `env:"JIRA_TOKEN"`
}

// Routing holds the immutable team mapping table injected into the
// router, plus the fallback used when no team matches.
type Routing struct {
	Teams       []router.Team `yaml:"teams"`
	DefaultTeam DefaultTeam   `yaml:"default_team"`
}

type DefaultTeam struct {
	Team  string `yaml:"team"`
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
}

func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		return nil, errors.New("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file does not exist: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}
