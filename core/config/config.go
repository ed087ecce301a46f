// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env           string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	RedisURL      string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	DashboardURL  string `env:"DASHBOARD_URL" envDefault:"http://localhost:3000"`
	GitLabBaseURL string `env:"GITLAB_BASE_URL" envDefault:"https://gitlab.com"`
	// SnowflakeNodeID must differ per running process so generated
	// identifiers never collide across replicas.
	SnowflakeNodeID int64 `env:"SNOWFLAKE_NODE_ID" envDefault:"1"`

	WorkOS WorkOSConfig `envPrefix:"WORKOS_"`
	Flags  FeatureFlags `envPrefix:"FEATURE_"`
}

type WorkOSConfig struct {
	APIKey      string `env:"API_KEY"`
	ClientID    string `env:"CLIENT_ID"`
	RedirectURI string `env:"REDIRECT_URI"`
}

// FeatureFlags are plain configuration values injected at construction.
// There is no runtime flag store.
type FeatureFlags struct {
	// MultipleClassroomsPerOrg allows more than one active classroom bound
	// to the same external group.
	MultipleClassroomsPerOrg bool `env:"MULTIPLE_CLASSROOMS" envDefault:"false"`
	// TeamGroupings exposes the team grouping view on classrooms.
	TeamGroupings bool `env:"TEAM_GROUPINGS" envDefault:"false"`
}

func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
