// Package config loads the proxy's configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the proxy's runtime settings. The GitHub token never leaves
// this process; that is the whole point of running the proxy.
type Config struct {
	Port string `mapstructure:"PORT"`

	GitHubToken string `mapstructure:"GITHUB_TOKEN"`
	RepoOwner   string `mapstructure:"REPO_OWNER"`
	RepoName    string `mapstructure:"REPO_NAME"`
	Branch      string `mapstructure:"REPO_BRANCH"`

	// AllowedOrigin restricts who may dispatch through the proxy. Empty
	// disables the check (local development).
	AllowedOrigin string `mapstructure:"ALLOWED_ORIGIN"`

	// CSRFSecret signs the handshake grants. Empty means a random
	// per-process secret, which invalidates grants on restart.
	CSRFSecret string        `mapstructure:"CSRF_SHARED_SECRET"`
	CSRFTTL    time.Duration `mapstructure:"CSRF_TTL"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`
}

// LoadConfig reads configuration from the environment. Missing GitHub
// credentials are a startup error: a proxy that cannot reach the backing
// repository serves nothing useful.
func LoadConfig() (*Config, error) {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("REPO_BRANCH", "main")
	viper.SetDefault("CSRF_TTL", time.Hour)
	viper.SetDefault("TOKEN_TTL", 24*time.Hour)

	viper.BindEnv("PORT")
	viper.BindEnv("GITHUB_TOKEN")
	viper.BindEnv("REPO_OWNER")
	viper.BindEnv("REPO_NAME")
	viper.BindEnv("REPO_BRANCH")
	viper.BindEnv("ALLOWED_ORIGIN")
	viper.BindEnv("CSRF_SHARED_SECRET")
	viper.BindEnv("CSRF_TTL")
	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("TOKEN_TTL")

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if config.GitHubToken == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN is required")
	}
	if config.RepoOwner == "" {
		return nil, fmt.Errorf("REPO_OWNER is required")
	}
	if config.RepoName == "" {
		return nil, fmt.Errorf("REPO_NAME is required")
	}

	return &config, nil
}
