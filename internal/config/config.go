// Package config provides centralized configuration management for the
// application: process-level settings read from the environment, and
// per-repository sync settings fetched from the repository itself.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all process-level configuration parameters for the application.
type Config struct {
	GitHub  GitHubConfig
	Jira    JiraConfig
	Webhook WebhookConfig
	Bot     BotConfig
	Server  ServerConfig
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token  string
	Domain string
}

// JiraConfig holds Jira specific configuration.
type JiraConfig struct {
	URL      string
	Username string
	Token    string
}

// WebhookConfig holds webhook verification configuration.
type WebhookConfig struct {
	Secret string
}

// BotConfig identifies the bot account this service writes as. Events sent
// by this login are never processed, which is what stops the service from
// reacting to its own comments and labels.
type BotConfig struct {
	Login string
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	ListenAddr string
}

// LoadConfig initializes and loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	// Initialize Viper for environment variables
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Map specific environment variables
	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("github.domain", "GITHUB_DOMAIN")
	v.BindEnv("jira.url", "JIRA_URL")
	v.BindEnv("jira.username", "JIRA_USERNAME")
	v.BindEnv("jira.token", "JIRA_TOKEN")
	v.BindEnv("webhook.secret", "WEBHOOK_SECRET")
	v.BindEnv("bot.login", "BOT_LOGIN")
	v.BindEnv("server.listen_addr", "LISTEN_ADDR")

	v.SetDefault("github.domain", "github.com")
	v.SetDefault("bot.login", "syncronize-issues-to-jira[bot]")
	v.SetDefault("server.listen_addr", ":3000")

	// Create config structure
	config := &Config{
		GitHub: GitHubConfig{
			Token:  v.GetString("github.token"),
			Domain: v.GetString("github.domain"),
		},
		Jira: JiraConfig{
			URL:      v.GetString("jira.url"),
			Username: v.GetString("jira.username"),
			Token:    v.GetString("jira.token"),
		},
		Webhook: WebhookConfig{
			Secret: v.GetString("webhook.secret"),
		},
		Bot: BotConfig{
			Login: v.GetString("bot.login"),
		},
		Server: ServerConfig{
			ListenAddr: v.GetString("server.listen_addr"),
		},
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// validateConfig ensures that all required configuration values are provided.
func validateConfig(config *Config) error {
	var missingVars []string

	if config.GitHub.Token == "" {
		missingVars = append(missingVars, "GITHUB_TOKEN")
	}
	if config.Webhook.Secret == "" {
		missingVars = append(missingVars, "WEBHOOK_SECRET")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}

// ValidateJiraConfig validates Jira-specific configuration.
func ValidateJiraConfig(config *Config) error {
	var missingVars []string

	if config.Jira.URL == "" {
		missingVars = append(missingVars, "JIRA_URL")
	}
	if config.Jira.Username == "" {
		missingVars = append(missingVars, "JIRA_USERNAME")
	}
	if config.Jira.Token == "" {
		missingVars = append(missingVars, "JIRA_TOKEN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}
