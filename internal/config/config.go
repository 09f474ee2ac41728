package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Upload UploadConfig `yaml:"upload"`
	Email  EmailConfig  `yaml:"email"`
}

type ServerConfig struct {
	Port          string   `yaml:"port" env:"PORT"`
	Host          string   `yaml:"host" env:"HOST"`
	Debug         bool     `yaml:"debug" env:"DEBUG"`
	CORSOrigins   []string `yaml:"cors_origins" env:"CORS_ORIGINS"`
	SessionSecret string   `yaml:"session_secret" env:"SESSION_SECRET"`
	SiteURL       string   `yaml:"site_url" env:"SITE_URL"`
	TemplatesGlob string   `yaml:"templates_glob"`
}

type UploadConfig struct {
	APIKey          string `yaml:"api_key" env:"API_KEY"`
	ForwardURL      string `yaml:"forward_url" env:"FORWARD_URL"`
	ForwardAPIKey   string `yaml:"forward_api_key" env:"FORWARD_API_KEY"`
	ForwardTimeout  int    `yaml:"forward_timeout_seconds"`
	MaxPayloadBytes int64  `yaml:"max_payload_bytes"`
	CooldownSeconds int    `yaml:"cooldown_seconds"`
	AuditLogPath    string `yaml:"audit_log_path" env:"AUDIT_LOG_PATH"`
}

type EmailConfig struct {
	SMTP SMTPConfig `yaml:"smtp"`
}

type SMTPConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	config := &Config{}

	// Set defaults
	config.setDefaults()

	// Read from file if it exists
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	return config, nil
}

func (c *Config) setDefaults() {
	c.Server.Port = "8000"
	c.Server.Host = "0.0.0.0"
	c.Server.Debug = false
	c.Server.CORSOrigins = []string{"*"}
	c.Server.SiteURL = "https://hrfunc.org"
	c.Server.TemplatesGlob = "templates/*"

	c.Upload.ForwardTimeout = 10
	c.Upload.MaxPayloadBytes = 5 << 20
	c.Upload.CooldownSeconds = 5
	c.Upload.AuditLogPath = "submissions_log.csv"

	c.Email.SMTP.Port = 587
}

func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}
	if debug := os.Getenv("DEBUG"); debug == "true" {
		c.Server.Debug = true
	}
	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		c.Server.SessionSecret = secret
	}
	if siteURL := os.Getenv("SITE_URL"); siteURL != "" {
		c.Server.SiteURL = siteURL
	}

	// Upload env vars
	if apiKey := os.Getenv("API_KEY"); apiKey != "" {
		c.Upload.APIKey = apiKey
	}
	if forwardURL := os.Getenv("FORWARD_URL"); forwardURL != "" {
		c.Upload.ForwardURL = forwardURL
	}
	if forwardKey := os.Getenv("FORWARD_API_KEY"); forwardKey != "" {
		c.Upload.ForwardAPIKey = forwardKey
	}
	if auditPath := os.Getenv("AUDIT_LOG_PATH"); auditPath != "" {
		c.Upload.AuditLogPath = auditPath
	}

	// Email env vars
	if smtpHost := os.Getenv("SMTP_HOST"); smtpHost != "" {
		c.Email.SMTP.Host = smtpHost
	}
	if smtpPort := os.Getenv("SMTP_PORT"); smtpPort != "" {
		if port, err := strconv.Atoi(smtpPort); err == nil {
			c.Email.SMTP.Port = port
		}
	}
	if smtpUser := os.Getenv("SMTP_USERNAME"); smtpUser != "" {
		c.Email.SMTP.Username = smtpUser
	}
	if smtpPass := os.Getenv("SMTP_PASSWORD"); smtpPass != "" {
		c.Email.SMTP.Password = smtpPass
	}
	if smtpFrom := os.Getenv("SMTP_FROM"); smtpFrom != "" {
		c.Email.SMTP.From = smtpFrom
	}
}
