// Package config handles configuration loading, validation, and persistence
// for the Lagoon bancho server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	DefaultConfigDir   = "config"
	DefaultConfigFile  = "config.json"
	DefaultBanchoPort  = 8080
	DefaultDatabaseDir = "data"
)

// Config is the root configuration structure for Lagoon.
type Config struct {
	mu   sync.RWMutex
	path string

	ServerData      ServerData      `json:"server_data"`
	ApplicationData ApplicationData `json:"application_data"`
}

// ServerData contains bancho-facing server configuration.
type ServerData struct {
	// Identity
	Domain string `json:"srv_domain"`
	Name   string `json:"srv_name"`
	IP     string `json:"srv_ip"`

	// Listener
	BanchoPort int `json:"srv_bancho_port"`

	// Bot account presented in chat and notifications
	BotName string `json:"srv_bot_name"`

	// Client gate
	MinClientYear int  `json:"srv_min_client_year"`
	AllowCheats   bool `json:"srv_allow_cheat_builds"`

	// Chat
	WelcomeMessage string `json:"srv_welcome_message"`
	MenuIconURL    string `json:"srv_menu_icon_url"`
}

// ApplicationData contains server application configuration.
type ApplicationData struct {
	Timers   TimerConfig    `json:"timers"`
	Database DatabaseConfig `json:"database"`
	MQTT     MQTTConfig     `json:"mqtt"`
	Security SecurityConfig `json:"security"`
	Logging  LoggingConfig  `json:"logging"`
}

// TimerConfig holds session and maintenance interval settings.
type TimerConfig struct {
	PingTimeout          int `json:"ping_timeout_sec"`
	SessionReapInterval  int `json:"session_reap_interval_sec"`
	StatsPollingInterval int `json:"stats_polling_interval_sec"`
	HeartbeatInterval    int `json:"heartbeat_interval_sec"`
}

// DatabaseConfig holds SQLite database settings.
type DatabaseConfig struct {
	Directory string `json:"directory"`
	File      string `json:"file"`
}

// MQTTConfig holds MQTT telemetry settings.
type MQTTConfig struct {
	Enabled   bool   `json:"enabled"`
	BrokerURL string `json:"broker_url"`
	Port      int    `json:"port"`
	UseTLS    bool   `json:"use_tls"`
	CertFile  string `json:"cert_file"`
	KeyFile   string `json:"key_file"`
	CAFile    string `json:"ca_file"`
	ClientID  string `json:"client_id"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	TLSEnabled     bool     `json:"tls_enabled"`
	TLSCertFile    string   `json:"tls_cert_file"`
	TLSKeyFile     string   `json:"tls_key_file"`
	AllowedOrigins []string `json:"allowed_origins"`
	RateLimitRPS   int      `json:"rate_limit_rps"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `json:"level"`
	Directory  string `json:"directory"`
	MaxBackups int    `json:"max_backups"`
	Console    bool   `json:"console"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ServerData: ServerData{
			Domain:         "lagoon.local",
			Name:           "Lagoon",
			BanchoPort:     DefaultBanchoPort,
			BotName:        "Lagoon",
			MinClientYear:  2018,
			WelcomeMessage: "Welcome to Lagoon!",
		},
		ApplicationData: ApplicationData{
			Timers: TimerConfig{
				PingTimeout:          300,
				SessionReapInterval:  30,
				StatsPollingInterval: 10,
				HeartbeatInterval:    60,
			},
			Database: DatabaseConfig{
				Directory: DefaultDatabaseDir,
				File:      "lagoon.db",
			},
			MQTT: MQTTConfig{
				Enabled:   false,
				BrokerURL: "localhost",
				Port:      1883,
			},
			Security: SecurityConfig{
				RateLimitRPS: 100,
			},
			Logging: LoggingConfig{
				Level:      "info",
				Directory:  "logs",
				MaxBackups: 5,
				Console:    true,
			},
		},
	}
}

// Load reads configuration from a JSON file.
func Load(configDir string) (*Config, error) {
	configPath := filepath.Join(configDir, DefaultConfigFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", configPath).Msg("config file not found, creating default")
			cfg := DefaultConfig()
			cfg.path = configPath
			if saveErr := cfg.Save(); saveErr != nil {
				return nil, fmt.Errorf("failed to save default config: %w", saveErr)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig() // Start with defaults, then overlay
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	cfg.path = configPath
	log.Info().Str("path", configPath).Msg("configuration loaded")

	// Re-save config to persist any new default fields added in code updates.
	// This ensures config.json always reflects the complete set of options.
	if saveErr := cfg.Save(); saveErr != nil {
		log.Warn().Err(saveErr).Msg("failed to re-save config with updated defaults")
	}

	return cfg, nil
}

// Save writes the current configuration to disk.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Debug().Str("path", c.path).Msg("configuration saved")
	return nil
}

// GetServerData returns a copy of the server data configuration.
func (c *Config) GetServerData() ServerData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ServerData
}

// SetServerData updates the server data configuration.
func (c *Config) SetServerData(data ServerData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ServerData = data
}

// GetApplicationData returns a copy of the application data configuration.
func (c *Config) GetApplicationData() ApplicationData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ApplicationData
}

// SetApplicationData updates the application data configuration.
func (c *Config) SetApplicationData(data ApplicationData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ApplicationData = data
}

// UpdateServerField updates a specific field in server data by its JSON key.
func (c *Config) UpdateServerField(key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, _ := json.Marshal(c.ServerData)
	m := make(map[string]interface{})
	json.Unmarshal(data, &m)

	m[key] = value

	updated, _ := json.Marshal(m)
	if err := json.Unmarshal(updated, &c.ServerData); err != nil {
		return fmt.Errorf("failed to update field %s: %w", key, err)
	}

	return nil
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.path
}

// DatabasePath returns the full path to the SQLite database file.
func (c *Config) DatabasePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return filepath.Join(c.ApplicationData.Database.Directory, c.ApplicationData.Database.File)
}
