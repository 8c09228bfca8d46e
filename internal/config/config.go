package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Realtime RealtimeConfig `yaml:"realtime"`
	MCP      MCPConfig      `yaml:"mcp"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// RealtimeConfig tunes the websocket broadcaster. Pings are sent at nine
// tenths of PongWait.
type RealtimeConfig struct {
	AllowedOrigins      []string      `yaml:"allowed_origins"`
	ReleaseOnDisconnect bool          `yaml:"release_on_disconnect"`
	SendBuffer          int           `yaml:"send_buffer"`
	WriteTimeout        time.Duration `yaml:"write_timeout"`
	PongWait            time.Duration `yaml:"pong_wait"`
}

type MCPConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "livetodo.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Realtime: RealtimeConfig{
			AllowedOrigins:      []string{"http://localhost:5173", "http://localhost:3000"},
			ReleaseOnDisconnect: true,
			SendBuffer:          64,
			WriteTimeout:        10 * time.Second,
			PongWait:            60 * time.Second,
		},
		MCP: MCPConfig{
			Enabled: true,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("LIVETODO_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("LIVETODO_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("LIVETODO_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LIVETODO_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("LIVETODO_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("LIVETODO_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("LIVETODO_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if origins := os.Getenv("LIVETODO_ALLOWED_ORIGINS"); origins != "" {
		cfg.Realtime.AllowedOrigins = splitList(origins)
	}
	if err := envBool("LIVETODO_RELEASE_ON_DISCONNECT", &cfg.Realtime.ReleaseOnDisconnect); err != nil {
		return Config{}, err
	}
	if err := envBool("LIVETODO_MCP_ENABLED", &cfg.MCP.Enabled); err != nil {
		return Config{}, err
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func envBool(name string, dst *bool) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = v
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
