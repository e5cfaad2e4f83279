// Package config loads server settings from defaults, an optional TOML
// file, a .env file and the environment, in that order of precedence
// (later sources win).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultConfigFile is read when CONFIG_FILE is not set and the file exists.
const DefaultConfigFile = "gas-tracker.toml"

// Config holds runtime settings for the web server.
type Config struct {
	Port          string `toml:"port"`
	DBPath        string `toml:"db_path"`
	TemplateDir   string `toml:"template_dir"`
	StaticDir     string `toml:"static_dir"`
	SecureCookie  bool   `toml:"secure_cookie"`
	PageSize      int    `toml:"page_size"`
	LogLevel      string `toml:"log_level"`
	AdminUser     string `toml:"admin_user"`
	AdminPassword string `toml:"admin_password"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Port:        "8080",
		DBPath:      "gas.db",
		TemplateDir: "web/templates",
		StaticDir:   "web/static",
		PageSize:    20,
		LogLevel:    "info",
	}
}

// Load builds a Config from defaults, the TOML file, .env and environment
// variables.
func Load() (Config, error) {
	cfg := Default()

	path := os.Getenv("CONFIG_FILE")
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := loadFile(&cfg, path, explicit); err != nil {
		return cfg, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("loading .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func loadFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.DBPath, "DB_PATH")
	setString(&cfg.TemplateDir, "TEMPLATE_DIR")
	setString(&cfg.StaticDir, "STATIC_DIR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.AdminUser, "ADMIN_USER")
	setString(&cfg.AdminPassword, "ADMIN_PASSWORD")

	if v := os.Getenv("SECURE_COOKIE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SECURE_COOKIE: %w", err)
		}
		cfg.SecureCookie = b
	}
	if v := os.Getenv("PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PAGE_SIZE: %w", err)
		}
		cfg.PageSize = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("port must be set")
	}
	if c.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if (c.AdminUser == "") != (c.AdminPassword == "") {
		return errors.New("admin_user and admin_password must be set together")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func (c Config) String() string {
	passwordDisplay := "(not set)"
	if c.AdminPassword != "" {
		passwordDisplay = "********"
	}
	return fmt.Sprintf("port=%s db=%s templates=%s static=%s secure_cookie=%t page_size=%d log_level=%s admin_user=%q admin_password=%s",
		c.Port, c.DBPath, c.TemplateDir, c.StaticDir, c.SecureCookie, c.PageSize, c.LogLevel, c.AdminUser, passwordDisplay)
}
