package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Env holds process-level settings read once at startup. Everything that can
// change at runtime lives in the persisted Config record instead.
type Env struct {
	ListenAddr    string
	ConfigPath    string
	UploadsDir    string
	LabelsDir     string
	SessionSecret string
	FontPath      string
	LogLevel      string
	LogFile       string
}

func LoadEnv() *Env {
	_ = godotenv.Load()

	return &Env{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8000"),
		ConfigPath:    getEnv("CONFIG_PATH", "config.json"),
		UploadsDir:    getEnv("UPLOADS_DIR", "uploads"),
		LabelsDir:     getEnv("LABELS_DIR", "static/qr_codes"),
		SessionSecret: getEnv("SESSION_SECRET", "dev-secret-change-me"),
		FontPath:      getEnv("LABEL_FONT_PATH", "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// Config is the persisted singleton record written by setup and admin
// settings. Configured gates every other flow in the application.
type Config struct {
	Configured bool   `json:"configured"`
	DBHost     string `json:"db_host,omitempty"`
	DBPort     string `json:"db_port,omitempty"`
	DBName     string `json:"db_name,omitempty"`
	DBUser     string `json:"db_user,omitempty"`
	DBPass     string `json:"db_pass,omitempty"`
	LogoPath   string `json:"logo_path,omitempty"`
}

// Store reads and writes the Config record at a fixed path. Handlers call
// Load at the top of every request; the record is never cached in-process so
// a config change is visible to the next request without a restart.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the persisted record, or an unconfigured Config when the file
// does not exist yet.
func (s *Store) Load() (*Config, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the record atomically: to a temp file in the same directory,
// then renamed over the target.
func (s *Store) Save(cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}
