package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when no --config
// flag is given.
const DefaultConfigFile = "marketap.yaml"

// Config is the CLI-side project configuration. Environment variables
// (MARKETAP_*) override file values, and a .env file in the working
// directory is loaded first so local setups need no exported shell state.
type Config struct {
	ProjectID    string `yaml:"project_id"`
	EventBaseURL string `yaml:"event_base_url"`
	CRMBaseURL   string `yaml:"crm_base_url"`
	StoragePath  string `yaml:"storage_path"`
}

// LoadConfig reads the config file at path, falling back to
// DefaultConfigFile when path is empty. A missing default file is fine;
// an explicitly named missing file is an error.
func LoadConfig(path string) (Config, error) {
	// Best effort; absence of a .env file is the common case.
	_ = godotenv.Load()

	var cfg Config
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No config file; env vars may still carry everything.
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MARKETAP_PROJECT_ID"); v != "" {
		cfg.ProjectID = v
	}
	if v := os.Getenv("MARKETAP_EVENT_BASE_URL"); v != "" {
		cfg.EventBaseURL = v
	}
	if v := os.Getenv("MARKETAP_CRM_BASE_URL"); v != "" {
		cfg.CRMBaseURL = v
	}
	if v := os.Getenv("MARKETAP_STORAGE_PATH"); v != "" {
		cfg.StoragePath = v
	}
}

// requireProject guards commands that talk to the backend.
func requireProject(cfg Config) error {
	if cfg.ProjectID == "" {
		return NewExitError(ExitCommandError,
			"no project id: set project_id in marketap.yaml or MARKETAP_PROJECT_ID")
	}
	return nil
}
