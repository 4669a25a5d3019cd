package app

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIBaseURL   string `yaml:"api_base_url"`
	MeetURL      string `yaml:"meet_url"`
	QuizLength   int    `yaml:"quiz_questions"`
	AgentTimeout int    `yaml:"agent_timeout_seconds"`
}

func DefaultConfig() Config {
	return Config{
		APIBaseURL:   "http://localhost:5002/api",
		MeetURL:      "ws://localhost:5002/meet",
		QuizLength:   5,
		AgentTimeout: 10,
	}
}

// LoadConfig reads the yaml config at path, falling back to defaults and then
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return cfg, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := os.Getenv("TUTOR_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("TUTOR_MEET_URL"); v != "" {
		cfg.MeetURL = v
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultConfig().APIBaseURL
	}
	if cfg.MeetURL == "" {
		cfg.MeetURL = DefaultConfig().MeetURL
	}
	if cfg.QuizLength <= 0 {
		cfg.QuizLength = 5
	}
	if cfg.AgentTimeout <= 0 {
		cfg.AgentTimeout = 10
	}
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "tutor-cli", "config.yml")
}

// AgentAckTimeout is the window a requested live session may stay
// unacknowledged before it is failed.
func (c Config) AgentAckTimeout() time.Duration {
	return time.Duration(c.AgentTimeout) * time.Second
}
