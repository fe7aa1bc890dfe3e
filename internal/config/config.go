package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// NarrativeCeiling caps the narrative call whatever RequestTimeout says.
const NarrativeCeiling = 30 * time.Second

type Config struct {
	GraphBaseURL    string        `yaml:"graph_base_url"`
	GraphAPIVersion string        `yaml:"graph_api_version"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	InsightsSince   string        `yaml:"insights_since"`
	Port            string        `yaml:"port"`
	LogLevel        slog.Level    `yaml:"-"`
	LogLevelName    string        `yaml:"log_level"`
	CORSOrigins     []string      `yaml:"cors_allowed_origins"`
	Narrative       Narrative     `yaml:"narrative"`
}

type Narrative struct {
	Provider  string `yaml:"provider"` // disabled, http, bedrock
	Endpoint  string `yaml:"endpoint"`
	APIKey    string `yaml:"api_key"`
	ModelID   string `yaml:"model_id"`
	AWSRegion string `yaml:"aws_region"`
}

// NarrativeTimeout is RequestTimeout bounded by NarrativeCeiling.
func (c Config) NarrativeTimeout() time.Duration {
	if c.RequestTimeout <= 0 || c.RequestTimeout > NarrativeCeiling {
		return NarrativeCeiling
	}
	return c.RequestTimeout
}

// FromEnv reads an optional .env file and then the process environment.
func FromEnv() Config {
	_ = godotenv.Load()

	to := 30 * time.Second
	if v := os.Getenv("REQUEST_TIMEOUT_S"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			to = time.Duration(n) * time.Second
		}
	}
	lvlName := strings.ToLower(envOr("LOG_LEVEL", "info"))
	return Config{
		GraphBaseURL:    envOr("GRAPH_BASE_URL", "https://graph.facebook.com"),
		GraphAPIVersion: envOr("GRAPH_API_VERSION", "v19.0"),
		RequestTimeout:  to,
		InsightsSince:   envOr("INSIGHTS_SINCE", "2024-01-01"),
		Port:            envOr("PORT", "8080"),
		LogLevel:        parseLevel(lvlName),
		LogLevelName:    lvlName,
		CORSOrigins:     splitCSV(envOr("CORS_ALLOWED_ORIGINS", "*")),
		Narrative: Narrative{
			Provider:  strings.ToLower(envOr("LLM_PROVIDER", "disabled")),
			Endpoint:  os.Getenv("LLM_ENDPOINT"),
			APIKey:    os.Getenv("LLM_API_KEY"),
			ModelID:   os.Getenv("LLM_MODEL_ID"),
			AWSRegion: envOr("AWS_REGION", "us-east-1"),
		},
	}
}

// FromFile overlays a YAML file on top of FromEnv. Keys absent from the file
// keep their environment value.
func FromFile(path string) (Config, error) {
	cfg := FromEnv()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.LogLevelName = strings.ToLower(cfg.LogLevelName)
	cfg.LogLevel = parseLevel(cfg.LogLevelName)
	cfg.Narrative.Provider = strings.ToLower(cfg.Narrative.Provider)
	return cfg, nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
