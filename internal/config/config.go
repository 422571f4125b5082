package config

import (
	"log"
	"os"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

// Config carries everything the pipeline needs at construction time.
// Credential material comes exclusively from the environment.
type Config struct {
	Mode Mode

	Port string

	// Gemini API access. GeminiAPIKey selects the public Gemini API
	// backend; otherwise project+location select Vertex.
	GeminiAPIKey string
	GCPProjectID string
	GCPLocation  string
	ModelName    string

	StorageBackend string // "memory" or "firestore"
	UseMockLLM     bool   // true = deterministic local model, no network

	Debug bool
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "TRUE"
}

// Load reads all env vars and builds the config
func Load() *Config {
	var mode Mode
	switch getEnv("RELAY_MODE", "local") {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("RELAY_PORT", "8080"),

		GeminiAPIKey: getEnv("RELAY_GEMINI_API_KEY", ""),
		GCPProjectID: getEnv("RELAY_GCP_PROJECT", ""),
		GCPLocation:  getEnv("RELAY_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("RELAY_MODEL_NAME", "gemini-2.5-flash"),

		StorageBackend: getEnv("RELAY_STORAGE_BACKEND", "memory"),
		UseMockLLM:     getBoolEnv("RELAY_USE_MOCK_LLM", mode == ModeLocal),

		Debug: getBoolEnv("RELAY_DEBUG", false),
	}

	// Minimal validation in GCP mode
	if cfg.Mode == ModeGCP && cfg.GeminiAPIKey == "" && cfg.GCPProjectID == "" {
		log.Fatal("RELAY_GEMINI_API_KEY or RELAY_GCP_PROJECT must be set in gcp mode")
	}

	return cfg
}
