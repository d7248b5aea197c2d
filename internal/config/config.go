package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port string

	GCPProjectID string
	GCPLocation  string
	ModelName    string

	// Identity Toolkit web API key; identity features are disabled
	// when empty instead of failing startup.
	FirebaseAPIKey string

	// VerifyTokens enables bearer-token verification on the API when
	// the project is configured.
	VerifyTokens bool

	StorageBackend string // "memory" or "firestore"
	UseMockLLM     bool   // true = use mock even on GCP

	// PlannerBaseURL is where the client SDK points; defaults to a
	// local server.
	PlannerBaseURL string
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
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

// Load reads .env (if present) plus env vars and builds the config.
func Load() *Config {
	_ = godotenv.Load()

	modeStr := getEnv("WAYFARER_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("PORT", "8080"),

		GCPProjectID: getEnv("WAYFARER_GCP_PROJECT", ""),
		GCPLocation:  getEnv("WAYFARER_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("WAYFARER_MODEL_NAME", "gemini-2.5-flash"),

		FirebaseAPIKey: getEnv("WAYFARER_FIREBASE_API_KEY", ""),
		VerifyTokens:   getBoolEnv("WAYFARER_VERIFY_TOKENS", false),

		StorageBackend: getEnv("WAYFARER_STORAGE_BACKEND", "memory"),
		UseMockLLM:     getBoolEnv("WAYFARER_USE_MOCK_LLM", mode == ModeLocal),

		PlannerBaseURL: getEnv("WAYFARER_PLANNER_URL", "http://localhost:8080"),
	}

	// Minimal validation in GCP mode
	if cfg.Mode == ModeGCP && cfg.GCPProjectID == "" {
		log.Fatal("WAYFARER_GCP_PROJECT must be set in gcp mode")
	}

	return cfg
}
