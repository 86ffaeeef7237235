// Package config provides application-wide configuration loaded from env vars.
// All fields have safe defaults so the binary runs locally without any env
// setup — except GROQ_API_KEY, which is required when LLM_PROVIDER=groq.
package config

import "os"

// Config holds runtime configuration for AgriGPT.
type Config struct {
	// LLM
	LLMProvider     string // LLM_PROVIDER — default: "groq"
	GroqAPIKey      string // GROQ_API_KEY — no default
	GroqBaseURL     string // GROQ_BASE_URL — default: "https://api.groq.com/openai/v1"
	GroqChatModel   string // GROQ_CHAT_MODEL — default: "openai/gpt-oss-20b"
	GroqVisionModel string // GROQ_VISION_MODEL — default: "meta-llama/llama-4-scout-17b-16e-instruct"
	OllamaBaseURL   string // OLLAMA_BASE_URL — default: "http://localhost:11434"
	OllamaChatModel string // OLLAMA_CHAT_MODEL — default: "llama3.2:3b"
	OllamaEmbed     string // OLLAMA_EMBED_MODEL — default: "nomic-embed-text" (768 dims)

	// Storage
	DBPath   string // AGRIGPT_DB — default: "agrigpt.db"
	ImageDir string // AGRIGPT_IMAGE_DIR — default: "uploads"

	// Scheme knowledge seed (optional; empty disables seeding)
	SchemeSeedPath string // AGRIGPT_SCHEME_SEED — default: ""

	// Admin key hash for scheme ingest endpoint (bcrypt hash of the raw key).
	AdminKeyHash string // AGRIGPT_ADMIN_KEY_HASH — no default
}

const (
	envKeyLLMProvider     = "LLM_PROVIDER"
	envKeyGroqAPIKey      = "GROQ_API_KEY"
	envKeyGroqBaseURL     = "GROQ_BASE_URL"
	envKeyGroqChatModel   = "GROQ_CHAT_MODEL"
	envKeyGroqVisionModel = "GROQ_VISION_MODEL"
	envKeyOllamaBaseURL   = "OLLAMA_BASE_URL"
	envKeyOllamaChatModel = "OLLAMA_CHAT_MODEL"
	envKeyOllamaEmbed     = "OLLAMA_EMBED_MODEL"
	envKeyDBPath          = "AGRIGPT_DB"
	envKeyImageDir        = "AGRIGPT_IMAGE_DIR"
	envKeySchemeSeedPath  = "AGRIGPT_SCHEME_SEED"
	envKeyAdminKeyHash    = "AGRIGPT_ADMIN_KEY_HASH"
)

// Load reads configuration from environment variables, applying defaults for missing values.
func Load() Config {
	return Config{
		LLMProvider:     envOr(envKeyLLMProvider, "groq"),
		GroqAPIKey:      os.Getenv(envKeyGroqAPIKey),
		GroqBaseURL:     envOr(envKeyGroqBaseURL, "https://api.groq.com/openai/v1"),
		GroqChatModel:   envOr(envKeyGroqChatModel, "openai/gpt-oss-20b"),
		GroqVisionModel: envOr(envKeyGroqVisionModel, "meta-llama/llama-4-scout-17b-16e-instruct"),
		OllamaBaseURL:   envOr(envKeyOllamaBaseURL, "http://localhost:11434"),
		OllamaChatModel: envOr(envKeyOllamaChatModel, "llama3.2:3b"),
		OllamaEmbed:     envOr(envKeyOllamaEmbed, "nomic-embed-text"),
		DBPath:          envOr(envKeyDBPath, "agrigpt.db"),
		ImageDir:        envOr(envKeyImageDir, "uploads"),
		SchemeSeedPath:  os.Getenv(envKeySchemeSeedPath),
		AdminKeyHash:    os.Getenv(envKeyAdminKeyHash),
	}
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
