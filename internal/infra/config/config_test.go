// No t.Parallel() — env vars are process-global and not thread-safe.
package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are unset so defaults apply.
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("GROQ_BASE_URL", "")
	t.Setenv("GROQ_CHAT_MODEL", "")
	t.Setenv("OLLAMA_BASE_URL", "")
	t.Setenv("AGRIGPT_DB", "")

	cfg := Load()

	if cfg.LLMProvider != "groq" {
		t.Errorf("expected LLMProvider 'groq', got %q", cfg.LLMProvider)
	}
	if cfg.GroqBaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("expected default GroqBaseURL, got %q", cfg.GroqBaseURL)
	}
	if cfg.OllamaBaseURL != "http://localhost:11434" {
		t.Errorf("expected OllamaBaseURL 'http://localhost:11434', got %q", cfg.OllamaBaseURL)
	}
	if cfg.DBPath != "agrigpt.db" {
		t.Errorf("expected DBPath 'agrigpt.db', got %q", cfg.DBPath)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("GROQ_CHAT_MODEL", "llama-3.3-70b-versatile")
	t.Setenv("OLLAMA_CHAT_MODEL", "llama3.1:8b")
	t.Setenv("AGRIGPT_DB", "/data/agrigpt.db")

	cfg := Load()

	if cfg.LLMProvider != "ollama" {
		t.Errorf("expected LLMProvider 'ollama', got %q", cfg.LLMProvider)
	}
	if cfg.GroqChatModel != "llama-3.3-70b-versatile" {
		t.Errorf("expected custom GroqChatModel, got %q", cfg.GroqChatModel)
	}
	if cfg.OllamaChatModel != "llama3.1:8b" {
		t.Errorf("expected OllamaChatModel 'llama3.1:8b', got %q", cfg.OllamaChatModel)
	}
	if cfg.DBPath != "/data/agrigpt.db" {
		t.Errorf("expected custom DBPath, got %q", cfg.DBPath)
	}
}

func TestEnvOr_Present(t *testing.T) {
	t.Setenv("TEST_ENVOR_KEY", "custom-value")
	got := envOr("TEST_ENVOR_KEY", "fallback")
	if got != "custom-value" {
		t.Errorf("expected 'custom-value', got %q", got)
	}
}

func TestEnvOr_Absent(t *testing.T) {
	t.Setenv("TEST_ENVOR_MISSING", "")
	got := envOr("TEST_ENVOR_MISSING", "fallback")
	if got != "fallback" {
		t.Errorf("expected 'fallback', got %q", got)
	}
}
