package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/narration"
)

func TestDecodeConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if cfg.Store.Driver != "file" || cfg.Store.Path != "user_data.json" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.AI.Provider != providerOpenAI || cfg.AI.Timeout != time.Minute {
		t.Fatalf("unexpected ai config: %+v", cfg.AI)
	}
	if cfg.AI.OpenAI.Model != "gpt-3.5-turbo" || cfg.AI.Gemini.MaxRetries != 1 {
		t.Fatalf("unexpected provider defaults: %+v %+v", cfg.AI.OpenAI, cfg.AI.Gemini)
	}
	if cfg.Narration.Enabled || len(cfg.Narration.Command) != 1 || cfg.Narration.Command[0] != "espeak" {
		t.Fatalf("unexpected narration config: %+v", cfg.Narration)
	}
	if cfg.Server.Listen != ":8080" {
		t.Fatalf("unexpected listen address: %s", cfg.Server.Listen)
	}
}

func TestDecodeConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hh-interviewer.yaml")
	content := `
store:
  driver: sqlite
  path: interviews.db
ai:
  provider: gemini
  timeout: 15s
  gemini:
    model: gemini-2.5-pro
    max-retries: 3
narration:
  enabled: true
  command: [say, -v, Alex]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}

	cfg, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if cfg.Store.Driver != "sqlite" || cfg.Store.Path != "interviews.db" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.AI.Provider != providerGemini || cfg.AI.Timeout != 15*time.Second {
		t.Fatalf("unexpected ai config: %+v", cfg.AI)
	}
	if cfg.AI.Gemini.Model != "gemini-2.5-pro" || cfg.AI.Gemini.MaxRetries != 3 || cfg.AI.Gemini.MaxLogLength != 200 {
		t.Fatalf("unexpected gemini config: %+v", cfg.AI.Gemini)
	}
	if cfg.AI.OpenAI.Model != "gpt-3.5-turbo" {
		t.Fatalf("openai defaults must survive: %+v", cfg.AI.OpenAI)
	}
	if !cfg.Narration.Enabled || len(cfg.Narration.Command) != 3 {
		t.Fatalf("unexpected narration config: %+v", cfg.Narration)
	}
}

func TestNewGateway(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg := &AIConfig{Provider: "OpenAI", OpenAI: &OpenAIConfig{}, Gemini: &GeminiConfig{}}
	if _, err := newGateway(t.Context(), cfg, zap.NewNop()); err != nil {
		t.Fatalf("openai gateway: %v", err)
	}

	cfg.Provider = "anthropic"
	if _, err := newGateway(t.Context(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for unsupported provider")
	}

	t.Setenv("GEMINI_API_KEY", "")
	cfg.Provider = providerGemini
	if _, err := newGateway(t.Context(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for missing gemini key")
	}
}

func TestNewNarrator(t *testing.T) {
	if _, ok := newNarrator(&NarrationConfig{Command: []string{"espeak"}}, zap.NewNop()).(narration.Nop); !ok {
		t.Fatal("disabled narration must be a no-op")
	}
	if _, ok := newNarrator(&NarrationConfig{Enabled: true}, zap.NewNop()).(narration.Nop); !ok {
		t.Fatal("empty command must fall back to a no-op")
	}
	if _, ok := newNarrator(&NarrationConfig{Enabled: true, Command: []string{"espeak"}}, zap.NewNop()).(narration.Nop); ok {
		t.Fatal("expected command narrator")
	}
}
