package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.Upstream.BaseURL != "http://localhost:3001" {
		t.Fatalf("unexpected API base: %s", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.MaxSongs != 5 {
		t.Fatalf("unexpected max songs: %d", cfg.Upstream.MaxSongs)
	}
	if cfg.Upstream.Timeout != 15*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.Upstream.Timeout)
	}
	if cfg.DefaultLocale != "en" {
		t.Fatalf("unexpected locale: %s", cfg.DefaultLocale)
	}
}

func TestLoadPortWithHost(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
}

func TestLoadRejectsPortWithSpace(t *testing.T) {
	t.Setenv("PORT", "80 80")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

func TestLoadCollectsValidationErrors(t *testing.T) {
	t.Setenv("API_BASE", "ftp://example.com")
	t.Setenv("MUSIC_MAX_SONGS", "0")
	t.Setenv("DEFAULT_LOCALE", "fr")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{"API_BASE", "MUSIC_MAX_SONGS", "DEFAULT_LOCALE"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %s in error, got %q", want, msg)
		}
	}
}

func TestLoadAcceptsRegionLocale(t *testing.T) {
	t.Setenv("DEFAULT_LOCALE", "ja-JP")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.DefaultLocale != "ja-JP" {
		t.Fatalf("unexpected locale: %s", cfg.DefaultLocale)
	}
}

func TestLoadSamplingOverrides(t *testing.T) {
	t.Setenv("ARK_TEMPERATURE", "0.4")
	t.Setenv("ARK_MAX_TOKENS", "256")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.AI.Temperature == nil || *cfg.AI.Temperature != 0.4 {
		t.Fatalf("unexpected temperature: %v", cfg.AI.Temperature)
	}
	if cfg.AI.MaxTokens == nil || *cfg.AI.MaxTokens != 256 {
		t.Fatalf("unexpected max tokens: %v", cfg.AI.MaxTokens)
	}
	if cfg.AI.TopP != nil {
		t.Fatalf("expected nil top_p, got %v", *cfg.AI.TopP)
	}
}

func TestLoadInvalidSampling(t *testing.T) {
	t.Setenv("ARK_TOP_P", "high")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid ARK_TOP_P")
	}
}

func TestAIConfigEnabled(t *testing.T) {
	cases := []struct {
		name string
		cfg  AIConfig
		want bool
	}{
		{"empty", AIConfig{}, false},
		{"api key", AIConfig{Model: "m", APIKey: "k"}, true},
		{"ak sk", AIConfig{Model: "m", AccessKey: "a", SecretKey: "s"}, true},
		{"missing model", AIConfig{APIKey: "k"}, false},
		{"ak only", AIConfig{Model: "m", AccessKey: "a"}, false},
	}

	for _, tc := range cases {
		if got := tc.cfg.Enabled(); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
