package common

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.Quality.Threshold != 0.85 {
		t.Errorf("threshold = %v, want 0.85", cfg.Quality.Threshold)
	}
	if cfg.Chunking.ChunkSize != 3500 || cfg.Chunking.ChunkOverlap != 250 || cfg.Chunking.BoundaryTolerance != 500 {
		t.Errorf("chunking defaults = %+v", cfg.Chunking)
	}
	if cfg.Parsers.Timeout != 60*time.Second {
		t.Errorf("parser timeout = %v", cfg.Parsers.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("QUALITY_THRESHOLD", "0.7")
	t.Setenv("CHUNK_SIZE", "2000")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("QUALITY_RETRY_TIMEOUT", "30s")

	cfg := LoadConfig()
	if cfg.Quality.Threshold != 0.7 {
		t.Errorf("threshold = %v, want 0.7", cfg.Quality.Threshold)
	}
	if cfg.Chunking.ChunkSize != 2000 {
		t.Errorf("chunk size = %d, want 2000", cfg.Chunking.ChunkSize)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("model = %q", cfg.LLM.Model)
	}
	if cfg.Quality.RetryTimeout != 30*time.Second {
		t.Errorf("retry timeout = %v", cfg.Quality.RetryTimeout)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold above one", func(c *Config) { c.Quality.Threshold = 1.5 }},
		{"threshold zero", func(c *Config) { c.Quality.Threshold = 0 }},
		{"weights do not sum", func(c *Config) { c.Quality.CompletenessWeight = 0.9 }},
		{"overlap not below size", func(c *Config) { c.Chunking.ChunkOverlap = c.Chunking.ChunkSize }},
		{"missing rules path", func(c *Config) { c.Rules.Path = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := LoadConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
