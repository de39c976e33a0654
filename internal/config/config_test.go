package config

import (
	"testing"
	"time"
)

var allEnvVars = []string{
	"DOORLIST_DATABASE_URL", "DOORLIST_HTTP_ADDR", "DOORLIST_NATS_URL",
	"DOORLIST_AUTH_TOKEN", "DOORLIST_CACHE", "DOORLIST_CACHE_POLL",
	"DOORLIST_CACHE_DEBOUNCE", "DOORLIST_CACHE_TIMEOUT",
	"DOORLIST_SNAPSHOT_INTERVAL", "DOORLIST_SNAPSHOT_PATH",
	"DOORLIST_SNAPSHOT_S3_BUCKET", "DOORLIST_SNAPSHOT_S3_ENDPOINT",
	"DOORLIST_SNAPSHOT_S3_REGION", "DOORLIST_SNAPSHOT_S3_KEY",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearAllEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty (in-memory mode)", cfg.DatabaseURL)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if !cfg.CacheEnabled {
		t.Error("CacheEnabled = false, want true by default")
	}
	if cfg.CachePoll != 15*time.Second {
		t.Errorf("CachePoll = %v, want 15s", cfg.CachePoll)
	}
	if cfg.CacheDebounce != 5*time.Second {
		t.Errorf("CacheDebounce = %v, want 5s", cfg.CacheDebounce)
	}
	if cfg.SnapshotInterval != 3*time.Minute {
		t.Errorf("SnapshotInterval = %v, want 3m", cfg.SnapshotInterval)
	}
	if cfg.SnapshotS3Region != "us-east-1" {
		t.Errorf("SnapshotS3Region = %q", cfg.SnapshotS3Region)
	}
	if cfg.SnapshotS3Key != "doorlist/roster.jsonl" {
		t.Errorf("SnapshotS3Key = %q", cfg.SnapshotS3Key)
	}
}

func TestLoadCustom(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("DOORLIST_DATABASE_URL", "postgres://db:5432/doorlist")
	t.Setenv("DOORLIST_HTTP_ADDR", ":3000")
	t.Setenv("DOORLIST_NATS_URL", "nats://localhost:4222")
	t.Setenv("DOORLIST_AUTH_TOKEN", "s3cret")
	t.Setenv("DOORLIST_CACHE", "0")
	t.Setenv("DOORLIST_CACHE_POLL", "1m")
	t.Setenv("DOORLIST_SNAPSHOT_INTERVAL", "10m")
	t.Setenv("DOORLIST_SNAPSHOT_PATH", "/var/lib/doorlist/roster.jsonl")
	t.Setenv("DOORLIST_SNAPSHOT_S3_BUCKET", "my-bucket")
	t.Setenv("DOORLIST_SNAPSHOT_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("DOORLIST_SNAPSHOT_S3_REGION", "eu-west-1")
	t.Setenv("DOORLIST_SNAPSHOT_S3_KEY", "custom/roster.jsonl")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "postgres://db:5432/doorlist" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.HTTPAddr != ":3000" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("NATSURL = %q", cfg.NATSURL)
	}
	if cfg.AuthToken != "s3cret" {
		t.Errorf("AuthToken = %q", cfg.AuthToken)
	}
	if cfg.CacheEnabled {
		t.Error("CacheEnabled = true, want false with DOORLIST_CACHE=0")
	}
	if cfg.CachePoll != time.Minute {
		t.Errorf("CachePoll = %v, want 1m", cfg.CachePoll)
	}
	if cfg.SnapshotInterval != 10*time.Minute {
		t.Errorf("SnapshotInterval = %v, want 10m", cfg.SnapshotInterval)
	}
	if cfg.SnapshotPath != "/var/lib/doorlist/roster.jsonl" {
		t.Errorf("SnapshotPath = %q", cfg.SnapshotPath)
	}
	if cfg.SnapshotS3Bucket != "my-bucket" {
		t.Errorf("SnapshotS3Bucket = %q", cfg.SnapshotS3Bucket)
	}
	if cfg.SnapshotS3Endpoint != "http://minio:9000" {
		t.Errorf("SnapshotS3Endpoint = %q", cfg.SnapshotS3Endpoint)
	}
	if cfg.SnapshotS3Region != "eu-west-1" {
		t.Errorf("SnapshotS3Region = %q", cfg.SnapshotS3Region)
	}
	if cfg.SnapshotS3Key != "custom/roster.jsonl" {
		t.Errorf("SnapshotS3Key = %q", cfg.SnapshotS3Key)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	for _, key := range []string{
		"DOORLIST_CACHE_POLL", "DOORLIST_CACHE_DEBOUNCE",
		"DOORLIST_CACHE_TIMEOUT", "DOORLIST_SNAPSHOT_INTERVAL",
	} {
		t.Run(key, func(t *testing.T) {
			clearAllEnv(t)
			t.Setenv(key, "not-a-duration")
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for invalid %s", key)
			}
		})
	}
}

func TestLoadSnapshotDisabled(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("DOORLIST_SNAPSHOT_INTERVAL", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SnapshotInterval != 0 {
		t.Errorf("SnapshotInterval = %v, want 0 (disabled)", cfg.SnapshotInterval)
	}
}

func TestEnvOrDefault(t *testing.T) {
	for _, tc := range []struct {
		name     string
		key      string
		envVal   string
		fallback string
		want     string
	}{
		{"EmptyUsesDefault", "TEST_ENVDEFAULT_EMPTY", "", "default-val", "default-val"},
		{"SetUsesEnv", "TEST_ENVDEFAULT_SET", "custom", "default-val", "custom"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envVal)
			got := envOrDefault(tc.key, tc.fallback)
			if got != tc.want {
				t.Errorf("envOrDefault(%q, %q) = %q, want %q", tc.key, tc.fallback, got, tc.want)
			}
		})
	}
}
