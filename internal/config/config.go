package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // DOORLIST_DATABASE_URL (empty = in-memory roster)
	HTTPAddr    string // DOORLIST_HTTP_ADDR (default ":8080")
	NATSURL     string // DOORLIST_NATS_URL (optional, empty = no events)
	AuthToken   string // DOORLIST_AUTH_TOKEN (optional, empty = auth disabled)

	// Roster cache settings (only meaningful with a database configured)
	CacheEnabled  bool          // DOORLIST_CACHE (default "1"; "0" serves the database directly)
	CachePoll     time.Duration // DOORLIST_CACHE_POLL (default 15s)
	CacheDebounce time.Duration // DOORLIST_CACHE_DEBOUNCE (default 5s)
	CacheTimeout  time.Duration // DOORLIST_CACHE_TIMEOUT (default 5s)

	// Snapshot settings
	SnapshotInterval   time.Duration // DOORLIST_SNAPSHOT_INTERVAL (default 3m; 0 = disabled)
	SnapshotPath       string        // DOORLIST_SNAPSHOT_PATH (local file; doubles as offline fallback)
	SnapshotS3Bucket   string        // DOORLIST_SNAPSHOT_S3_BUCKET (enables S3 when set)
	SnapshotS3Endpoint string        // DOORLIST_SNAPSHOT_S3_ENDPOINT (custom endpoint for MinIO)
	SnapshotS3Region   string        // DOORLIST_SNAPSHOT_S3_REGION (default "us-east-1")
	SnapshotS3Key      string        // DOORLIST_SNAPSHOT_S3_KEY (default "doorlist/roster.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:        os.Getenv("DOORLIST_DATABASE_URL"),
		HTTPAddr:           envOrDefault("DOORLIST_HTTP_ADDR", ":8080"),
		NATSURL:            os.Getenv("DOORLIST_NATS_URL"),
		AuthToken:          os.Getenv("DOORLIST_AUTH_TOKEN"),
		CacheEnabled:       envOrDefault("DOORLIST_CACHE", "1") != "0",
		SnapshotPath:       os.Getenv("DOORLIST_SNAPSHOT_PATH"),
		SnapshotS3Bucket:   os.Getenv("DOORLIST_SNAPSHOT_S3_BUCKET"),
		SnapshotS3Endpoint: os.Getenv("DOORLIST_SNAPSHOT_S3_ENDPOINT"),
		SnapshotS3Region:   envOrDefault("DOORLIST_SNAPSHOT_S3_REGION", "us-east-1"),
		SnapshotS3Key:      envOrDefault("DOORLIST_SNAPSHOT_S3_KEY", "doorlist/roster.jsonl"),
	}

	for _, d := range []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"DOORLIST_CACHE_POLL", "15s", &c.CachePoll},
		{"DOORLIST_CACHE_DEBOUNCE", "5s", &c.CacheDebounce},
		{"DOORLIST_CACHE_TIMEOUT", "5s", &c.CacheTimeout},
		{"DOORLIST_SNAPSHOT_INTERVAL", "3m", &c.SnapshotInterval},
	} {
		v, err := time.ParseDuration(envOrDefault(d.key, d.fallback))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
