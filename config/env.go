package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvQdrantURL    = "QDRANT_URL"
	EnvQdrantKey    = "QDRANT_API_KEY"
	EnvMongoURI     = "MONGO_URI"
	EnvMongoDB      = "MONGO_DB"
	EnvPGDSN        = "PG_DSN"
	EnvEmbeddingURL = "EMBEDDING_HOST"
)

// LoadEnvFile populates the environment from a .env file without
// overriding variables that are already set. A missing file is ignored
// unless it was named explicitly.
func LoadEnvFile(path string, explicit bool) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides file settings with environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvOpenAIKey); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv(EnvEmbeddingURL); v != "" {
		c.AI.EmbeddingHost = v
	}
	if v := os.Getenv(EnvQdrantURL); v != "" {
		if err := c.VectorStore.Qdrant.setURL(v); err != nil {
			return err
		}
	}
	if v := os.Getenv(EnvQdrantKey); v != "" {
		c.VectorStore.Qdrant.APIKey = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Metadata.Mongo.URI = v
	}
	if v := os.Getenv(EnvMongoDB); v != "" {
		c.Metadata.Mongo.Database = v
	}
	if v := os.Getenv(EnvPGDSN); v != "" {
		c.VectorStore.PGVector.DSN = v
	}
	return nil
}

// setURL splits a Qdrant URL such as "https://xyz.cloud.qdrant.io:6334"
// into host, port and TLS. A URL without a port keeps the configured one.
func (q *QdrantConfig) setURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return fmt.Errorf("%w: %s %q is not a URL", ErrInvalidConfig, EnvQdrantURL, raw)
	}
	q.Host = u.Hostname()
	q.UseTLS = u.Scheme == "https"
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("%w: %s port %q", ErrInvalidConfig, EnvQdrantURL, p)
		}
		q.Port = port
	}
	return nil
}
