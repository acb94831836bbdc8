// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the verdict configuration file.
//
// Settings come from a YAML file, then from environment variables (which a
// .env file may populate), then from command-line flags applied by the
// caller. A missing file yields the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/verdict/chunking"
	"github.com/poiesic/verdict/core"
	"gopkg.in/yaml.v3"
)

// Backend names accepted by VectorStoreConfig.Type and MetadataConfig.Type.
const (
	BackendQdrant   = "qdrant"
	BackendBadger   = "badger"
	BackendPGVector = "pgvector"
	BackendMongo    = "mongo"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// AIConfig configures the OpenAI-compatible embedding and formatting services.
type AIConfig struct {
	EmbeddingHost     string  `yaml:"embedding_host"`
	FormatterHost     string  `yaml:"formatter_host"`
	EmbeddingModel    string  `yaml:"embedding_model"`
	FormatterModel    string  `yaml:"formatter_model"`
	APIKey            string  `yaml:"api_key,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// CollectionConfig names the target collection and its shape. Dimensions
// must match the embedding model's output.
type CollectionConfig struct {
	Name       string `yaml:"name"`
	Dimensions int    `yaml:"dimensions"`
	Distance   string `yaml:"distance"`
}

// Spec converts the collection settings to a core.CollectionSpec.
func (c CollectionConfig) Spec() (core.CollectionSpec, error) {
	distance, err := core.ParseDistance(c.Distance)
	if err != nil {
		return core.CollectionSpec{}, err
	}
	spec := core.CollectionSpec{Name: c.Name, Dimensions: c.Dimensions, Distance: distance}
	if err := core.ValidateCollectionSpec(spec); err != nil {
		return core.CollectionSpec{}, err
	}
	return spec, nil
}

// QdrantConfig holds Qdrant gRPC connection settings.
type QdrantConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	APIKey  string        `yaml:"api_key,omitempty"`
	UseTLS  bool          `yaml:"use_tls"`
	Timeout time.Duration `yaml:"timeout"`
}

// BadgerConfig locates an embedded badger database.
type BadgerConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// PGVectorConfig holds PostgreSQL connection settings.
type PGVectorConfig struct {
	DSN     string        `yaml:"dsn,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

// VectorStoreConfig selects the vector database.
type VectorStoreConfig struct {
	Type     string         `yaml:"type"`
	Qdrant   QdrantConfig   `yaml:"qdrant"`
	Badger   BadgerConfig   `yaml:"badger"`
	PGVector PGVectorConfig `yaml:"pgvector"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI      string        `yaml:"uri,omitempty"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

// MetadataConfig selects where judgment metadata and the ingestion ledger live.
type MetadataConfig struct {
	Type   string       `yaml:"type"`
	Badger BadgerConfig `yaml:"badger"`
	Mongo  MongoConfig  `yaml:"mongo"`
}

// IngestionConfig holds chunking and batch-write settings.
type IngestionConfig struct {
	ChunkSize      int           `yaml:"chunk_size"`
	Overlap        int           `yaml:"overlap"`
	ChunkUnit      string        `yaml:"chunk_unit"`
	MinLength      int           `yaml:"min_length"`
	BatchSize      int           `yaml:"batch_size"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryUnit      time.Duration `yaml:"retry_unit"`
	EmbedBatchSize int           `yaml:"embed_batch_size"`
	Pattern        string        `yaml:"pattern"`
	Workers        int           `yaml:"workers"`
}

// Config is the root configuration.
type Config struct {
	AI          AIConfig          `yaml:"ai"`
	Collection  CollectionConfig  `yaml:"collection"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Metadata    MetadataConfig    `yaml:"metadata"`
	Ingestion   IngestionConfig   `yaml:"ingestion"`
}

// Default returns the built-in configuration: OpenAI embeddings into a
// local Qdrant, metadata in an embedded badger database.
func Default() *Config {
	return &Config{
		AI: AIConfig{
			EmbeddingHost:  "https://api.openai.com/v1",
			FormatterHost:  "https://api.openai.com/v1",
			EmbeddingModel: "text-embedding-3-small",
			FormatterModel: "gpt-4o-mini",
		},
		Collection: CollectionConfig{
			Name:       "supreme_court_judgments",
			Dimensions: 1536,
			Distance:   string(core.DistanceCosine),
		},
		VectorStore: VectorStoreConfig{
			Type:     BackendQdrant,
			Qdrant:   QdrantConfig{Host: "localhost", Port: 6334, Timeout: 60 * time.Second},
			Badger:   BadgerConfig{Path: "data/vectors"},
			PGVector: PGVectorConfig{Timeout: 60 * time.Second},
		},
		Metadata: MetadataConfig{
			Type:   BackendBadger,
			Badger: BadgerConfig{Path: "data/metadata"},
			Mongo:  MongoConfig{Database: "legal_analysis", Timeout: 10 * time.Second},
		},
		Ingestion: IngestionConfig{
			ChunkSize:      200,
			Overlap:        50,
			ChunkUnit:      string(chunking.UnitWords),
			MinLength:      chunking.DefaultMinLength,
			BatchSize:      20,
			MaxRetries:     3,
			RetryUnit:      time.Second,
			EmbedBatchSize: 32,
			Pattern:        "*.pdf",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
// Environment overrides are applied afterwards; see ApplyEnv.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating directories as needed. Secrets set
// only through the environment are written too, so callers should clear
// them first when that matters.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	if _, err := c.Collection.Spec(); err != nil {
		return fmt.Errorf("%w: collection: %w", ErrInvalidConfig, err)
	}
	if c.AI.EmbeddingModel == "" {
		return fmt.Errorf("%w: ai.embedding_model is required", ErrInvalidConfig)
	}
	if c.AI.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: ai.requests_per_second must not be negative", ErrInvalidConfig)
	}

	switch c.VectorStore.Type {
	case BackendQdrant:
		if c.VectorStore.Qdrant.Host == "" {
			return fmt.Errorf("%w: vector_store.qdrant.host is required", ErrInvalidConfig)
		}
	case BackendBadger:
		if c.VectorStore.Badger.Path == "" && !c.VectorStore.Badger.InMemory {
			return fmt.Errorf("%w: vector_store.badger.path is required", ErrInvalidConfig)
		}
	case BackendPGVector:
		if c.VectorStore.PGVector.DSN == "" {
			return fmt.Errorf("%w: vector_store.pgvector.dsn is required (or set PG_DSN)", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown vector_store.type %q", ErrInvalidConfig, c.VectorStore.Type)
	}

	switch c.Metadata.Type {
	case BackendBadger:
		if c.Metadata.Badger.Path == "" && !c.Metadata.Badger.InMemory {
			return fmt.Errorf("%w: metadata.badger.path is required", ErrInvalidConfig)
		}
	case BackendMongo:
		if c.Metadata.Mongo.URI == "" {
			return fmt.Errorf("%w: metadata.mongo.uri is required (or set MONGO_URI)", ErrInvalidConfig)
		}
		if c.Metadata.Mongo.Database == "" {
			return fmt.Errorf("%w: metadata.mongo.database is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown metadata.type %q", ErrInvalidConfig, c.Metadata.Type)
	}

	in := c.Ingestion
	if _, err := chunking.ParseUnit(in.ChunkUnit); err != nil {
		return fmt.Errorf("%w: ingestion.chunk_unit: %w", ErrInvalidConfig, err)
	}
	if in.ChunkSize <= 0 || in.Overlap < 0 || in.Overlap >= in.ChunkSize {
		return fmt.Errorf("%w: ingestion needs chunk_size > overlap >= 0, got %d and %d",
			ErrInvalidConfig, in.ChunkSize, in.Overlap)
	}
	if in.BatchSize < 1 {
		return fmt.Errorf("%w: ingestion.batch_size must be at least 1", ErrInvalidConfig)
	}
	if in.MaxRetries < 0 {
		return fmt.Errorf("%w: ingestion.max_retries must not be negative", ErrInvalidConfig)
	}
	if in.RetryUnit <= 0 {
		return fmt.Errorf("%w: ingestion.retry_unit must be positive", ErrInvalidConfig)
	}
	return nil
}
