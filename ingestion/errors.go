package ingestion

import "errors"

var (
	// ErrInvalidDimensions is returned when a collection spec has no positive dimensionality.
	ErrInvalidDimensions = errors.New("collection dimensions must be positive")

	// ErrInvalidBatchSize is returned when BatchSize is less than 1.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")

	// ErrInvalidMaxRetries is returned when MaxRetries is negative.
	ErrInvalidMaxRetries = errors.New("max retries must not be negative")

	// ErrInvalidRetryUnit is returned when RetryUnit is negative.
	ErrInvalidRetryUnit = errors.New("retry unit must not be negative")

	// ErrStoreRequired is returned when a vector store is not provided.
	ErrStoreRequired = errors.New("vector store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrChunkerRequired is returned when a chunker is not provided.
	ErrChunkerRequired = errors.New("chunker required")

	// ErrNoChunks is recorded for a document that produced no viable chunk.
	ErrNoChunks = errors.New("document produced no chunks")

	// ErrNoDocuments is returned by Run when there is nothing to ingest.
	ErrNoDocuments = errors.New("no documents to ingest")
)
