package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/verdict/ai"
	"github.com/poiesic/verdict/core"
	"github.com/poiesic/verdict/vectorstore"
)

// DefaultEmbedBatchSize is the number of chunks sent per embedding call.
const DefaultEmbedBatchSize = 32

// embeddingProcessor turns chunks into vector records.
type embeddingProcessor struct {
	embedder   ai.Embedder
	groupSize  int
	dimensions int
	logger     *slog.Logger
}

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(embedder ai.Embedder, groupSize, dimensions int, logger *slog.Logger) (*embeddingProcessor, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimensions, dimensions)
	}
	if groupSize < 1 {
		groupSize = DefaultEmbedBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		embedder:   embedder,
		groupSize:  groupSize,
		dimensions: dimensions,
		logger:     logger.With("processor", "embeddings"),
	}, nil
}

// process embeds chunks in groups and returns records in chunk order plus
// the number of chunks dropped. When a group call fails, its chunks are
// embedded one by one and only the failing ones are dropped.
//
// A wrong-length embedding or a cancelled context is returned as an error.
func (ep *embeddingProcessor) process(ctx context.Context, chunks []*core.Chunk) ([]*core.VectorRecord, int, error) {
	records := make([]*core.VectorRecord, 0, len(chunks))
	skipped := 0

	for start := 0; start < len(chunks); start += ep.groupSize {
		group := chunks[start:min(start+ep.groupSize, len(chunks))]

		texts := make([]string, len(group))
		for i, c := range group {
			texts[i] = c.Text
		}

		ep.logger.Debug("generating embeddings for chunks", "chunks", len(texts))
		vectors, err := ep.embedder.EmbedTexts(ctx, texts)
		if err == nil && len(vectors) != len(group) {
			err = fmt.Errorf("embedding result mismatch. expected %d, received %d", len(group), len(vectors))
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return records, skipped, ctxErr
			}
			if errors.Is(err, ai.ErrUnexpectedDimensions) {
				return records, skipped, dimensionError(err)
			}
			ep.logger.Warn("batch embedding failed, embedding chunks individually", "chunks", len(group), "err", err)
			vectors = make([][]float32, len(group))
			for i, c := range group {
				v, err := ep.embedder.EmbedText(ctx, c.Text)
				if err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil {
						return records, skipped, ctxErr
					}
					if errors.Is(err, ai.ErrUnexpectedDimensions) {
						return records, skipped, dimensionError(err)
					}
					ep.logger.Warn("dropping chunk", "source", c.Source, "chunk_index", c.Index, "err", err)
				}
				vectors[i] = v
			}
		}

		for i, c := range group {
			v := vectors[i]
			if len(v) == 0 {
				skipped++
				continue
			}
			if len(v) != ep.dimensions {
				return records, skipped, vectorstore.Permanent(fmt.Errorf("%w: chunk %d of %s has %d dimensions, collection expects %d",
					vectorstore.ErrDimensionMismatch, c.Index, c.Source, len(v), ep.dimensions))
			}
			records = append(records, core.NewVectorRecord(c, v))
		}
	}

	return records, skipped, nil
}

// dimensionError marks an embedder's wrong-length result as a fatal
// mismatch with the collection.
func dimensionError(err error) error {
	return vectorstore.Permanent(fmt.Errorf("%w: %w", vectorstore.ErrDimensionMismatch, err))
}
