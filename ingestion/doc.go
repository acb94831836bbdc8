// Package ingestion writes chunked, embedded documents to a vector store.
//
// The core is UpsertBatched: records are partitioned into consecutive
// batches that are written strictly in order. Transient store errors are
// retried with exponential backoff; anything else fails the batch at once,
// and the first failed batch stops the run without rolling back earlier
// batches. Every batch moves through PENDING, SENDING and then ACKED,
// RETRY_WAIT or FAILED, observable through an UpsertMonitor.
//
// EnsureCollection applies the collection lifecycle policy: destructive
// refresh or create-if-absent, with existing collections checked against
// the expected dimensionality.
//
// Pipeline ties the pieces together for whole documents:
//
//	chunker, _ := chunking.NewChunker(200, 50)
//	p, err := ingestion.NewPipeline(store, embedder, chunker,
//	    ingestion.DefaultConfig(core.CollectionSpec{Name: "judgments", Dimensions: 1536}),
//	    ingestion.WithLedger(ledger),
//	    ingestion.WithJudgments(judgments),
//	    ingestion.WithMonitor(ingestion.NewProgressTracker(os.Stderr, 0, 100)),
//	)
//	report, err := p.Run(ctx, docs)
//
// Processing is sequential; the only suspension points are backoff sleeps.
package ingestion
