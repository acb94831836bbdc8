package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/poiesic/verdict"
	"github.com/poiesic/verdict/chunking"
	"github.com/poiesic/verdict/extract"
	"github.com/poiesic/verdict/ingestion"
	"github.com/poiesic/verdict/search"
	"github.com/urfave/cli/v2"
)

func ingestCommand(c *cli.Context) error {
	return withWorkspace(c, func(ws *verdict.Workspace) error {
		ctx := c.Context
		out := c.App.Writer

		var loaderOpts []extract.LoaderOption
		if c.IsSet("limit") {
			loaderOpts = append(loaderOpts, extract.WithLimit(c.Int("limit")))
		}
		loader, err := ws.NewLoader(c.String("dir"), loaderOpts...)
		if err != nil {
			return err
		}
		loaded, err := loader.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load documents: %w", err)
		}
		for _, path := range loaded.FailedPaths() {
			fmt.Fprintf(out, "extraction failed: %s: %v\n", path, loaded.Failures[path])
		}

		pc := ws.PipelineConfig()
		pc.Destructive = c.Bool("destructive")
		pc.SkipIngested = c.Bool("skip-ingested")

		opts := []ingestion.Option{ingestion.WithExtractionFailures(loaded.FailuresBySource())}
		if caseType := c.String("case-type"); caseType != "" {
			opts = append(opts, ingestion.WithCaseType(caseType))
		}
		if path := c.String("report"); path != "" {
			opts = append(opts, ingestion.WithReportPath(path))
		}
		var tracker *ingestion.ProgressTracker
		if c.Bool("progress") {
			tracker = ingestion.NewProgressTracker(c.App.ErrWriter, 0, pc.BatchSize)
			opts = append(opts, ingestion.WithMonitor(tracker))
		}

		pipeline, err := ws.NewPipeline(pc, opts...)
		if err != nil {
			return err
		}

		if tracker != nil {
			tracker.Start()
		}
		report, runErr := pipeline.Run(ctx, loaded.Documents)
		if tracker != nil {
			tracker.Finish()
		}
		if report != nil {
			fmt.Fprintln(out, report.Summary())
		}
		if errors.Is(runErr, ingestion.ErrNoDocuments) {
			return fmt.Errorf("no documents extracted from %s", c.String("dir"))
		}
		return runErr
	})
}

func collectionEnsureCommand(c *cli.Context) error {
	return withWorkspace(c, func(ws *verdict.Workspace) error {
		if err := ws.EnsureCollection(c.Context, c.Bool("destructive")); err != nil {
			return err
		}
		if c.Bool("destructive") {
			if _, err := ws.LedgerRepository().ClearCollection(c.Context, ws.Collection().Name); err != nil {
				return err
			}
		}
		return printCollection(c, ws)
	})
}

func collectionDropCommand(c *cli.Context) error {
	return withWorkspace(c, func(ws *verdict.Workspace) error {
		if err := ws.DropCollection(c.Context); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Dropped collection %s\n", ws.Collection().Name)
		return nil
	})
}

func collectionInfoCommand(c *cli.Context) error {
	return withWorkspace(c, func(ws *verdict.Workspace) error {
		return printCollection(c, ws)
	})
}

func printCollection(c *cli.Context, ws *verdict.Workspace) error {
	info, err := ws.DescribeCollection(c.Context)
	if verdict.IsNotFound(err) {
		return fmt.Errorf("collection %s does not exist", ws.Collection().Name)
	}
	if err != nil {
		return err
	}
	out := c.App.Writer
	fmt.Fprintf(out, "Collection: %s\n", info.Name)
	fmt.Fprintf(out, "Dimensions: %d\n", info.Dimensions)
	fmt.Fprintf(out, "Distance:   %s\n", info.Distance)
	fmt.Fprintf(out, "Records:    %d\n", info.Count)
	if !info.Matches(ws.Collection()) {
		fmt.Fprintf(out, "Warning: configured as %d dimensions, %s\n", ws.Collection().Dimensions, ws.Collection().Distance)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("a query is required")
	}

	return withWorkspace(c, func(ws *verdict.Workspace) error {
		searcher, err := ws.NewSearcher(search.WithMinScore(float32(c.Float64("min-score"))))
		if err != nil {
			return err
		}

		start := time.Now()
		results, err := searcher.FindSimilar(c.Context, ws.Collection().Name, query, c.Int("limit"))
		if err != nil {
			return err
		}

		out := c.App.Writer
		fmt.Fprintf(out, "Found %d hits in %s\n", len(results), formatDuration(time.Since(start)))
		for i, hit := range results {
			marker := ""
			if hit.Verbatim {
				marker = " *"
			}
			fmt.Fprintf(out, "%d: %s [%0.3f]%s\n", i+1, hit.Source(), hit.Score, marker)
			if j := hit.Judgment; j != nil {
				fmt.Fprintf(out, "   %s (%s, %s)\n", j.CaseName, j.CaseType, j.JudgmentDate)
			}
			fmt.Fprintf(out, "   %s\n", truncate(hit.Text(), 240))
		}
		return nil
	})
}

func metadataImportCommand(c *cli.Context) error {
	files := c.Args().Slice()
	if len(files) == 0 {
		return errors.New("at least one classifier JSON file is required")
	}

	return withWorkspace(c, func(ws *verdict.Workspace) error {
		out := c.App.Writer
		var formatted, raw, rejected int
		var errs []error

		for _, path := range files {
			records, err := verdict.ReadClassifierFile(path)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			result, err := ws.ImportJudgments(c.Context, records, c.Bool("format"))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
				if errors.Is(err, context.Canceled) {
					break
				}
				continue
			}

			formatted += result.Formatted
			raw += result.Raw
			rejected += len(result.Rejected)
			for key, reason := range result.Rejected {
				fmt.Fprintf(out, "rejected %s record %s: %v\n", path, key, reason)
			}
			fmt.Fprintf(out, "%s: %d stored (%d formatted, %d raw)\n", path, result.Stored(), result.Formatted, result.Raw)

			if c.Bool("delete") && len(result.Rejected) == 0 {
				if err := os.Remove(path); err != nil {
					errs = append(errs, err)
				}
			}
		}

		fmt.Fprintf(out, "Total: %d formatted, %d raw, %d rejected\n", formatted, raw, rejected)
		return errors.Join(errs...)
	})
}

func chunkCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("exactly one file is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	in := cfg.Ingestion
	unit, err := chunking.ParseUnit(in.ChunkUnit)
	if err != nil {
		return err
	}

	doc, err := extract.DefaultExtractor().Extract(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	windows, err := chunking.ChunkText(doc.Text, in.ChunkSize, in.Overlap,
		chunking.WithUnit(unit), chunking.WithMinLength(in.MinLength))
	if err != nil {
		return err
	}

	out := c.App.Writer
	fmt.Fprintf(out, "%s: %d windows (size %d, overlap %d %s)\n",
		doc.Source, len(windows), in.ChunkSize, in.Overlap, unit)
	for i, w := range windows {
		fmt.Fprintf(out, "[%d] %d-%d: %s\n", i, w.Start, w.End, truncate(w.Text, 120))
	}
	return nil
}

// truncate shortens s to at most n runes on one line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
