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

package extract

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/verdict/core"
)

// DefaultPattern selects the files a Loader extracts.
const DefaultPattern = "*.pdf"

// Loader extracts every file under a directory whose base name matches a
// glob pattern.
type Loader struct {
	dir       string
	pattern   string
	limit     int
	recursive bool
	poolSize  int
	extractor Extractor
	logger    *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader) error

// WithPattern sets the glob matched against file base names.
// Default is DefaultPattern.
func WithPattern(pattern string) LoaderOption {
	return func(l *Loader) error {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		l.pattern = pattern
		return nil
	}
}

// WithLimit extracts at most n files, taken in path order. Zero means no limit.
func WithLimit(n int) LoaderOption {
	return func(l *Loader) error {
		if n < 0 {
			return fmt.Errorf("limit must not be negative, got %d", n)
		}
		l.limit = n
		return nil
	}
}

// WithRecursive controls whether subdirectories are searched. Default true.
func WithRecursive(recursive bool) LoaderOption {
	return func(l *Loader) error {
		l.recursive = recursive
		return nil
	}
}

// WithPoolSize sets the number of concurrent extractions.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) LoaderOption {
	return func(l *Loader) error {
		if size < 1 {
			size = 1
		}
		l.poolSize = size
		return nil
	}
}

// WithExtractor replaces DefaultExtractor.
func WithExtractor(e Extractor) LoaderOption {
	return func(l *Loader) error {
		if e != nil {
			l.extractor = e
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// NewLoader creates a loader for dir.
func NewLoader(dir string, opts ...LoaderOption) (*Loader, error) {
	if dir == "" {
		return nil, ErrDirRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	l := &Loader{
		dir:       dir,
		pattern:   DefaultPattern,
		recursive: true,
		poolSize:  poolSize,
		extractor: DefaultExtractor(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// LoadResult holds the extracted documents and the files that failed.
type LoadResult struct {
	// Documents in path order.
	Documents []*core.Document

	// Failures maps a file path to its extraction error.
	Failures map[string]error

	sources map[string]string
}

// FailuresBySource returns Failures keyed by the source name the document
// would have had.
func (r *LoadResult) FailuresBySource() map[string]error {
	out := make(map[string]error, len(r.Failures))
	for path, err := range r.Failures {
		source, ok := r.sources[path]
		if !ok {
			source = filepath.Base(path)
		}
		out[source] = err
	}
	return out
}

// FailedPaths returns the failed paths in sorted order.
func (r *LoadResult) FailedPaths() []string {
	paths := make([]string, 0, len(r.Failures))
	for p := range r.Failures {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Files lists the matching paths in sorted order, truncated to the limit.
func (l *Loader) Files() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != l.dir && !l.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		ok, err := filepath.Match(l.pattern, d.Name())
		if err != nil {
			return err
		}
		if ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", l.dir, err)
	}

	sort.Strings(paths)
	if l.limit > 0 && len(paths) > l.limit {
		paths = paths[:l.limit]
	}
	return paths, nil
}

// SourceName returns path relative to the loader directory with forward
// slashes, so files directly in the directory keep their base name and
// same-named files in different subdirectories stay distinct.
func (l *Loader) SourceName(path string) string {
	rel, err := filepath.Rel(l.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// Load extracts every matching file. Per-file errors are collected in the
// result; the returned error is set only when the directory cannot be
// walked, the pool cannot start, or ctx is cancelled.
func (l *Loader) Load(ctx context.Context) (*LoadResult, error) {
	paths, err := l.Files()
	if err != nil {
		return nil, err
	}
	l.logger.Info("extracting documents", "dir", l.dir, "pattern", l.pattern, "files", len(paths))

	pool, err := ants.NewPool(l.poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	docs := make([]*core.Document, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			docs[i], errs[i] = l.extractor.Extract(ctx, path)
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &LoadResult{Failures: map[string]error{}, sources: map[string]string{}}
	for i, path := range paths {
		source := l.SourceName(path)
		result.sources[path] = source
		if errs[i] != nil {
			l.logger.Warn("extraction failed", "path", path, "err", errs[i])
			result.Failures[path] = errs[i]
			continue
		}
		docs[i].Source = source
		result.Documents = append(result.Documents, docs[i])
	}
	return result, nil
}
