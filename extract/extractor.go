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
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/poiesic/verdict/core"
)

// Extractor reads the text of one file.
type Extractor interface {
	Extract(ctx context.Context, path string) (*core.Document, error)
}

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

const pdfTool = "pdftotext"

// CheckPDFTool reports whether pdftotext is on the PATH.
func CheckPDFTool() error {
	if _, err := exec.LookPath(pdfTool); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// PDFExtractor converts PDFs with `pdftotext -layout <file> -`.
type PDFExtractor struct {
	runner CommandRunner
}

// NewPDFExtractor returns an extractor that runs the installed pdftotext.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{runner: execRunner{}}
}

// NewPDFExtractorWithRunner returns an extractor using runner, for tests.
func NewPDFExtractorWithRunner(runner CommandRunner) *PDFExtractor {
	return &PDFExtractor{runner: runner}
}

// Extract converts the PDF at path.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (*core.Document, error) {
	out, err := e.runner.Run(ctx, pdfTool, "-layout", path, "-")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pdftotext failed for %s: %w", filepath.Base(path), err)
	}
	return newDocument(path, string(out))
}

// TextExtractor reads UTF-8 text files.
type TextExtractor struct{}

// Extract reads the file at path.
func (TextExtractor) Extract(ctx context.Context, path string) (*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return newDocument(path, string(data))
}

// ByExtension dispatches on the lowercased file extension.
type ByExtension map[string]Extractor

// DefaultExtractor handles .pdf with pdftotext and .txt as plain text.
func DefaultExtractor() ByExtension {
	return ByExtension{
		".pdf": NewPDFExtractor(),
		".txt": TextExtractor{},
	}
}

// Extract picks the extractor registered for path's extension.
func (b ByExtension) Extract(ctx context.Context, path string) (*core.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := b[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}
	return e.Extract(ctx, path)
}

// newDocument names the document after the file. A Loader replaces Source
// with the path relative to its directory.
func newDocument(path, raw string) (*core.Document, error) {
	text := cleanText(raw)
	if text == "" {
		return nil, ErrNoText
	}
	return &core.Document{
		Source:      filepath.Base(path),
		Path:        path,
		Text:        text,
		Fingerprint: core.Fingerprint(text),
	}, nil
}

// cleanText turns page breaks into blank lines, strips trailing spaces
// from each line and trims the result.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "\n\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
