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

package chunking

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/verdict/core"
)

// DefaultMinLength is the minimum viable window length in characters.
const DefaultMinLength = 100

// PayloadTotalChunks is the chunk metadata key holding the number of
// chunks the source document produced.
const PayloadTotalChunks = "total_chunks"

// Unit selects what a window's size and overlap count.
type Unit string

const (
	UnitWords Unit = "words"
	UnitChars Unit = "chars"
)

// ParseUnit converts a configuration string to a Unit.
func ParseUnit(s string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(s))) {
	case "", UnitWords:
		return UnitWords, nil
	case UnitChars, "characters":
		return UnitChars, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
}

// Window is one chunk of text. Start and End are offsets in units
// (words or characters) into the input, End exclusive.
type Window struct {
	Start int
	End   int
	Text  string
}

type options struct {
	unit      Unit
	minLength int
}

// Option configures ChunkText and Chunker.
type Option func(*options)

// WithUnit selects words or characters as the window unit.
func WithUnit(u Unit) Option {
	return func(o *options) {
		o.unit = u
	}
}

// WithMinLength sets the minimum window length in characters.
// Zero keeps every window.
func WithMinLength(n int) Option {
	return func(o *options) {
		o.minLength = n
	}
}

func buildOptions(opts []Option) options {
	o := options{unit: UnitWords, minLength: DefaultMinLength}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ChunkText splits raw into windows of size units, consecutive windows
// sharing overlap units. Windows are returned in document order with
// strictly increasing starts. Windows shorter than the minimum length are
// dropped; empty input yields no windows.
func ChunkText(raw string, size, overlap int, opts ...Option) ([]Window, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d, size %d", ErrInvalidOverlap, overlap, size)
	}
	o := buildOptions(opts)

	var (
		units []string
		sep   string
	)
	switch o.unit {
	case UnitWords:
		units = strings.Fields(raw)
		sep = " "
	case UnitChars:
		units = strings.Split(raw, "")
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidUnit, o.unit)
	}

	step := size - overlap
	var windows []Window
	for start := 0; start < len(units); start += step {
		end := min(start+size, len(units))
		text := strings.Join(units[start:end], sep)
		if utf8.RuneCountInString(strings.TrimSpace(text)) < o.minLength {
			continue
		}
		windows = append(windows, Window{Start: start, End: end, Text: text})
	}
	return windows, nil
}

// Chunker turns documents into chunks using fixed parameters.
type Chunker struct {
	size    int
	overlap int
	opts    []Option
}

// NewChunker validates the parameters and returns a Chunker.
func NewChunker(size, overlap int, opts ...Option) (*Chunker, error) {
	// Validate eagerly so a bad configuration fails before any document is read.
	if _, err := ChunkText("", size, overlap, opts...); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap, opts: opts}, nil
}

// Chunk splits doc into chunks. Every chunk carries a copy of metadata
// plus the total number of chunks produced for the document.
func (c *Chunker) Chunk(doc *core.Document, metadata core.Metadata) ([]*core.Chunk, error) {
	windows, err := ChunkText(doc.Text, c.size, c.overlap, c.opts...)
	if err != nil {
		return nil, err
	}

	chunks := make([]*core.Chunk, 0, len(windows))
	for i, w := range windows {
		meta := metadata.Clone()
		meta[PayloadTotalChunks] = int64(len(windows))
		chunks = append(chunks, &core.Chunk{
			Text:     w.Text,
			Source:   doc.Source,
			Index:    i,
			Metadata: meta,
		})
	}
	return chunks, nil
}
