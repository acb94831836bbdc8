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

import "errors"

var (
	// ErrNoText is returned when a file yields no extractable text.
	ErrNoText = errors.New("no text extracted")

	// ErrUnsupportedFile is returned when no extractor handles a file's extension.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrPDFToolNotFound is returned when pdftotext is not installed.
	ErrPDFToolNotFound = errors.New("pdftotext not found in PATH (install poppler-utils)")

	// ErrDirRequired is returned when a Loader has no directory.
	ErrDirRequired = errors.New("directory required")
)
