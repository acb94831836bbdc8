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

package verdict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/poiesic/verdict/ai"
	"github.com/poiesic/verdict/core"
)

// ErrUnexpectedJSON is returned for a classifier file that is neither an
// object nor an array of objects.
var ErrUnexpectedJSON = errors.New("expected a JSON object or array of objects")

// ReadClassifierFile reads one classifier output file. A single object and
// an array of objects are both accepted.
func ReadClassifierFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrUnexpectedJSON)
	}

	switch data[0] {
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return []map[string]any{obj}, nil
	case '[':
		var list []map[string]any
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", path, ErrUnexpectedJSON, err)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnexpectedJSON)
	}
}

// ImportResult counts how imported judgments were produced.
type ImportResult struct {
	Formatted int
	Raw       int

	// Rejected holds records that could not be stored, keyed by position
	// in the input ("#3") or by source when one was found.
	Rejected map[string]error
}

// Stored returns the number of judgments written.
func (r *ImportResult) Stored() int {
	return r.Formatted + r.Raw
}

// ImportJudgments stores classifier records in the judgment repository.
// With format set each record goes through the AI formatter; a record the
// formatter cannot handle is stored as a raw mapping and counted as Raw.
// Without format every record is mapped directly.
func (ws *Workspace) ImportJudgments(ctx context.Context, records []map[string]any, format bool) (*ImportResult, error) {
	formatter := ws.provider.Formatter()
	result := &ImportResult{Rejected: map[string]error{}}
	judgments := make([]*core.Judgment, 0, len(records))

	for i, raw := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var res ai.FormatResult
		if format {
			res = formatter.FormatJudgment(ctx, raw)
		} else {
			res = ai.FormatResult{Kind: ai.Raw, Judgment: ai.JudgmentFromRaw(raw)}
		}

		key := fmt.Sprintf("#%d", i+1)
		if res.Judgment != nil && res.Judgment.Source != "" {
			key = res.Judgment.Source
		}
		if err := core.ValidateJudgment(res.Judgment); err != nil {
			result.Rejected[key] = err
			ws.logger.Warn("rejected judgment record", "record", key, "err", err)
			continue
		}
		if res.Kind == ai.Raw && res.Err != nil {
			ws.logger.Warn("judgment stored unformatted", "source", key, "err", res.Err)
		}

		judgments = append(judgments, res.Judgment)
		if res.Kind == ai.Formatted {
			result.Formatted++
		} else {
			result.Raw++
		}
	}

	if len(judgments) == 0 {
		return result, nil
	}
	if _, err := ws.judgments.SaveJudgments(ctx, judgments...); err != nil {
		result.Formatted, result.Raw = 0, 0
		return result, fmt.Errorf("save judgments: %w", err)
	}
	return result, nil
}
