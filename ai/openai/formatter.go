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

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/verdict/ai"
	"github.com/poiesic/verdict/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const maxFormatAttempts = 3

// Formatter implements ai.Formatter using OpenAI-compatible chat APIs.
type Formatter struct {
	client llms.Model
	logger *slog.Logger
}

// newFormatter is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newFormatter(config *ai.Config) (*Formatter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.FormatterHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.FormatterModel),
	)
	if err != nil {
		return nil, err
	}

	return newFormatterWithModel(client), nil
}

func newFormatterWithModel(client llms.Model) *Formatter {
	return &Formatter{
		client: client,
		logger: slog.Default().With("component", "openai-formatter"),
	}
}

// NewFormatter creates a new judgment formatter using the provided configuration.
//
// Returns ai.Formatter interface to enforce abstraction.
func NewFormatter(config *ai.Config) (ai.Formatter, error) {
	return newFormatter(config)
}

// FormatJudgment asks the model to normalize raw classifier output.
// Malformed JSON is retried up to three times; transport errors fall back
// immediately. Fallback results have Kind ai.Raw and carry the cause.
func (f *Formatter) FormatJudgment(ctx context.Context, raw map[string]any) ai.FormatResult {
	fallback := func(err error) ai.FormatResult {
		j := ai.JudgmentFromRaw(raw)
		f.logger.Warn("storing raw judgment", "source", j.Source, "err", err)
		return ai.FormatResult{Kind: ai.Raw, Judgment: j, Err: err}
	}

	input, err := json.Marshal(raw)
	if err != nil {
		return fallback(fmt.Errorf("encode input: %w", err))
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildSystemPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(buildUserPrompt(string(input)))},
		},
	}

	var parsed map[string]any
	var lastErr error
	for attempt := 0; attempt < maxFormatAttempts; attempt++ {
		response, err := f.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			f.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return fallback(err)
		}

		if len(response.Choices) < 1 || response.Choices[0].Content == "" {
			return fallback(ai.ErrEmptyResponse)
		}

		responseText := repairJSON(stripCodeFence(response.Choices[0].Content))
		parsed = nil
		if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
			lastErr = fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
			f.logger.Warn("error parsing formatter response",
				"attempt", attempt+1,
				"response", truncate(responseText, 200),
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		return fallback(lastErr)
	}

	judgment := ai.JudgmentFromRaw(parsed)
	if judgment.Source == "" {
		// The model is not trusted to echo the file name.
		judgment.Source = ai.JudgmentFromRaw(raw).Source
	}
	if err := core.ValidateJudgment(judgment); err != nil {
		return fallback(err)
	}
	judgment.Formatted = true

	f.logger.Debug("formatted judgment", "source", judgment.Source, "case_type", judgment.CaseType)
	return ai.FormatResult{Kind: ai.Formatted, Judgment: judgment}
}
