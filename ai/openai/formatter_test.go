package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/verdict/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel returns canned responses in order.
type fakeModel struct {
	responses []string
	err       error
	calls     int
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &llms.ContentResponse{}, nil
	}
	content := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

var rawInput = map[string]any{
	"pdf_file_name": "sc_appeal_12_2019.pdf",
	"caseType":      "Civil",
	"name":          "Perera v. Silva",
}

func TestFormatter_Formatted(t *testing.T) {
	model := &fakeModel{responses: []string{"```json\n" +
		`{"case_name":"Perera v. Silva","case_type":"civil","court":"Supreme Court","judges":["A. Fernando"],}` +
		"\n```"}}
	f := newFormatterWithModel(model)

	result := f.FormatJudgment(context.Background(), rawInput)

	require.Equal(t, ai.Formatted, result.Kind)
	require.NoError(t, result.Err)
	assert.Equal(t, "sc_appeal_12_2019.pdf", result.Judgment.Source, "source falls back to the input file name")
	assert.Equal(t, "Supreme Court", result.Judgment.Court)
	assert.Equal(t, []string{"A. Fernando"}, result.Judgment.Judges)
	assert.True(t, result.Judgment.Formatted)
	assert.Equal(t, 1, model.calls)
}

func TestFormatter_RetriesMalformedJSON(t *testing.T) {
	model := &fakeModel{responses: []string{
		`not json`,
		`{"source":"sc_appeal_12_2019.pdf","case_type":"civil"}`,
	}}
	f := newFormatterWithModel(model)

	result := f.FormatJudgment(context.Background(), rawInput)

	assert.Equal(t, ai.Formatted, result.Kind)
	assert.Equal(t, 2, model.calls)
}

func TestFormatter_RawAfterMalformedAttempts(t *testing.T) {
	model := &fakeModel{responses: []string{`{{{`}}
	f := newFormatterWithModel(model)

	result := f.FormatJudgment(context.Background(), rawInput)

	assert.Equal(t, ai.Raw, result.Kind)
	assert.ErrorIs(t, result.Err, ai.ErrMalformedResponse)
	assert.Equal(t, maxFormatAttempts, model.calls)
	assert.Equal(t, "sc_appeal_12_2019.pdf", result.Judgment.Source)
	assert.Equal(t, "civil", result.Judgment.CaseType)
	assert.False(t, result.Judgment.Formatted)
}

func TestFormatter_RawOnTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	model := &fakeModel{err: boom}
	f := newFormatterWithModel(model)

	result := f.FormatJudgment(context.Background(), rawInput)

	assert.Equal(t, ai.Raw, result.Kind)
	assert.ErrorIs(t, result.Err, boom)
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, "Perera v. Silva", result.Judgment.CaseName)
}

func TestFormatter_RawOnEmptyResponse(t *testing.T) {
	f := newFormatterWithModel(&fakeModel{})

	result := f.FormatJudgment(context.Background(), rawInput)

	assert.Equal(t, ai.Raw, result.Kind)
	assert.ErrorIs(t, result.Err, ai.ErrEmptyResponse)
}

func TestFormatter_RawWhenNoSourceAnywhere(t *testing.T) {
	model := &fakeModel{responses: []string{`{"case_type":"civil"}`}}
	f := newFormatterWithModel(model)

	result := f.FormatJudgment(context.Background(), map[string]any{"caseType": "civil"})

	assert.Equal(t, ai.Raw, result.Kind)
	assert.Error(t, result.Err)
}

func TestCheckDimensions(t *testing.T) {
	vectors := [][]float32{{1, 2, 3}, {4, 5, 6}}
	assert.NoError(t, checkDimensions(vectors, 0))
	assert.NoError(t, checkDimensions(vectors, 3))
	assert.ErrorIs(t, checkDimensions(vectors, 4), ai.ErrUnexpectedDimensions)
}
