package mock

import (
	"context"
	"sync"

	"github.com/poiesic/verdict/ai"
)

// MockFormatter is a test double for ai.Formatter.
// It allows custom behavior injection via function fields.
type MockFormatter struct {
	// FormatJudgmentFunc is called by FormatJudgment if set.
	// If nil, maps the input directly and reports it as formatted.
	FormatJudgmentFunc func(ctx context.Context, raw map[string]any) ai.FormatResult

	mu        sync.Mutex
	callCount int
}

// NewMockFormatter creates a mock formatter with default behavior.
func NewMockFormatter() *MockFormatter {
	return &MockFormatter{}
}

// FormatJudgment returns a Formatted result built with ai.JudgmentFromRaw.
func (m *MockFormatter) FormatJudgment(ctx context.Context, raw map[string]any) ai.FormatResult {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.FormatJudgmentFunc != nil {
		return m.FormatJudgmentFunc(ctx, raw)
	}

	j := ai.JudgmentFromRaw(raw)
	j.Formatted = true
	return ai.FormatResult{Kind: ai.Formatted, Judgment: j}
}

// CallCount returns the number of times FormatJudgment was called.
func (m *MockFormatter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockFormatter) Reset() {
	m.mu.Lock()
	m.callCount = 0
	m.mu.Unlock()
	m.FormatJudgmentFunc = nil
}
