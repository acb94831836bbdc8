package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`  {"a":1}  `))
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid", `{"case_type":"civil"}`, `{"case_type":"civil"}`},
		{"missing key quote", `{"court":"Supreme Court", case_type":"civil"}`, `{"court":"Supreme Court", "case_type":"civil"}`},
		{"missing first key quote", `{ source":"a.pdf"}`, `{ "source":"a.pdf"}`},
		{"trailing comma object", `{"a":"x",}`, `{"a":"x"}`},
		{"trailing comma array", `{"judges":["A","B", ]}`, `{"judges":["A","B" ]}`},
		{"comma inside string", `{"summary":"costs, ]"}`, `{"summary":"costs, ]"}`},
		{"escaped quote", `{"summary":"said \"no\",}"}`, `{"summary":"said \"no\",}"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repairJSON(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, json.Valid([]byte(got)), "repaired JSON should parse: %s", got)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}
