package core

import (
	"errors"
	"testing"
)

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   &Chunk{Text: "The appeal is dismissed.", Source: "a.pdf", Index: 0},
			wantErr: nil,
		},
		{
			name: "valid chunk with metadata",
			chunk: &Chunk{
				Text:   "The appeal is dismissed.",
				Source: "a.pdf",
				Index:  3,
				Metadata: Metadata{
					"court":  "Court of Appeal",
					"judges": []string{"A", "B"},
					"year":   int64(2021),
				},
			},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "empty text",
			chunk:   &Chunk{Source: "a.pdf"},
			wantErr: ErrEmptyText,
		},
		{
			name:    "empty source",
			chunk:   &Chunk{Text: "x"},
			wantErr: ErrEmptySource,
		},
		{
			name:    "negative index",
			chunk:   &Chunk{Text: "x", Source: "a.pdf", Index: -1},
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "unsupported metadata",
			chunk:   &Chunk{Text: "x", Source: "a.pdf", Metadata: Metadata{"n": 3}},
			wantErr: ErrUnsupportedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateVectorRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *VectorRecord
		wantErr error
	}{
		{
			name:    "valid record",
			record:  &VectorRecord{ID: "id", Vector: []float32{1}, Payload: Metadata{"text": "x"}},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidRecord,
		},
		{
			name:    "missing id",
			record:  &VectorRecord{Vector: []float32{1}},
			wantErr: ErrEmptyID,
		},
		{
			name:    "missing vector",
			record:  &VectorRecord{ID: "id"},
			wantErr: ErrEmptyVector,
		},
		{
			name:    "bad payload",
			record:  &VectorRecord{ID: "id", Vector: []float32{1}, Payload: Metadata{"x": struct{}{}}},
			wantErr: ErrUnsupportedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVectorRecord(tt.record)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateVectorRecord() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateVectorRecord() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("ValidateVectorRecord() error = %v, want wrapped ErrInvalidRecord", err)
			}
		})
	}
}

func TestValidateCollectionSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    CollectionSpec
		wantErr error
	}{
		{"valid", CollectionSpec{Name: "judgments", Dimensions: 1536, Distance: DistanceCosine}, nil},
		{"empty distance defaults", CollectionSpec{Name: "judgments", Dimensions: 8}, nil},
		{"no name", CollectionSpec{Dimensions: 8}, ErrEmptyName},
		{"zero dimensions", CollectionSpec{Name: "c"}, ErrInvalidDimensions},
		{"bad distance", CollectionSpec{Name: "c", Dimensions: 8, Distance: "manhattan"}, ErrInvalidDistance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCollectionSpec(tt.spec)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCollectionSpec() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCollectionSpec() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateJudgment(t *testing.T) {
	if err := ValidateJudgment(&Judgment{Source: "a.pdf"}); err != nil {
		t.Errorf("ValidateJudgment() error = %v, want nil", err)
	}
	if err := ValidateJudgment(&Judgment{}); !errors.Is(err, ErrEmptySource) {
		t.Errorf("ValidateJudgment() error = %v, want %v", err, ErrEmptySource)
	}
	if err := ValidateJudgment(nil); !errors.Is(err, ErrInvalidJudgment) {
		t.Errorf("ValidateJudgment() error = %v, want %v", err, ErrInvalidJudgment)
	}
}

func TestParseDistance(t *testing.T) {
	tests := []struct {
		in      string
		want    Distance
		wantErr bool
	}{
		{"", DistanceCosine, false},
		{"Cosine", DistanceCosine, false},
		{"dot", DistanceDot, false},
		{"euclidean", DistanceEuclid, false},
		{"hamming", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDistance(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDistance(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDistance(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
