package core

import (
	"encoding/hex"
	"maps"
	"slices"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// Reserved payload keys written for every chunk.
const (
	PayloadText       = "text"
	PayloadSource     = "source"
	PayloadChunkIndex = "chunk_index"
)

// NewRecordID returns a fresh random identifier for a vector record.
// Identifiers are never derived from content, so re-ingesting a document
// produces new points rather than overwriting old ones.
func NewRecordID() string {
	return uuid.NewString()
}

// Fingerprint returns a stable hex-encoded BLAKE2b-256 digest of text.
// It identifies document content for the ingestion ledger.
func Fingerprint(text string) string {
	h, _ := blake2b.New(32, nil) // 32 bytes = 256 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Metadata is a flat bag of payload attributes.
// Values are restricted to string, int64, float64, bool and []string.
type Metadata map[string]any

// Clone returns a copy of m. Slice values are copied too.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		if s, ok := v.([]string); ok {
			v = slices.Clone(s)
		}
		out[k] = v
	}
	return out
}

// Merge returns a new Metadata holding m overlaid with other.
func (m Metadata) Merge(other Metadata) Metadata {
	out := m.Clone()
	maps.Copy(out, other.Clone())
	return out
}

// Keys returns the metadata keys in sorted order.
func (m Metadata) Keys() []string {
	return slices.Sorted(maps.Keys(m))
}

// Document is the extracted text of a single source file.
type Document struct {
	Source      string // file name, used as the join key with judgment metadata
	Path        string
	Text        string
	Fingerprint string
}

// Chunk is one window of document text.
// Chunks are immutable once produced.
type Chunk struct {
	Text     string
	Source   string
	Index    int
	Metadata Metadata
}

// Payload builds the stored payload for the chunk: every metadata key plus
// the chunk's own text, source and position.
func (c *Chunk) Payload() Metadata {
	p := c.Metadata.Clone()
	p[PayloadText] = c.Text
	p[PayloadSource] = c.Source
	p[PayloadChunkIndex] = int64(c.Index)
	return p
}

// VectorRecord is the unit persisted in a vector collection.
type VectorRecord struct {
	ID      string
	Vector  []float32
	Payload Metadata
}

// NewVectorRecord pairs a chunk with its embedding under a fresh ID.
func NewVectorRecord(chunk *Chunk, vector []float32) *VectorRecord {
	return &VectorRecord{
		ID:      NewRecordID(),
		Vector:  vector,
		Payload: chunk.Payload(),
	}
}

// Text returns the text stored in the record payload, if any.
func (r *VectorRecord) Text() string {
	s, _ := r.Payload[PayloadText].(string)
	return s
}

// Distance is the similarity metric of a collection.
type Distance string

const (
	DistanceCosine Distance = "cosine"
	DistanceDot    Distance = "dot"
	DistanceEuclid Distance = "euclid"
)

// CollectionSpec describes a named vector collection.
type CollectionSpec struct {
	Name       string
	Dimensions int
	Distance   Distance
}

// CollectionInfo is the observed state of an existing collection.
type CollectionInfo struct {
	CollectionSpec
	Count uint64
}

// Matches reports whether the collection was created with the same
// dimensionality and distance as spec.
func (ci *CollectionInfo) Matches(spec CollectionSpec) bool {
	return ci.Dimensions == spec.Dimensions && ci.Distance == spec.Distance
}

// ScoredRecord is a similarity search hit.
type ScoredRecord struct {
	ID      string
	Score   float32
	Payload Metadata
}

// Text returns the chunk text carried in the hit payload.
func (r *ScoredRecord) Text() string {
	s, _ := r.Payload[PayloadText].(string)
	return s
}

// Source returns the source document carried in the hit payload.
func (r *ScoredRecord) Source() string {
	s, _ := r.Payload[PayloadSource].(string)
	return s
}

// Judgment holds structured metadata about one court judgment.
// Source is the judgment's file name and joins it to extracted text.
type Judgment struct {
	Source         string    `json:"source" bson:"source"`
	Fingerprint    string    `json:"fingerprint,omitempty" bson:"fingerprint,omitempty"`
	CaseName       string    `json:"case_name,omitempty" bson:"case_name,omitempty"`
	CaseNumber     string    `json:"case_number,omitempty" bson:"case_number,omitempty"`
	Court          string    `json:"court,omitempty" bson:"court,omitempty"`
	CaseType       string    `json:"case_type,omitempty" bson:"case_type,omitempty"`
	JudgmentDate   string    `json:"judgment_date,omitempty" bson:"judgment_date,omitempty"`
	Judges         []string  `json:"judges,omitempty" bson:"judges,omitempty"`
	CaseSubtypes   []string  `json:"case_subtype,omitempty" bson:"case_subtype,omitempty"`
	OutcomeTags    []string  `json:"outcome_tags,omitempty" bson:"outcome_tags,omitempty"`
	LaborTags      []string  `json:"labor_tags,omitempty" bson:"labor_tags,omitempty"`
	ComplianceList []string  `json:"compliance_list,omitempty" bson:"compliance_list,omitempty"`
	Summary        string    `json:"summary,omitempty" bson:"summary,omitempty"`
	Formatted      bool      `json:"formatted" bson:"formatted"`
	InsertedAt     time.Time `json:"inserted_at" bson:"inserted_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// Metadata flattens the judgment into chunk payload attributes.
// Empty fields are omitted.
func (j *Judgment) Metadata() Metadata {
	m := Metadata{}
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	putList := func(k string, v []string) {
		if len(v) > 0 {
			m[k] = slices.Clone(v)
		}
	}
	put("case_name", j.CaseName)
	put("case_number", j.CaseNumber)
	put("court", j.Court)
	put("case_type", j.CaseType)
	put("judgment_date", j.JudgmentDate)
	put("summary", j.Summary)
	putList("judges", j.Judges)
	putList("case_subtype", j.CaseSubtypes)
	putList("outcome_tags", j.OutcomeTags)
	putList("labor_tags", j.LaborTags)
	putList("compliance_list", j.ComplianceList)
	return m
}

// LedgerEntry records that a document's records were acknowledged by a
// collection.
type LedgerEntry struct {
	Collection  string
	Fingerprint string
	Source      string
	Records     int
	IngestedAt  time.Time
}
