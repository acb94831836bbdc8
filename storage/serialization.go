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

package storage

import (
	"fmt"

	"github.com/poiesic/verdict/core"
)

// formatVersion prefixes every encoded value.
const formatVersion = 1

func newEncoder() *encoder {
	e := &encoder{buf: make([]byte, 0, 256)}
	e.int(formatVersion)
	return e
}

func newDecoder(data []byte) *decoder {
	d := &decoder{bs: data}
	if v := d.int(); d.err == nil && v != formatVersion {
		d.err = fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	return d
}

// MarshalJudgment serializes a Judgment to bytes.
func MarshalJudgment(j *core.Judgment) []byte {
	e := newEncoder()
	e.string(j.Source)
	e.string(j.Fingerprint)
	e.string(j.CaseName)
	e.string(j.CaseNumber)
	e.string(j.Court)
	e.string(j.CaseType)
	e.string(j.JudgmentDate)
	e.strings(j.Judges)
	e.strings(j.CaseSubtypes)
	e.strings(j.OutcomeTags)
	e.strings(j.LaborTags)
	e.strings(j.ComplianceList)
	e.string(j.Summary)
	e.bool(j.Formatted)
	e.time(j.InsertedAt)
	e.time(j.UpdatedAt)
	return e.buf
}

// UnmarshalJudgment deserializes a Judgment from bytes.
func UnmarshalJudgment(data []byte) (*core.Judgment, error) {
	d := newDecoder(data)
	j := &core.Judgment{
		Source:         d.string(),
		Fingerprint:    d.string(),
		CaseName:       d.string(),
		CaseNumber:     d.string(),
		Court:          d.string(),
		CaseType:       d.string(),
		JudgmentDate:   d.string(),
		Judges:         d.strings(),
		CaseSubtypes:   d.strings(),
		OutcomeTags:    d.strings(),
		LaborTags:      d.strings(),
		ComplianceList: d.strings(),
		Summary:        d.string(),
		Formatted:      d.bool(),
		InsertedAt:     d.time(),
		UpdatedAt:      d.time(),
	}
	if d.err != nil {
		return nil, d.err
	}
	return j, nil
}

// MarshalLedgerEntry serializes a LedgerEntry to bytes.
func MarshalLedgerEntry(entry *core.LedgerEntry) []byte {
	e := newEncoder()
	e.string(entry.Collection)
	e.string(entry.Fingerprint)
	e.string(entry.Source)
	e.int(entry.Records)
	e.time(entry.IngestedAt)
	return e.buf
}

// UnmarshalLedgerEntry deserializes a LedgerEntry from bytes.
func UnmarshalLedgerEntry(data []byte) (*core.LedgerEntry, error) {
	d := newDecoder(data)
	entry := &core.LedgerEntry{
		Collection:  d.string(),
		Fingerprint: d.string(),
		Source:      d.string(),
		Records:     d.int(),
		IngestedAt:  d.time(),
	}
	if d.err != nil {
		return nil, d.err
	}
	return entry, nil
}

// MarshalVectorRecord serializes a VectorRecord to bytes.
// Fails if the payload holds a value of an unsupported type.
func MarshalVectorRecord(record *core.VectorRecord) ([]byte, error) {
	e := newEncoder()
	e.string(record.ID)
	e.vector(record.Vector)
	if err := e.metadata(record.Payload); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// UnmarshalVectorRecord deserializes a VectorRecord from bytes.
func UnmarshalVectorRecord(data []byte) (*core.VectorRecord, error) {
	d := newDecoder(data)
	record := &core.VectorRecord{
		ID:      d.string(),
		Vector:  d.vector(),
		Payload: d.metadata(),
	}
	if d.err != nil {
		return nil, d.err
	}
	return record, nil
}

// MarshalCollectionSpec serializes a CollectionSpec to bytes.
func MarshalCollectionSpec(spec core.CollectionSpec) []byte {
	e := newEncoder()
	e.string(spec.Name)
	e.int(spec.Dimensions)
	e.string(string(spec.Distance))
	return e.buf
}

// UnmarshalCollectionSpec deserializes a CollectionSpec from bytes.
func UnmarshalCollectionSpec(data []byte) (core.CollectionSpec, error) {
	d := newDecoder(data)
	spec := core.CollectionSpec{
		Name:       d.string(),
		Dimensions: d.int(),
		Distance:   core.Distance(d.string()),
	}
	if d.err != nil {
		return core.CollectionSpec{}, d.err
	}
	return spec, nil
}
