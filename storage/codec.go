package storage

import (
	"fmt"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/verdict/core"
)

// Metadata value tags.
const (
	tagString byte = iota + 1
	tagInt64
	tagFloat64
	tagBool
	tagStrings
)

// encoder appends mus-encoded values to a growing buffer.
type encoder struct {
	buf []byte
}

// reserve extends the buffer by n bytes and returns the new tail.
func (e *encoder) reserve(n int) []byte {
	start := len(e.buf)
	e.buf = slices.Grow(e.buf, n)[:start+n]
	return e.buf[start:]
}

func (e *encoder) int(v int) {
	varint.Int.Marshal(v, e.reserve(varint.Int.Size(v)))
}

func (e *encoder) int64(v int64) {
	varint.Int64.Marshal(v, e.reserve(varint.Int64.Size(v)))
}

func (e *encoder) string(v string) {
	ord.String.Marshal(v, e.reserve(ord.String.Size(v)))
}

func (e *encoder) bool(v bool) {
	ord.Bool.Marshal(v, e.reserve(ord.Bool.Size(v)))
}

func (e *encoder) float64(v float64) {
	raw.Float64.Marshal(v, e.reserve(raw.Float64.Size(v)))
}

func (e *encoder) time(v time.Time) {
	if v.IsZero() {
		e.int64(0)
		return
	}
	e.int64(v.UnixMicro())
}

func (e *encoder) strings(v []string) {
	e.int(len(v))
	for _, s := range v {
		e.string(s)
	}
}

func (e *encoder) vector(v []float32) {
	e.int(len(v))
	for _, f := range v {
		raw.Float32.Marshal(f, e.reserve(raw.Float32.Size(f)))
	}
}

// metadata writes keys in sorted order so equal maps encode identically.
func (e *encoder) metadata(m core.Metadata) error {
	e.int(len(m))
	for _, k := range m.Keys() {
		e.string(k)
		switch v := m[k].(type) {
		case string:
			e.buf = append(e.buf, tagString)
			e.string(v)
		case int64:
			e.buf = append(e.buf, tagInt64)
			e.int64(v)
		case float64:
			e.buf = append(e.buf, tagFloat64)
			e.float64(v)
		case bool:
			e.buf = append(e.buf, tagBool)
			e.bool(v)
		case []string:
			e.buf = append(e.buf, tagStrings)
			e.strings(v)
		default:
			return fmt.Errorf("%w: %w: key %q has type %T", ErrSerializationFailed, core.ErrUnsupportedValue, k, v)
		}
	}
	return nil
}

// decoder consumes mus-encoded values. The first failure is latched in err
// and every later read returns a zero value.
type decoder struct {
	bs  []byte
	err error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
}

func (d *decoder) advance(n int, err error) bool {
	if err != nil {
		d.fail(err)
		return false
	}
	d.bs = d.bs[n:]
	return true
}

func (d *decoder) int() int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(d.bs)
	if !d.advance(n, err) {
		return 0
	}
	return v
}

// length reads a collection length and rejects values that cannot fit in
// the remaining input.
func (d *decoder) length() int {
	n := d.int()
	if n < 0 || n > len(d.bs) {
		d.fail(ErrTruncatedData)
		return 0
	}
	return n
}

func (d *decoder) int64() int64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(d.bs)
	if !d.advance(n, err) {
		return 0
	}
	return v
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.bs)
	if !d.advance(n, err) {
		return ""
	}
	return v
}

func (d *decoder) bool() bool {
	if d.err != nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(d.bs)
	if !d.advance(n, err) {
		return false
	}
	return v
}

func (d *decoder) float64() float64 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Float64.Unmarshal(d.bs)
	if !d.advance(n, err) {
		return 0
	}
	return v
}

func (d *decoder) time() time.Time {
	us := d.int64()
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

func (d *decoder) tag() byte {
	if d.err != nil {
		return 0
	}
	if len(d.bs) == 0 {
		d.fail(ErrTruncatedData)
		return 0
	}
	t := d.bs[0]
	d.bs = d.bs[1:]
	return t
}

func (d *decoder) strings() []string {
	n := d.length()
	if n == 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		out = append(out, d.string())
	}
	return out
}

func (d *decoder) vector() []float32 {
	n := d.length()
	if n == 0 {
		return nil
	}
	out := make([]float32, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		v, size, err := raw.Float32.Unmarshal(d.bs)
		if !d.advance(size, err) {
			return nil
		}
		out = append(out, v)
	}
	return out
}

func (d *decoder) metadata() core.Metadata {
	n := d.length()
	m := make(core.Metadata, n)
	for i := 0; i < n && d.err == nil; i++ {
		k := d.string()
		switch t := d.tag(); t {
		case tagString:
			m[k] = d.string()
		case tagInt64:
			m[k] = d.int64()
		case tagFloat64:
			m[k] = d.float64()
		case tagBool:
			m[k] = d.bool()
		case tagStrings:
			m[k] = d.strings()
		default:
			if d.err == nil {
				d.fail(fmt.Errorf("unknown metadata tag %d", t))
			}
		}
	}
	return m
}
