package qdrant

import (
	"fmt"

	"github.com/poiesic/verdict/core"
	"github.com/qdrant/go-client/qdrant"
)

// toPayload converts metadata to Qdrant values.
func toPayload(m core.Metadata) (map[string]*qdrant.Value, error) {
	out := make(map[string]*qdrant.Value, len(m))
	for k, v := range m {
		switch v := v.(type) {
		case string:
			out[k] = stringValue(v)
		case int64:
			out[k] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: v}}
		case float64:
			out[k] = &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: v}}
		case bool:
			out[k] = &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: v}}
		case []string:
			values := make([]*qdrant.Value, len(v))
			for i, s := range v {
				values[i] = stringValue(s)
			}
			out[k] = &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: values}}}
		default:
			return nil, fmt.Errorf("%w: key %q has type %T", core.ErrUnsupportedValue, k, v)
		}
	}
	return out, nil
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

// fromPayload converts Qdrant values back to metadata. Lists of strings
// become []string; values of other shapes are rendered as strings.
func fromPayload(p map[string]*qdrant.Value) core.Metadata {
	out := make(core.Metadata, len(p))
	for k, v := range p {
		if val, ok := fromValue(v); ok {
			out[k] = val
		}
	}
	return out
}

func fromValue(v *qdrant.Value) (any, bool) {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue, true
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue, true
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue, true
	case *qdrant.Value_BoolValue:
		return kind.BoolValue, true
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		out := make([]string, 0, len(values))
		for _, item := range values {
			if s, ok := item.GetKind().(*qdrant.Value_StringValue); ok {
				out = append(out, s.StringValue)
			} else {
				out = append(out, item.String())
			}
		}
		return out, true
	case *qdrant.Value_NullValue, nil:
		return nil, false
	default:
		return v.String(), true
	}
}
