package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/verdict/core"
)

// FormatKind says how a judgment record was produced.
type FormatKind int

const (
	// Formatted means the model produced the record.
	Formatted FormatKind = iota
	// Raw means the record is a direct mapping of the input.
	Raw
)

func (k FormatKind) String() string {
	switch k {
	case Formatted:
		return "formatted"
	case Raw:
		return "raw"
	default:
		return fmt.Sprintf("FormatKind(%d)", int(k))
	}
}

// FormatResult is the outcome of formatting one classifier object.
type FormatResult struct {
	Kind     FormatKind
	Judgment *core.Judgment
	// Err is the reason formatting fell back to Raw. Nil when Kind is Formatted.
	Err error
}

// Field aliases accepted in classifier output. The classifier has emitted
// both snake_case and camelCase over time.
var judgmentAliases = map[string][]string{
	"source":          {"source", "pdf_file_name", "file_name", "fileName", "filename"},
	"case_name":       {"case_name", "caseName", "name"},
	"case_number":     {"case_number", "caseNumber"},
	"court":           {"court"},
	"case_type":       {"case_type", "caseType"},
	"judgment_date":   {"judgment_date", "judgmentDate", "date"},
	"judges":          {"judges"},
	"case_subtype":    {"case_subtype", "caseSubType", "caseSubtype"},
	"outcome_tags":    {"outcome_tags", "outcomeTags"},
	"labor_tags":      {"labor_tags", "laborTags", "labour_tags"},
	"compliance_list": {"compliance_list", "complianceList"},
	"summary":         {"summary"},
}

// JudgmentFromRaw maps a classifier object directly onto a judgment.
// Unknown keys are ignored. Formatted is false.
func JudgmentFromRaw(raw map[string]any) *core.Judgment {
	j := &core.Judgment{
		Source:         lookupString(raw, "source"),
		CaseName:       lookupString(raw, "case_name"),
		CaseNumber:     lookupString(raw, "case_number"),
		Court:          lookupString(raw, "court"),
		CaseType:       strings.ToLower(lookupString(raw, "case_type")),
		JudgmentDate:   lookupString(raw, "judgment_date"),
		Judges:         lookupList(raw, "judges"),
		CaseSubtypes:   lookupList(raw, "case_subtype"),
		OutcomeTags:    lookupList(raw, "outcome_tags"),
		LaborTags:      lookupList(raw, "labor_tags"),
		ComplianceList: lookupList(raw, "compliance_list"),
		Summary:        lookupString(raw, "summary"),
	}
	now := time.Now().UTC()
	j.InsertedAt = now
	j.UpdatedAt = now
	return j
}

func lookup(raw map[string]any, field string) (any, bool) {
	for _, key := range judgmentAliases[field] {
		if v, ok := raw[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookupString(raw map[string]any, field string) string {
	v, ok := lookup(raw, field)
	if !ok {
		return ""
	}
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		return strings.Join(toStrings(v), ", ")
	default:
		return fmt.Sprint(v)
	}
}

// lookupList accepts a JSON array or a comma separated string.
func lookupList(raw map[string]any, field string) []string {
	v, ok := lookup(raw, field)
	if !ok {
		return nil
	}
	switch v := v.(type) {
	case []any:
		return toStrings(v)
	case []string:
		return toStrings(anySlice(v))
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

func toStrings(v []any) []string {
	out := make([]string, 0, len(v))
	for _, item := range v {
		if item == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(item))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func anySlice(v []string) []any {
	out := make([]any, len(v))
	for i, s := range v {
		out[i] = s
	}
	return out
}
