package openai

import "fmt"

const judgmentResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "source":          {"type": "string"},
    "case_name":       {"type": "string"},
    "case_number":     {"type": "string"},
    "court":           {"type": "string"},
    "case_type":       {"type": "string", "enum": ["civil", "criminal"]},
    "judgment_date":   {"type": "string"},
    "judges":          {"type": "array", "items": {"type": "string"}},
    "case_subtype":    {"type": "array", "items": {"type": "string"}},
    "outcome_tags":    {"type": "array", "items": {"type": "string"}},
    "labor_tags":      {"type": "array", "items": {"type": "string"}},
    "compliance_list": {"type": "array", "items": {"type": "string"}},
    "summary":         {"type": "string"}
  },
  "required": ["source", "case_name", "case_type", "court"],
  "additionalProperties": false
}`

const formatPromptTemplate = `You are a data formatter for legal judgments. Map the classifier output you are given onto the schema below and return it as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Copy the judgment file name into "source" exactly as given (it may appear as pdf_file_name or file_name).
- case_type is "civil" or "criminal", lowercase.
- Split comma separated lists of judges, subtypes, tags and compliance directives into arrays of strings.
- Use ISO 8601 (YYYY-MM-DD) for judgment_date when the date is known; omit it otherwise.
- Do not invent facts. Omit fields that the input does not support.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: {"pdf_file_name":"sc_appeal_12_2019.pdf","caseType":"Civil","name":"Perera v. Silva","judges":"A. Fernando, B. Jayasuriya","court":"Supreme Court"}
Output:
{"source":"sc_appeal_12_2019.pdf","case_name":"Perera v. Silva","case_type":"civil","court":"Supreme Court","judges":["A. Fernando","B. Jayasuriya"]}`

// buildSystemPrompt creates the system prompt with the judgment schema embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(formatPromptTemplate, judgmentResponseSchema)
}

func buildUserPrompt(input string) string {
	return "Format this data: " + input
}
