package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Intermediate is the transient record decoded from the model's response.
// Monetary and date fields stay as display strings here; interpreting them
// is deferred to normalization so formatting quirks (thousands separators,
// odd date layouts) cannot fail structural decoding. It is consumed once
// and never persisted.
type Intermediate struct {
	Date      string             `json:"date"`
	Total     string             `json:"total"`
	Items     []IntermediateItem `json:"items"`
	StoreName *string            `json:"storeName,omitempty"`
	Currency  *string            `json:"currency,omitempty"`
}

// IntermediateItem is a single line item as extracted, price still a string
type IntermediateItem struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// responseSchema validates the cleaned model output before decoding, the
// same way the structural contract is stated in the prompt. Optionals may
// be null; the model emits null more readily than it omits keys.
var responseSchema = jsonschema.MustCompileString("receipt-response.schema.json", `{
	"type": "object",
	"required": ["date", "total", "items"],
	"properties": {
		"date": {"type": "string", "minLength": 1},
		"total": {"type": "string"},
		"items": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "price"],
				"properties": {
					"name": {"type": "string"},
					"price": {"type": "string"}
				}
			}
		},
		"storeName": {"type": ["string", "null"]},
		"currency": {"type": ["string", "null"]}
	}
}`)

// cleanResponseText strips conversational and markdown wrapping from raw
// model output, leaving the JSON payload
func cleanResponseText(raw string) (string, error) {
	text := strings.TrimSpace(raw)

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	// Models sometimes wrap the object in prose; keep only the outermost braces
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return text, fmt.Errorf("no JSON object found in response")
	}
	return text[start : end+1], nil
}

// ParseResponse turns the raw text returned by the model into an
// Intermediate record. Failures surface as MalformedResponseError carrying
// the cleaned text for diagnostics.
func ParseResponse(raw string) (*Intermediate, error) {
	cleaned, err := cleanResponseText(raw)
	if err != nil {
		return nil, &MalformedResponseError{CleanedText: cleaned, Err: err}
	}

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, &MalformedResponseError{CleanedText: cleaned, Err: fmt.Errorf("decoding json: %w", err)}
	}
	if err := responseSchema.Validate(doc); err != nil {
		return nil, &MalformedResponseError{CleanedText: cleaned, Err: fmt.Errorf("validating response shape: %w", err)}
	}

	var out Intermediate
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, &MalformedResponseError{CleanedText: cleaned, Err: fmt.Errorf("decoding record: %w", err)}
	}
	return &out, nil
}
