package render

import (
	"encoding/json"

	"github.com/dkoosis/qatally/pkg/pattern"
)

// SchemaVersion is bumped whenever a pattern's JSON shape changes.
const SchemaVersion = "qatally.report/v1"

// JSON renders patterns as structured JSON for dashboards and scripts.
type JSON struct{}

// NewJSON creates a JSON renderer.
func NewJSON() *JSON {
	return &JSON{}
}

type jsonDocument struct {
	Schema   string         `json:"schema"`
	Patterns []jsonEnvelope `json:"patterns"`
}

type jsonEnvelope struct {
	Type pattern.PatternType `json:"type"`
	Data pattern.Pattern     `json:"data"`
}

// Render encodes every pattern with its type tag, in input order.
func (j *JSON) Render(patterns []pattern.Pattern) string {
	doc := jsonDocument{
		Schema:   SchemaVersion,
		Patterns: make([]jsonEnvelope, 0, len(patterns)),
	}
	for _, p := range patterns {
		doc.Patterns = append(doc.Patterns, jsonEnvelope{Type: p.Type(), Data: p})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		errJSON, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(errJSON) + "\n"
	}
	return string(data) + "\n"
}
