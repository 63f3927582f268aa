package itinerary

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
)

// structureSchema is the minimum shape a generated plan must have to be used:
// a title and at least one day, every day with at least one named activity.
const structureSchema = `{
  "type": "object",
  "required": ["title", "days"],
  "properties": {
    "title": {"type": "string", "pattern": "\\S"},
    "days": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["activities"],
        "properties": {
          "activities": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["name"],
              "properties": {"name": {"type": "string", "pattern": "\\S"}}
            }
          }
        }
      }
    }
  }
}`

var schema = mustSchema(structureSchema)

func mustSchema(s string) *gojsonschema.Schema {
	sch, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("itinerary: invalid structure schema: %v", err))
	}
	return sch
}

// Validate checks the plan structure. The error lists every violation.
func Validate(data domain.ItineraryData) error {
	res, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("validate itinerary: %w", err)
	}
	if res.Valid() {
		return nil
	}

	issues := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		issues = append(issues, e.String())
	}
	return &domain.ErrItineraryParse{Reason: "invalid structure: " + strings.Join(issues, "; ")}
}
