package validate

import "github.com/ppiankov/assignparse/internal/model"

// RecordSchema returns the JSON Schema of a Record. Section objects are
// generated from the field table so the schema cannot drift from it.
func RecordSchema() map[string]any {
	str := map[string]any{"type": "string"}
	boolean := map[string]any{"type": "boolean"}
	stringArray := map[string]any{"type": "array", "items": str}

	sections := []struct {
		key    string
		header string
	}{
		{"RequestingParty", model.SectionRequestingParty},
		{"InsuredInformation", model.SectionInsuredInformation},
		{"AdjusterInformation", model.SectionAdjusterInformation},
		{"AssignmentInformation", model.SectionAssignmentInformation},
	}

	properties := map[string]any{}
	required := []string{}
	for _, s := range sections {
		props := map[string]any{}
		req := []string{}
		for _, f := range model.SectionFields(s.header) {
			props[f.Key] = str
			req = append(req, f.Key)
		}
		properties[s.key] = map[string]any{
			"type":                 "object",
			"properties":           props,
			"required":             req,
			"additionalProperties": false,
		}
		required = append(required, s.key)
	}

	properties["AssignmentType"] = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"Wind":       boolean,
			"Structural": boolean,
			"Hail":       boolean,
			"Foundation": boolean,
			"Other": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"Checked": boolean,
					"Details": str,
				},
				"required":             []string{"Checked", "Details"},
				"additionalProperties": false,
			},
		},
		"required":             []string{"Wind", "Structural", "Hail", "Foundation", "Other"},
		"additionalProperties": false,
	}
	properties["AdditionalDetails"] = str
	properties["Attachments"] = stringArray
	properties["Entities"] = map[string]any{
		"type":                 "object",
		"additionalProperties": stringArray,
	}
	required = append(required, "AssignmentType", "AdditionalDetails", "Attachments", "Entities")

	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                "Assignment",
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}
