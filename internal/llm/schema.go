package llm

import "github.com/forjador/sku-pipeline/constants"

// BuildRecordJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass this to the model as a structured output constraint
// and also use it locally to validate what comes back.
func BuildRecordJSONSchema() map[string]any {
	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"tipo":     map[string]any{"type": "string", "enum": constants.FastenerTypes()},
			"dimensao": map[string]any{"type": "string", "minLength": 1},
			"material": map[string]any{"type": "string", "minLength": 1},
			"classe":   map[string]any{"type": "string"},
			"quantidade": map[string]any{
				"type":    "integer",
				"minimum": 1,
			},
			"unidade":            map[string]any{"type": "string", "enum": constants.UnitTypes()},
			"descricao_original": map[string]any{"type": "string", "minLength": 1},
			"confidence": map[string]any{
				"type":    "number",
				"minimum": 0.0,
				"maximum": 1.0,
			},
			"revestimento": map[string]any{"type": "string"},
			"norma":        map[string]any{"type": "string"},
		},
		"required": []string{"tipo", "dimensao", "material", "quantidade", "unidade", "descricao_original", "confidence"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"items": map[string]any{
				"type":  "array",
				"items": item,
			},
		},
		"required": []string{"items"},
	}
}
