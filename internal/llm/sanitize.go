package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// recordKeys is the schema property set; anything else the model invents is
// dropped before validation.
var recordKeys = map[string]struct{}{
	"tipo": {}, "dimensao": {}, "material": {}, "classe": {},
	"quantidade": {}, "unidade": {}, "descricao_original": {},
	"confidence": {}, "revestimento": {}, "norma": {},
}

var optionalKeys = []string{"classe", "revestimento", "norma"}

// SanitizeRecordItems normalizes the items array of a raw extraction response
// so that near-miss output can still validate. Only lossless or
// optional-field repairs are applied: casing, whitespace, unknown keys,
// empty optionals, float quantities that are whole numbers.
func SanitizeRecordItems(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	items, ok := m["items"].([]any)
	if !ok {
		return nil, nil, fmt.Errorf("sanitize: response has no items array")
	}

	var dropped []string
	for i, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}

		for k := range obj {
			if _, known := recordKeys[k]; !known {
				delete(obj, k)
				dropped = append(dropped, fmt.Sprintf("items[%d].%s(unknown)", i, k))
			}
		}

		if v, ok := obj["tipo"].(string); ok {
			obj["tipo"] = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), " ", "_")
		}
		if v, ok := obj["unidade"].(string); ok {
			obj["unidade"] = strings.ToUpper(strings.TrimSpace(v))
		}
		if v, ok := obj["material"].(string); ok {
			obj["material"] = strings.ToLower(strings.TrimSpace(v))
		}

		// Models sometimes emit quantities as floats; accept whole values.
		if v, ok := obj["quantidade"].(float64); ok && v == float64(int64(v)) {
			obj["quantidade"] = int64(v)
		}

		for _, k := range optionalKeys {
			switch v := obj[k].(type) {
			case string:
				if strings.TrimSpace(v) == "" {
					delete(obj, k)
					dropped = append(dropped, fmt.Sprintf("items[%d].%s(empty)", i, k))
				} else {
					obj[k] = strings.TrimSpace(v)
				}
			case nil:
				delete(obj, k)
				dropped = append(dropped, fmt.Sprintf("items[%d].%s(null)", i, k))
			}
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, dropped, nil
}
