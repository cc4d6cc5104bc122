package llm

import (
	"encoding/json"
	"testing"
)

func items(t *testing.T, doc []byte) []map[string]any {
	t.Helper()
	var m struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(doc, &m); err != nil {
		t.Fatal(err)
	}
	return m.Items
}

func TestSanitizeDropsUnknownKeys(t *testing.T) {
	in := []byte(`{"items":[{"tipo":"parafuso","dimensao":"M8x30","material":"aço carbono","quantidade":10,"unidade":"UN","descricao_original":"x","confidence":0.9,"preco_unitario":1.5}]}`)
	out, dropped, err := SanitizeRecordItems(in)
	if err != nil {
		t.Fatal(err)
	}
	got := items(t, out)
	if _, ok := got[0]["preco_unitario"]; ok {
		t.Error("unknown key survived sanitize")
	}
	if len(dropped) != 1 {
		t.Errorf("dropped = %v, want one entry", dropped)
	}
}

func TestSanitizeNormalizesEnumsAndCase(t *testing.T) {
	in := []byte(`{"items":[{"tipo":" Anel de Trava ","dimensao":"12","material":" AÇO Carbono ","quantidade":10,"unidade":" un ","descricao_original":"x","confidence":0.9}]}`)
	out, _, err := SanitizeRecordItems(in)
	if err != nil {
		t.Fatal(err)
	}
	got := items(t, out)[0]
	if got["tipo"] != "anel_de_trava" {
		t.Errorf("tipo = %q", got["tipo"])
	}
	if got["unidade"] != "UN" {
		t.Errorf("unidade = %q", got["unidade"])
	}
	if got["material"] != "aço carbono" {
		t.Errorf("material = %q", got["material"])
	}
}

func TestSanitizeWholeFloatQuantity(t *testing.T) {
	in := []byte(`{"items":[{"tipo":"porca","dimensao":"M8","material":"latão","quantidade":50.0,"unidade":"UN","descricao_original":"x","confidence":0.8}]}`)
	out, _, err := SanitizeRecordItems(in)
	if err != nil {
		t.Fatal(err)
	}
	var m struct {
		Items []struct {
			Quantidade json.Number `json:"quantidade"`
		} `json:"items"`
	}
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatal(err)
	}
	if m.Items[0].Quantidade.String() != "50" {
		t.Errorf("quantidade = %s, want 50", m.Items[0].Quantidade)
	}
}

func TestSanitizeDropsEmptyOptionals(t *testing.T) {
	in := []byte(`{"items":[{"tipo":"porca","dimensao":"M8","material":"latão","classe":"","quantidade":5,"unidade":"UN","descricao_original":"x","confidence":0.8,"revestimento":null,"norma":"  DIN 934 "}]}`)
	out, dropped, err := SanitizeRecordItems(in)
	if err != nil {
		t.Fatal(err)
	}
	got := items(t, out)[0]
	if _, ok := got["classe"]; ok {
		t.Error("empty classe survived")
	}
	if _, ok := got["revestimento"]; ok {
		t.Error("null revestimento survived")
	}
	if got["norma"] != "DIN 934" {
		t.Errorf("norma = %q, want trimmed", got["norma"])
	}
	if len(dropped) != 2 {
		t.Errorf("dropped = %v, want two entries", dropped)
	}
}

func TestSanitizeRejectsMissingItems(t *testing.T) {
	if _, _, err := SanitizeRecordItems([]byte(`{"records":[]}`)); err == nil {
		t.Fatal("expected error when items array is missing")
	}
}

// Sanitized near-miss output must validate against the extraction schema.
func TestSanitizeRepairsValidateAgainstSchema(t *testing.T) {
	in := []byte(`{"items":[{"tipo":"Parafuso","dimensao":"M8x30","material":"Aço Carbono","classe":"8.8","quantidade":10.0,"unidade":"un","descricao_original":"parafuso M8x30","confidence":0.9,"observacao":"extra"}]}`)

	schema := BuildRecordJSONSchema()
	if err := ValidateJSONAgainstSchema(schema, in); err == nil {
		t.Fatal("raw near-miss output should not validate")
	}

	out, _, err := SanitizeRecordItems(in)
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateJSONAgainstSchema(schema, out); err != nil {
		t.Fatalf("sanitized output should validate: %v", err)
	}
}
