package llm

import (
	"strings"

	"github.com/forjador/sku-pipeline/constants"
)

// BuildSystemPrompt composes the system message: role, allowed enums, and
// strict-but-practical formatting rules for the structured output.
func BuildSystemPrompt() string {
	parts := []string{
		"You are an expert at extracting industrial fastener line items from purchase orders and technical documents.",
		"Return ONLY JSON that matches the provided JSON Schema: an object with an 'items' array.",
		"Extract EVERY fastener item in the text; skip anything that is not a fastener.",
		"tipo MUST be one of: " + strings.Join(constants.FastenerTypes(), ", ") + ".",
		"unidade MUST be one of: " + strings.Join(constants.UnitTypes(), ", ") + "; default to UN when the document gives no unit.",
		"dimensao uses the notation in the document: metric (M8, M8x30, M8x1.25x30) or imperial (#8-32, 1/4\"-20).",
		"descricao_original is the verbatim source text for the item, kept for traceability.",
		"classe, revestimento and norma are optional; omit them when the document does not state them.",
		"Set confidence per item (0.0-1.0) from how clearly the item was stated; unclear items get lower confidence, never guesses presented as certain.",
		"Do not invent items, quantities or materials that are not in the text.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt wraps the chunk text with light provenance hints.
func BuildUserPrompt(req ExtractRequest) string {
	var sb strings.Builder
	if req.FilenameHint != "" {
		sb.WriteString("Source file: ")
		sb.WriteString(req.FilenameHint)
		sb.WriteString("\n")
	}
	if req.ChunkIndex > 0 {
		sb.WriteString("This is a continuation segment; the leading lines may repeat the previous segment.\n")
	}
	sb.WriteString("Text to extract from:\n\n")
	sb.WriteString(req.ChunkText)
	return sb.String()
}
