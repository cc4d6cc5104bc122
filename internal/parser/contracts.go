// Package parser defines the parsing backend contract and the registry the
// quality gate resolves chains against. Backends are interchangeable: each
// takes a document path and returns raw text plus a self-reported confidence.
package parser

import (
	"context"
	"fmt"

	"github.com/forjador/sku-pipeline/constants"
)

// Result is the uniform parser output.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0..1
}

// Parser is one parsing backend.
type Parser interface {
	ID() constants.ParserID
	Parse(ctx context.Context, path string) (Result, error)
}

// Registry maps parser identifiers to backends.
type Registry map[constants.ParserID]Parser

// Register adds a backend under its own ID.
func (r Registry) Register(p Parser) {
	r[p.ID()] = p
}

// Resolve looks up a backend; missing entries are a wiring defect surfaced at
// the first document that routes to them.
func (r Registry) Resolve(id constants.ParserID) (Parser, error) {
	p, ok := r[id]
	if !ok {
		return nil, fmt.Errorf("no parser registered for %q", id)
	}
	return p, nil
}
