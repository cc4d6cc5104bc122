package validation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/forjador/sku-pipeline/constants"
	"github.com/forjador/sku-pipeline/internal/entity"
	"github.com/forjador/sku-pipeline/internal/rules"
)

// Engine runs the two-layer validation: a structural layer that checks the
// record is well-formed, then a business layer that checks it against the
// fastener domain rules. A record that fails the structural layer never
// reaches the business layer.
type Engine struct {
	store *rules.Store
	log   *slog.Logger
}

func NewEngine(store *rules.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, log: logger}
}

// checker is one named validation check. It appends to errs/warns and
// reports whether the check passed.
type checker struct {
	name string
	run  func(rec entity.CandidateRecord, errs *[]string, warns *[]string) bool
}

// Validate runs all applicable checks against one record. The record itself
// is never mutated; the result carries everything downstream needs.
func (e *Engine) Validate(rec entity.CandidateRecord) entity.ValidationResult {
	var (
		errs       []string
		warns      []string
		applicable int
		passed     int
	)

	structuralOK := true
	for _, c := range e.structuralChecks() {
		applicable++
		if c.run(rec, &errs, &warns) {
			passed++
		} else {
			structuralOK = false
		}
	}

	if structuralOK {
		for _, c := range e.businessChecks() {
			applicable++
			if c.run(rec, &errs, &warns) {
				passed++
			}
		}
	}

	score := float64(passed) / float64(applicable)
	if !structuralOK {
		// A malformed record carries no partial credit.
		score = 0
	}
	res := entity.ValidationResult{
		Passed:   len(errs) == 0,
		Errors:   errs,
		Warnings: warns,
		Score:    score,
	}

	if !res.Passed {
		e.log.Debug("validation.rejected",
			"tipo", rec.Tipo,
			"dimensao", rec.Dimensao,
			"errors", res.Errors,
		)
	}
	return res
}

// ValidateBatch validates records concurrently and returns results in input
// order. Validation is pure, so the only error source is ctx cancellation.
func (e *Engine) ValidateBatch(ctx context.Context, recs []entity.CandidateRecord) ([]entity.ValidatedRecord, error) {
	out := make([]entity.ValidatedRecord, len(recs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = entity.ValidatedRecord{Record: rec, Result: e.Validate(rec)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) structuralChecks() []checker {
	return []checker{
		{"required_fields", func(rec entity.CandidateRecord, errs *[]string, _ *[]string) bool {
			ok := true
			for _, f := range []struct{ name, val string }{
				{"tipo", rec.Tipo},
				{"dimensao", rec.Dimensao},
				{"material", rec.Material},
				{"unidade", rec.Unidade},
				{"descricao_original", rec.Descricao},
			} {
				if strings.TrimSpace(f.val) == "" {
					*errs = append(*errs, fmt.Sprintf("campo obrigatório ausente: %s", f.name))
					ok = false
				}
			}
			return ok
		}},
		{"tipo_enum", func(rec entity.CandidateRecord, errs *[]string, _ *[]string) bool {
			if _, ok := constants.CanonicalizeType(rec.Tipo); !ok {
				*errs = append(*errs, fmt.Sprintf("tipo desconhecido: %q", rec.Tipo))
				return false
			}
			return true
		}},
		{"unidade_enum", func(rec entity.CandidateRecord, errs *[]string, _ *[]string) bool {
			if _, ok := constants.CanonicalizeUnit(rec.Unidade); !ok {
				*errs = append(*errs, fmt.Sprintf("unidade desconhecida: %q", rec.Unidade))
				return false
			}
			return true
		}},
		{"quantidade_positive", func(rec entity.CandidateRecord, errs *[]string, _ *[]string) bool {
			if rec.Quantidade <= 0 {
				*errs = append(*errs, fmt.Sprintf("quantidade deve ser positiva: %d", rec.Quantidade))
				return false
			}
			return true
		}},
		{"confidence_range", func(rec entity.CandidateRecord, errs *[]string, _ *[]string) bool {
			if rec.Confidence < 0 || rec.Confidence > 1 {
				*errs = append(*errs, fmt.Sprintf("confidence fora de [0,1]: %v", rec.Confidence))
				return false
			}
			return true
		}},
	}
}

func (e *Engine) businessChecks() []checker {
	return []checker{
		{"material_class", e.checkMaterialClass},
		{"coating", e.checkCoating},
		{"dimension_pattern", e.checkDimension},
	}
}

// checkMaterialClass enforces the strength-class table. Materials with an
// empty allowed list (plástico, nylon, ...) must not carry a class at all.
func (e *Engine) checkMaterialClass(rec entity.CandidateRecord, errs *[]string, warns *[]string) bool {
	rule, ok := e.store.ClassesFor(rec.Material)
	if !ok {
		if rec.Classe != "" {
			*warns = append(*warns, fmt.Sprintf("material sem regra de classe: %q", rec.Material))
		}
		return true
	}
	if rec.Classe == "" {
		return true
	}
	if len(rule.AllowedClasses) == 0 {
		*errs = append(*errs, fmt.Sprintf("material %q não admite classe de resistência, encontrado %q", rec.Material, rec.Classe))
		return false
	}
	for _, c := range rule.AllowedClasses {
		if strings.EqualFold(c, rec.Classe) {
			return true
		}
	}
	*errs = append(*errs, fmt.Sprintf("classe %q incompatível com material %q", rec.Classe, rec.Material))
	return false
}

// checkCoating rejects prohibited coatings and flags unusual ones.
func (e *Engine) checkCoating(rec entity.CandidateRecord, errs *[]string, warns *[]string) bool {
	if rec.Coating == "" {
		return true
	}
	rule, ok := e.store.CoatingRuleFor(rec.Material)
	if !ok {
		return true
	}
	coating := strings.ToLower(strings.TrimSpace(rec.Coating))
	for _, p := range rule.Prohibited {
		if strings.EqualFold(p, coating) {
			*errs = append(*errs, fmt.Sprintf("revestimento %q proibido para material %q", rec.Coating, rec.Material))
			return false
		}
	}
	if len(rule.Recommended) > 0 {
		for _, r := range rule.Recommended {
			if strings.EqualFold(r, coating) {
				return true
			}
		}
		*warns = append(*warns, fmt.Sprintf("revestimento %q incomum para material %q", rec.Coating, rec.Material))
	}
	return true
}

// checkDimension matches dimensao against the per-type pattern set and, when
// the type demands it, requires a strength class to be present.
func (e *Engine) checkDimension(rec entity.CandidateRecord, errs *[]string, _ *[]string) bool {
	tipo, ok := constants.CanonicalizeType(rec.Tipo)
	if !ok {
		return true // unreachable after the structural layer, keep safe
	}
	rule, ok := e.store.DimensionRuleFor(tipo)
	if !ok {
		return true
	}
	valid := true
	if !rule.Matches(rec.Dimensao) {
		*errs = append(*errs, fmt.Sprintf("dimensão %q não corresponde a nenhum padrão de %s", rec.Dimensao, tipo))
		valid = false
	}
	if rule.RequiresClasse && rec.Classe == "" {
		*errs = append(*errs, fmt.Sprintf("%s exige classe de resistência", tipo))
		valid = false
	}
	return valid
}
