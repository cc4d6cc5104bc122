// Package quality implements the parse quality gate: scoring every attempt
// and walking the fallback chain until a parse is accepted or the chain is
// exhausted. The retry loop is an explicit state machine so the bounded-retry
// invariant stays auditable.
package quality

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/forjador/sku-pipeline/constants"
	"github.com/forjador/sku-pipeline/internal/entity"
	"github.com/forjador/sku-pipeline/internal/parser"
)

// Gate scores parse attempts and drives the retry/fallback loop.
type Gate struct {
	threshold    float64
	weights      Weights
	registry     parser.Registry
	retryTimeout time.Duration
	logger       *slog.Logger
}

// Outcome is the resolved gate result for one document. Attempts holds every
// try in order; Chosen indexes the attempt that feeds downstream stages (the
// accepted one, or on exhaustion the best-scoring one).
type Outcome struct {
	State    constants.GateState
	Attempts []entity.ParseAttempt
	Chosen   int
	Warnings []string
}

// Content returns the text of the chosen attempt.
func (o Outcome) Content() string {
	if o.Chosen < 0 || o.Chosen >= len(o.Attempts) {
		return ""
	}
	return o.Attempts[o.Chosen].Text
}

func NewGate(threshold float64, weights Weights, registry parser.Registry, retryTimeout time.Duration, logger *slog.Logger) *Gate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if weights == (Weights{}) {
		weights = DefaultWeights
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		threshold:    threshold,
		weights:      weights,
		registry:     registry,
		retryTimeout: retryTimeout,
		logger:       logger,
	}
}

// Run walks the parser chain for a classified document. At most
// len(fallbacks)+1 attempts ever execute; the tier assignment never changes,
// only the chain position advances. Context cancellation is the retry
// boundary: a cancelled context forces EXHAUSTED over whatever attempts
// completed.
func (g *Gate) Run(ctx context.Context, path string, cls entity.Classification) (Outcome, error) {
	if g.retryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.retryTimeout)
		defer cancel()
	}

	chain := cls.Chain.All()
	out := Outcome{State: constants.GatePending, Chosen: -1}

	for i, id := range chain {
		if err := ctx.Err(); err != nil {
			g.logger.Warn("quality.gate.cancelled",
				"path", path, "attempts", len(out.Attempts), "error", err)
			return g.exhaust(out, fmt.Sprintf("retry loop cancelled after %d attempts: %v", len(out.Attempts), err)), nil
		}

		p, err := g.registry.Resolve(id)
		if err != nil {
			// A chain referencing an unregistered backend is a wiring defect,
			// not a parse failure.
			return out, err
		}

		attempt := entity.ParseAttempt{Index: i, Parser: id}
		res, err := p.Parse(ctx, path)
		if err != nil {
			attempt.Err = err.Error()
			g.logger.Warn("quality.gate.attempt_failed",
				"path", path, "parser", id, "attempt", i, "error", err)
		} else {
			attempt.Text = res.Text
			attempt.Confidence = res.Confidence
			attempt.Score = Score(res.Text, res.Confidence, g.weights)
		}
		out.Attempts = append(out.Attempts, attempt)
		out.State = constants.GateAttempted

		g.logger.Info("quality.gate.attempt",
			"path", path,
			"parser", id,
			"attempt", i,
			"score", fmt.Sprintf("%.3f", attempt.Score.Overall),
			"completeness", fmt.Sprintf("%.2f", attempt.Score.Completeness),
			"confidence", fmt.Sprintf("%.2f", attempt.Score.Confidence),
			"structure", fmt.Sprintf("%.2f", attempt.Score.Structure),
			"threshold", g.threshold,
		)

		switch g.transition(attempt, len(chain)-i-1) {
		case constants.GateAccepted:
			out.State = constants.GateAccepted
			out.Chosen = i
			return out, nil
		case constants.GateRetry:
			out.State = constants.GateRetry
			// next chain entry runs with the same input
		case constants.GateExhausted:
			return g.exhaust(out, ""), nil
		}
	}

	// Unreachable when the chain is non-empty; guard for empty chains.
	return g.exhaust(out, "parser chain is empty"), nil
}

// transition resolves the state after one attempt. Acceptance is inclusive at
// the threshold; a retry needs both a below-threshold score and an unused
// chain entry.
func (g *Gate) transition(attempt entity.ParseAttempt, remaining int) constants.GateState {
	accepted := attempt.Err == "" && attempt.Score.Overall >= g.threshold
	switch {
	case accepted:
		return constants.GateAccepted
	case remaining > 0:
		return constants.GateRetry
	default:
		return constants.GateExhausted
	}
}

// exhaust resolves the outcome when no attempt passed: proceed with the
// best-scoring attempt among all tried, annotated with a warning, rather than
// aborting the document. Downstream stages tolerate below-threshold content.
func (g *Gate) exhaust(out Outcome, extraWarning string) Outcome {
	out.State = constants.GateExhausted
	best := -1
	for i, a := range out.Attempts {
		if a.Err != "" {
			continue
		}
		if best == -1 || a.Score.Overall > out.Attempts[best].Score.Overall {
			best = i
		}
	}
	out.Chosen = best

	if best >= 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf(
			"quality gate exhausted after %d attempts; proceeding with best attempt (parser %s, score %.3f < %.2f)",
			len(out.Attempts), out.Attempts[best].Parser, out.Attempts[best].Score.Overall, g.threshold))
	} else {
		out.Warnings = append(out.Warnings, fmt.Sprintf(
			"quality gate exhausted after %d attempts; no parser produced output", len(out.Attempts)))
	}
	if extraWarning != "" {
		out.Warnings = append(out.Warnings, extraWarning)
	}

	g.logger.Warn("quality.gate.exhausted",
		"attempts", len(out.Attempts), "chosen", out.Chosen)
	return out
}
