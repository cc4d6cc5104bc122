// Package classify maps document features to one of the ordered complexity
// tiers and resolves the parser chain for that tier.
package classify

import (
	"log/slog"

	"github.com/forjador/sku-pipeline/constants"
	"github.com/forjador/sku-pipeline/internal/common"
	"github.com/forjador/sku-pipeline/internal/entity"
	"github.com/forjador/sku-pipeline/internal/rules"
)

// Classifier evaluates the tier table in priority order; the first matching
// predicate wins. The table is validated for ordering consistency at rule
// load, so matches here are deterministic.
type Classifier struct {
	tiers  []rules.Tier
	logger *slog.Logger
}

func NewClassifier(store *rules.Store, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{tiers: store.Tiers(), logger: logger}
}

// Classify assigns a tier and returns a copy of its parser chain. The copy
// means a rule-store hot swap cannot affect an in-flight document. Returns a
// classification error when no predicate matches; that is a rule-configuration
// defect, fatal for the document and never retried.
func (c *Classifier) Classify(f entity.DocumentFeatures) (entity.Classification, error) {
	for _, tier := range c.tiers {
		if !matchesTier(tier, f) {
			continue
		}
		cls := entity.Classification{
			Tier:            tier.Tier,
			TierName:        tier.Name,
			ExpectedQuality: tier.ExpectedQuality,
			AvgLatencyS:     tier.AvgLatencyS,
			Chain: entity.ParserChain{
				Primary:   tier.Primary,
				Fallbacks: append([]constants.ParserID(nil), tier.Fallbacks...),
			},
		}
		c.logger.Info("classify.assigned",
			"path", f.Path,
			"tier", cls.Tier,
			"tier_name", cls.TierName,
			"primary_parser", cls.Chain.Primary,
			"fallbacks", len(cls.Chain.Fallbacks),
		)
		return cls, nil
	}
	return entity.Classification{}, common.ClassificationErrorf(
		"no tier predicate matches %s (format=%s size=%.2fMB pages=%d)",
		f.Path, f.Format, f.FileSizeMB, f.PageCount)
}

func matchesTier(t rules.Tier, f entity.DocumentFeatures) bool {
	for _, cond := range t.Match {
		if matchesCondition(cond, f) {
			return true
		}
	}
	return false
}

func matchesCondition(c rules.TierCondition, f entity.DocumentFeatures) bool {
	if len(c.Formats) > 0 {
		found := false
		for _, format := range c.Formats {
			if format == f.Format {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.MinSizeMB != nil && f.FileSizeMB < *c.MinSizeMB {
		return false
	}
	if c.MaxSizeMB != nil && f.FileSizeMB > *c.MaxSizeMB {
		return false
	}
	if c.MinPages != nil && f.PageCount < *c.MinPages {
		return false
	}
	if c.MaxPages != nil && f.PageCount > *c.MaxPages {
		return false
	}
	if c.Searchable != nil && f.HasText != *c.Searchable {
		return false
	}
	if c.MinScanQuality != nil && f.ScanQuality < *c.MinScanQuality {
		return false
	}
	if c.MaxScanQuality != nil && f.ScanQuality > *c.MaxScanQuality {
		return false
	}
	if c.MinHandwriting != nil && f.HandwritingEst < *c.MinHandwriting {
		return false
	}
	if c.MaxHandwriting != nil && f.HandwritingEst > *c.MaxHandwriting {
		return false
	}
	return true
}
