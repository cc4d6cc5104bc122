package quality

import (
	"regexp"
	"strings"

	"github.com/forjador/sku-pipeline/internal/entity"
)

// Weights combine the three quality components. They must sum to 1.
type Weights struct {
	Completeness float64
	Confidence   float64
	Structure    float64
}

// DefaultWeights and DefaultThreshold are the tuned production values.
var DefaultWeights = Weights{Completeness: 0.40, Confidence: 0.30, Structure: 0.30}

const DefaultThreshold = 0.85

var skuKeywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:parafuso|porca|arruela|bucha|chumbador)\b`),
	regexp.MustCompile(`\bM\d+\b`),
	regexp.MustCompile(`(?i)\b(?:quantidade|qtd|qty)\b`),
	regexp.MustCompile(`(?i)\b(?:material|aço|inox)\b`),
	regexp.MustCompile(`(?i)\b(?:classe|class)\b`),
}

var lineItemPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\n\s*\d+[.)]\s+`),
	regexp.MustCompile(`\n\s*(?:Item|ITEM)\s+\d+`),
	regexp.MustCompile(`\|\s*\w+\s*\|`),
}

var ocrArtifacts = []string{"###", "~~~", "***", "...", "???"}

// Completeness estimates what fraction of the expected structure made it
// through parsing: content volume, fastener vocabulary, line-item markers.
func Completeness(content string) float64 {
	if len(content) == 0 {
		return 0
	}

	score := 0.0
	if len(content) > 100 {
		score += 0.2
	}
	if len(content) > 500 {
		score += 0.1
	}

	keywordMatches := 0
	for _, p := range skuKeywordPatterns {
		if p.MatchString(content) {
			keywordMatches++
		}
	}
	kw := float64(keywordMatches) * 0.1
	if kw > 0.4 {
		kw = 0.4
	}
	score += kw

	for _, p := range lineItemPatterns {
		if p.MatchString(content) {
			score += 0.1
			break
		}
	}

	lineCount := strings.Count(content, "\n")
	if lineCount > 5 {
		score += 0.1
	}
	if lineCount > 20 {
		score += 0.1
	}

	if score > 1 {
		score = 1
	}
	return score
}

// Structure estimates how well-formed the parsed text is: balanced lines,
// sane line lengths, low noise, few OCR artifacts. Starts at 1.0 and deducts.
func Structure(content string) float64 {
	if len(content) == 0 {
		return 0
	}

	score := 1.0
	lines := strings.Split(content, "\n")
	nonEmpty := 0
	totalLen := 0
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			nonEmpty++
			totalLen += len(line)
		}
	}

	emptyRatio := float64(len(lines)-nonEmpty) / float64(len(lines))
	if emptyRatio > 0.7 {
		score -= 0.3
	} else if emptyRatio > 0.5 {
		score -= 0.1
	}

	if nonEmpty > 0 {
		avgLen := float64(totalLen) / float64(nonEmpty)
		if avgLen < 10 {
			score -= 0.2
		} else if avgLen > 200 {
			score -= 0.1
		}
	}

	special := 0
	for _, r := range content {
		if !isAlnum(r) && !strings.ContainsRune(" \n\t.,;:-", r) {
			special++
		}
	}
	specialRatio := float64(special) / float64(len(content))
	if specialRatio > 0.3 {
		score -= 0.3
	} else if specialRatio > 0.2 {
		score -= 0.1
	}

	artifacts := 0
	for _, a := range ocrArtifacts {
		artifacts += strings.Count(content, a)
	}
	if artifacts > 10 {
		score -= 0.2
	}

	if score < 0 {
		score = 0
	}
	return score
}

// Score combines the weighted components for one parse attempt.
func Score(content string, confidence float64, w Weights) entity.QualityScore {
	completeness := Completeness(content)
	structure := Structure(content)
	return entity.QualityScore{
		Completeness: completeness,
		Confidence:   confidence,
		Structure:    structure,
		Overall:      completeness*w.Completeness + confidence*w.Confidence + structure*w.Structure,
	}
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
		(r >= 'à' && r <= 'ÿ') || (r >= 'À' && r <= 'Þ')
}
