package quality

import (
	"fmt"
	"strings"
	"testing"
)

func richOrderText(lines int) string {
	var sb strings.Builder
	sb.WriteString("Pedido de compra\nMaterial: aco carbono\n")
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&sb, "%d) parafuso sextavado M8 classe 8.8 quantidade %d UN\n", i, i*5)
	}
	return sb.String()
}

func TestCompleteness(t *testing.T) {
	if got := Completeness(""); got != 0 {
		t.Errorf("Completeness(empty) = %v, want 0", got)
	}

	rich := Completeness(richOrderText(25))
	poor := Completeness("ok")
	if rich < 0.9 {
		t.Errorf("rich order text completeness = %v, want >= 0.9", rich)
	}
	if poor > 0.2 {
		t.Errorf("trivial text completeness = %v, want <= 0.2", poor)
	}
	if rich <= poor {
		t.Errorf("completeness not ordered: rich=%v poor=%v", rich, poor)
	}
}

func TestStructure(t *testing.T) {
	if got := Structure(""); got != 0 {
		t.Errorf("Structure(empty) = %v, want 0", got)
	}

	clean := Structure(richOrderText(25))
	if clean < 0.95 {
		t.Errorf("clean text structure = %v, want >= 0.95", clean)
	}

	noisy := Structure(strings.Repeat("@#$%&*!?\n", 50))
	if noisy >= clean {
		t.Errorf("noisy structure %v not below clean %v", noisy, clean)
	}

	sparse := Structure("a\n\n\n\n\n\n\n\n\nb\n\n\n\n\n\n\n\n\n")
	if sparse > 0.8 {
		t.Errorf("mostly-empty structure = %v, want <= 0.8", sparse)
	}
}

func TestScoreWeighting(t *testing.T) {
	content := richOrderText(25)

	s := Score(content, 0.9, DefaultWeights)
	want := s.Completeness*DefaultWeights.Completeness +
		0.9*DefaultWeights.Confidence +
		s.Structure*DefaultWeights.Structure
	if diff := s.Overall - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Overall = %v, want %v", s.Overall, want)
	}

	low := Score(content, 0.1, DefaultWeights)
	if low.Overall >= s.Overall {
		t.Errorf("overall not monotonic in confidence: %v >= %v", low.Overall, s.Overall)
	}
}

func TestScoreBounds(t *testing.T) {
	inputs := []string{"", "x", richOrderText(40), strings.Repeat("@@@", 500)}
	for _, content := range inputs {
		for _, conf := range []float64{0, 0.5, 1} {
			s := Score(content, conf, DefaultWeights)
			if s.Overall < 0 || s.Overall > 1 {
				t.Errorf("Overall = %v out of [0,1] for conf=%v len=%d", s.Overall, conf, len(content))
			}
		}
	}
}
