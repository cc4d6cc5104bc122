package constants

// GateState is the quality-gate position for a document parse.
type GateState string

// Stable values (logged and reported verbatim).
const (
	GatePending   GateState = "PENDING"   // no parse attempted yet
	GateAttempted GateState = "ATTEMPTED" // a parse finished, score not yet resolved
	GateAccepted  GateState = "ACCEPTED"  // score met the threshold
	GateRetry     GateState = "RETRY"     // below threshold, fallback remains
	GateExhausted GateState = "EXHAUSTED" // below threshold, chain spent
)

// Terminal reports whether the state ends the retry loop.
func (s GateState) Terminal() bool {
	return s == GateAccepted || s == GateExhausted
}
