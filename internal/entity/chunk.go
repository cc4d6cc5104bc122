package entity

// Chunk is an overlapping text segment sized for extraction. Start/End are
// byte offsets into the source content; overlap with the previous chunk is
// deliberate duplication, never a gap.
type Chunk struct {
	Index       int    `json:"index"`
	Content     string `json:"content"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	OverlapPrev int    `json:"overlap_prev"` // chars shared with the previous chunk, 0 for the first
	AtBoundary  bool   `json:"at_boundary"`  // cut at a semantic boundary, not forced
}

// Size returns the chunk length in bytes including the leading overlap.
func (c Chunk) Size() int {
	return len(c.Content)
}
