// Package chunker splits parsed content into overlapping, boundary-aware
// segments sized for extraction. Chunking is deterministic: the same input
// and parameters always produce identical boundaries.
package chunker

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/forjador/sku-pipeline/internal/entity"
)

const (
	// DefaultChunkSize is the target segment size in characters.
	DefaultChunkSize = 3500
	// DefaultOverlap is how far each chunk reaches back into the previous one.
	DefaultOverlap = 250
	// DefaultTolerance is the window before the hard limit searched for a
	// semantic boundary.
	DefaultTolerance = 500
)

// lineItemBoundary marks the start of a purchase-order line item. Cutting
// right before one keeps the whole item inside a single chunk.
var lineItemBoundary = regexp.MustCompile(`\n\s*(?:\d+[.)]\s+|(?:Item|ITEM)\s+\d+|\[\d+\]|(?:SKU|Part|Material|Tipo|Código):)`)

// Chunker holds the sizing parameters.
type Chunker struct {
	size      int
	overlap   int
	tolerance int
	logger    *slog.Logger
}

func New(size, overlap, tolerance int, logger *slog.Logger) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if tolerance > size/2 {
		tolerance = size / 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chunker{size: size, overlap: overlap, tolerance: tolerance, logger: logger}
}

// Split produces the chunk sequence for content. The non-overlapping spans
// [Start, End) tile the input exactly once; each chunk after the first
// additionally carries up to overlap characters of the previous chunk as a
// prefix, so context that spans a cut is duplicated, never lost.
func (c *Chunker) Split(content string) []entity.Chunk {
	if len(content) == 0 {
		return nil
	}

	var chunks []entity.Chunk
	pos := 0
	for pos < len(content) {
		overlapUsed := c.overlap
		if overlapUsed > pos {
			overlapUsed = pos
		}

		// The fresh content budget shrinks by the overlap prefix so a chunk
		// never exceeds the configured size.
		budget := c.size - overlapUsed
		if pos+budget >= len(content) {
			chunks = append(chunks, entity.Chunk{
				Index:       len(chunks),
				Content:     content[pos-overlapUsed:],
				Start:       pos,
				End:         len(content),
				OverlapPrev: overlapUsed,
				AtBoundary:  true,
			})
			break
		}

		hardLimit := pos + budget
		cut, atBoundary := c.findCut(content, pos, hardLimit)

		chunks = append(chunks, entity.Chunk{
			Index:       len(chunks),
			Content:     content[pos-overlapUsed : cut],
			Start:       pos,
			End:         cut,
			OverlapPrev: overlapUsed,
			AtBoundary:  atBoundary,
		})
		pos = cut
	}

	c.logger.Debug("chunker.split",
		"content_len", len(content), "chunks", len(chunks),
		"size", c.size, "overlap", c.overlap)
	return chunks
}

// findCut picks the cut position in (pos, hardLimit]. Boundary preference:
// paragraph break, then line-item start, then table-row start, then any line
// break, all searched within the tolerance window; otherwise a forced cut at
// the hard limit.
func (c *Chunker) findCut(content string, pos, hardLimit int) (int, bool) {
	windowStart := hardLimit - c.tolerance
	if windowStart <= pos {
		windowStart = pos + 1
	}
	window := content[windowStart:hardLimit]

	// Paragraph break: cut after the blank line.
	if i := strings.LastIndex(window, "\n\n"); i >= 0 {
		return windowStart + i + 2, true
	}

	// Line-item boundary: cut before the item so it starts the next chunk.
	if locs := lineItemBoundary.FindAllStringIndex(window, -1); len(locs) > 0 {
		last := locs[len(locs)-1]
		cut := windowStart + last[0] + 1 // keep the newline in the earlier chunk
		if cut > pos {
			return cut, true
		}
	}

	// Table-row boundary: newline followed by a pipe cell.
	if i := strings.LastIndex(window, "\n|"); i >= 0 {
		return windowStart + i + 1, true
	}

	// Any line break.
	if i := strings.LastIndex(window, "\n"); i >= 0 {
		return windowStart + i + 1, true
	}

	// No boundary in the window: force the cut.
	return hardLimit, false
}
