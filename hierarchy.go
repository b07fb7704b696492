package pdftables

import "math"

// CharData is a single positioned character carried through hierarchy
// block merging, independent of the word-grouping pipeline in extract.go.
type CharData struct {
	Text     rune
	Box      Rect
	FontSize float64
	FontName string
}

// HierarchyBlock is a group of characters merged into a single text block
// for downstream heading/structure clustering. Named apart from the
// rotation-detection TextBlock in types.go, which groups words rather
// than characters and tracks reading direction rather than font
// provenance.
type HierarchyBlock struct {
	Chars    []CharData
	Box      Rect
	FontSize float64 // average font size across the block's characters
	FontName string  // font of the block's first character
}

// BoundingBox wraps a Rect with the comparison operations the hierarchy
// merge pass needs: overlap ratio, weighted center distance, and IoU.
type BoundingBox struct {
	Rect
}

func rectToBbox(r Rect) Bbox {
	return Bbox{X0: r.X0, Top: r.Y0, X1: r.X1, Bottom: r.Y1}
}

// Iou returns the intersection-over-union of two boxes.
func (b BoundingBox) Iou(other BoundingBox) float64 {
	overlap, ok := GetBboxOverlap(rectToBbox(b.Rect), rectToBbox(other.Rect))
	if !ok {
		return 0
	}
	overlapArea := overlap.Width() * overlap.Height()
	unionArea := b.Width()*b.Height() + other.Width()*other.Height() - overlapArea
	if unionArea <= 0 {
		return 0
	}
	return overlapArea / unionArea
}

// WeightedDistance combines horizontal and vertical center-to-center
// distance with a 5:1 weighting favouring horizontal separation, so text
// merges readily across a line but not across a paragraph gap.
func (b BoundingBox) WeightedDistance(other BoundingBox) float64 {
	dx := math.Abs(b.CenterX() - other.CenterX())
	dy := math.Abs(b.CenterY() - other.CenterY())
	return dx*5.0 + dy*1.0
}

// IntersectionRatio returns the fraction of b's area covered by its
// intersection with other.
func (b BoundingBox) IntersectionRatio(other BoundingBox) float64 {
	overlap, ok := GetBboxOverlap(rectToBbox(b.Rect), rectToBbox(other.Rect))
	if !ok {
		return 0
	}
	overlapArea := overlap.Width() * overlap.Height()
	areaB := b.Width() * b.Height()
	if areaB <= 0 {
		return 0
	}
	return overlapArea / areaB
}

// ExtractCharsWithFonts flattens a page's enriched characters (already
// gathered by extractEnrichedChars in extract.go) into hierarchy CharData,
// dropping hyphenation artifacts that shouldn't anchor a block.
func ExtractCharsWithFonts(chars []EnrichedChar) []CharData {
	result := make([]CharData, 0, len(chars))
	for _, c := range chars {
		if c.IsHyphen {
			continue
		}
		result = append(result, CharData{
			Text:     c.Text,
			Box:      c.Box,
			FontSize: c.FontSize,
			FontName: c.FontName,
		})
	}
	return result
}

// MergeCharsIntoBlocks greedily merges characters into HierarchyBlocks:
// a character joins the most recently built block if it is close enough
// (within 2x average font size horizontally, 1.5x vertically) or its box
// overlaps the block's box by more than 5%. Otherwise it starts a new
// block. This mirrors a single left-to-right reading pass rather than a
// full nearest-neighbor search, matching how the original pass builds
// blocks incrementally as characters are read off the page in order.
func MergeCharsIntoBlocks(chars []CharData) []HierarchyBlock {
	if len(chars) == 0 {
		return nil
	}

	avgFontSize := 0.0
	for _, c := range chars {
		avgFontSize += c.FontSize
	}
	avgFontSize /= float64(len(chars))
	if avgFontSize <= 0 {
		avgFontSize = 1
	}

	var blocks []HierarchyBlock
	for _, c := range chars {
		if len(blocks) > 0 {
			last := &blocks[len(blocks)-1]
			charBox := BoundingBox{c.Box}
			lastBox := BoundingBox{last.Box}

			dx := math.Abs(c.Box.CenterX() - last.Box.CenterX())
			dy := math.Abs(c.Box.CenterY() - last.Box.CenterY())
			closeEnough := dx < 2*avgFontSize && dy < 1.5*avgFontSize
			overlapsEnough := charBox.IntersectionRatio(lastBox) > 0.05

			if closeEnough || overlapsEnough {
				last.Chars = append(last.Chars, c)
				last.Box = mergeRects(last.Box, c.Box)
				n := float64(len(last.Chars))
				last.FontSize = (last.FontSize*(n-1) + c.FontSize) / n
				continue
			}
		}

		blocks = append(blocks, HierarchyBlock{
			Chars:    []CharData{c},
			Box:      c.Box,
			FontSize: c.FontSize,
			FontName: c.FontName,
		})
	}

	return blocks
}
