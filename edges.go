package pdftables

import (
	"math"
	"sort"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/enums"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
)

// pdfium path segment types, per FPDFPathSegment_GetType in fpdf_edit.h.
const (
	pdfSegmentLineTo   = 0
	pdfSegmentBezierTo = 1
	pdfSegmentMoveTo   = 2
)

// orientationTolerance bounds how far a path edge's non-dominant axis may
// move and still count as purely horizontal or vertical, matching the
// tolerance used to recognize an axis-aligned rectangle.
const orientationTolerance = 1.0

// pathPoint is one path segment's endpoint and metadata, walked straight
// off FPDFPath_GetPathSegment/FPDFPathSegment_GetPoint/GetType/GetClose.
type pathPoint struct {
	x, y  float64
	typ   int
	close bool
}

// extractLinesFromPage extracts explicit line and rectangle path objects
// from a PDF page as table-scaffolding edges. It filters out page borders
// so an entire page isn't mistaken for a single table cell.
//
// Each path is walked twice: a first pass collects every segment's
// endpoint and decides whether the path is an axis-aligned rectangle
// (no curves, 3-4 line-tos, each consecutive edge purely horizontal or
// vertical), and a second pass walks the same segments again to emit one
// Edge per line-to/bezier-to (and one more on close), typed Rect, Curve,
// or Line according to what the first pass found.
func extractLinesFromPage(instance pdfium.Pdfium, page references.FPDF_PAGE, pageWidth, pageHeight float64) ([]Edge, error) {
	countResp, err := instance.FPDFPage_CountObjects(&requests.FPDFPage_CountObjects{
		Page: requests.Page{ByReference: &page},
	})
	if err != nil {
		return nil, err
	}

	var edges []Edge

	for i := 0; i < countResp.Count; i++ {
		objResp, err := instance.FPDFPage_GetObject(&requests.FPDFPage_GetObject{
			Page:  requests.Page{ByReference: &page},
			Index: i,
		})
		if err != nil {
			continue
		}

		typeResp, err := instance.FPDFPageObj_GetType(&requests.FPDFPageObj_GetType{
			PageObject: objResp.PageObject,
		})
		if err != nil || typeResp.Type != enums.FPDF_PAGEOBJ_PATH {
			continue
		}

		segCountResp, err := instance.FPDFPath_CountSegments(&requests.FPDFPath_CountSegments{
			PageObject: objResp.PageObject,
		})
		if err != nil || segCountResp.Count < 2 {
			continue
		}

		points, ok := walkPathSegments(instance, objResp.PageObject, segCountResp.Count, pageHeight)
		if !ok {
			continue
		}

		edges = append(edges, pathToEdges(points, pageWidth, pageHeight)...)
	}

	return edges, nil
}

// walkPathSegments reads every segment of a path object's endpoint, type,
// and close flag, converting PDF bottom-up Y into the page's top-down Y.
func walkPathSegments(instance pdfium.Pdfium, obj references.FPDF_PAGEOBJECT, count int, pageHeight float64) ([]pathPoint, bool) {
	points := make([]pathPoint, 0, count)
	for i := 0; i < count; i++ {
		segResp, err := instance.FPDFPath_GetPathSegment(&requests.FPDFPath_GetPathSegment{
			PageObject: obj,
			Index:      i,
		})
		if err != nil {
			return nil, false
		}

		pointResp, err := instance.FPDFPathSegment_GetPoint(&requests.FPDFPathSegment_GetPoint{
			PathSegment: segResp.PathSegment,
		})
		if err != nil {
			return nil, false
		}

		typeResp, err := instance.FPDFPathSegment_GetType(&requests.FPDFPathSegment_GetType{
			PathSegment: segResp.PathSegment,
		})
		if err != nil {
			return nil, false
		}

		closeResp, err := instance.FPDFPathSegment_GetClose(&requests.FPDFPathSegment_GetClose{
			PathSegment: segResp.PathSegment,
		})
		if err != nil {
			return nil, false
		}

		points = append(points, pathPoint{
			x:     float64(pointResp.X),
			y:     pageHeight - float64(pointResp.Y),
			typ:   int(typeResp.Type),
			close: closeResp.Close,
		})
	}
	return points, true
}

// pathToEdges classifies a path's walked segments and emits one Edge per
// line-to/bezier-to segment (plus one more on close), mirroring the
// two-pass classify-then-emit flow of extract_edges_from_path.
func pathToEdges(points []pathPoint, pageWidth, pageHeight float64) []Edge {
	hasBezier := false
	lineCount := 0
	var corners []pathPoint
	for _, p := range points {
		switch p.typ {
		case pdfSegmentBezierTo:
			hasBezier = true
		case pdfSegmentLineTo:
			lineCount++
		}
		corners = append(corners, p)
	}
	isRect := !hasBezier && (lineCount == 3 || lineCount == 4) && isRectangularPath(corners)

	var edges []Edge
	currentX, currentY := 0.0, 0.0
	moveX, moveY := 0.0, 0.0

	emit := func(x0, y0, x1, y1 float64, edgeType EdgeType) {
		edge := lineToEdge(x0, y0, x1, y1, edgeType)
		if edge == nil {
			return
		}
		if isPageBorder(*edge, pageWidth, pageHeight) {
			return
		}
		edges = append(edges, *edge)
	}

	for _, p := range points {
		switch p.typ {
		case pdfSegmentMoveTo:
			currentX, currentY = p.x, p.y
			moveX, moveY = p.x, p.y
		case pdfSegmentLineTo:
			edgeType := EdgeTypeLine
			if isRect {
				edgeType = EdgeTypeRect
			}
			emit(currentX, currentY, p.x, p.y, edgeType)
			currentX, currentY = p.x, p.y
		case pdfSegmentBezierTo:
			emit(currentX, currentY, p.x, p.y, EdgeTypeCurve)
			currentX, currentY = p.x, p.y
		}

		if p.close {
			edgeType := EdgeTypeLine
			if isRect {
				edgeType = EdgeTypeRect
			} else if hasBezier {
				edgeType = EdgeTypeCurve
			}
			emit(currentX, currentY, moveX, moveY, edgeType)
			currentX, currentY = moveX, moveY
		}
	}

	return edges
}

// isRectangularPath reports whether a path's points form an axis-aligned
// rectangle: at least 4 points, and each of the first min(len,4)
// consecutive wrap-around edges is purely horizontal or purely vertical
// within orientationTolerance.
func isRectangularPath(points []pathPoint) bool {
	if len(points) < 4 {
		return false
	}

	n := len(points)
	if n > 4 {
		n = 4
	}
	for i := 0; i < n; i++ {
		a := points[i]
		b := points[(i+1)%len(points)]
		dx := math.Abs(b.x - a.x)
		dy := math.Abs(b.y - a.y)
		if dx > orientationTolerance && dy > orientationTolerance {
			return false
		}
	}
	return true
}

// isPageBorder reports whether an edge is at the page boundary or spans
// nearly the whole page, and should therefore not be treated as table
// scaffolding.
func isPageBorder(edge Edge, pageWidth, pageHeight float64) bool {
	const borderTolerance = 20.0
	const fullSpanThreshold = 0.90

	if edge.Orientation == Horizontal {
		if edge.Top < borderTolerance || edge.Top > pageHeight-borderTolerance {
			return true
		}
		if edge.Width > pageWidth*fullSpanThreshold {
			return true
		}
	}

	if edge.Orientation == Vertical {
		if edge.X0 < borderTolerance || edge.X0 > pageWidth-borderTolerance {
			return true
		}
		if edge.Height > pageHeight*fullSpanThreshold {
			return true
		}
	}

	return false
}

// lineToEdge converts a two-point path segment to an Edge of the given
// type if it is purely horizontal or purely vertical within
// orientationTolerance; a segment that moves diagonally is dropped.
func lineToEdge(x0, y0, x1, y1 float64, edgeType EdgeType) *Edge {
	width := x1 - x0
	height := y1 - y0
	absWidth := math.Abs(width)
	absHeight := math.Abs(height)

	if absHeight <= orientationTolerance && absWidth > 0.0 {
		left, right := x0, x1
		if left > right {
			left, right = right, left
		}
		avgY := (y0 + y1) / 2
		return &Edge{X0: left, X1: right, Top: avgY, Bottom: avgY, Width: right - left, Orientation: Horizontal, EdgeType: edgeType}
	}
	if absWidth <= orientationTolerance && absHeight > 0.0 {
		top, bottom := y0, y1
		if top > bottom {
			top, bottom = bottom, top
		}
		avgX := (x0 + x1) / 2
		return &Edge{X0: avgX, X1: avgX, Top: top, Bottom: bottom, Height: bottom - top, Orientation: Vertical, EdgeType: edgeType}
	}
	return nil
}

// WordsToEdgesH infers imaginary horizontal rules from rows of aligned
// word tops/bottoms, mirroring pdfplumber's words_to_edges_h.
func WordsToEdgesH(words []EnrichedWord, minWords int) []Edge {
	if len(words) == 0 {
		return nil
	}

	clusters := ClusterWordsByTop(words, 1.0)

	var largeClusters [][]EnrichedWord
	for _, c := range clusters {
		if len(c) >= minWords {
			largeClusters = append(largeClusters, c)
		}
	}
	if len(largeClusters) == 0 {
		return nil
	}

	minX0 := math.MaxFloat64
	maxX1 := -math.MaxFloat64
	for _, c := range largeClusters {
		for _, w := range c {
			minX0 = math.Min(minX0, w.Box.X0)
			maxX1 = math.Max(maxX1, w.Box.X1)
		}
	}

	var edges []Edge
	for _, c := range largeClusters {
		top := c[0].Box.Y0
		bottom := top
		for _, w := range c {
			top = math.Min(top, w.Box.Y0)
			bottom = math.Max(bottom, w.Box.Y1)
		}

		edges = append(edges,
			Edge{X0: minX0, X1: maxX1, Top: top, Bottom: top, Width: maxX1 - minX0, Orientation: Horizontal, EdgeType: EdgeTypeWordBased},
			Edge{X0: minX0, X1: maxX1, Top: bottom, Bottom: bottom, Width: maxX1 - minX0, Orientation: Horizontal, EdgeType: EdgeTypeWordBased},
		)
	}
	return edges
}

// WordsToEdgesV infers imaginary vertical rules from columns of aligned
// word left/right/center positions, mirroring pdfplumber's
// words_to_edges_v.
func WordsToEdgesV(words []EnrichedWord, minWords int) []Edge {
	if len(words) == 0 {
		return nil
	}

	groupByX := func(key func(EnrichedWord) float64) [][]EnrichedWord {
		indexed := ClusterIndicesBy(len(words), func(i int) float64 { return key(words[i]) }, 1.0)
		groups := make([][]EnrichedWord, 0, len(indexed))
		for _, idxs := range indexed {
			group := make([]EnrichedWord, 0, len(idxs))
			for _, i := range idxs {
				group = append(group, words[i])
			}
			groups = append(groups, group)
		}
		return groups
	}

	byX0 := groupByX(func(w EnrichedWord) float64 { return w.Box.X0 })
	byX1 := groupByX(func(w EnrichedWord) float64 { return w.Box.X1 })
	byCenter := groupByX(func(w EnrichedWord) float64 { return (w.Box.X0 + w.Box.X1) / 2 })

	all := append(append(byX0, byX1...), byCenter...)
	sort.Slice(all, func(i, j int) bool { return len(all[i]) > len(all[j]) })

	var largeClusters [][]EnrichedWord
	for _, c := range all {
		if len(c) >= minWords {
			largeClusters = append(largeClusters, c)
		}
	}
	if len(largeClusters) == 0 {
		return nil
	}

	bboxes := make([]Bbox, 0, len(largeClusters))
	for _, c := range largeClusters {
		if len(c) == 0 {
			continue
		}
		bb := Bbox{X0: math.MaxFloat64, Top: math.MaxFloat64, X1: -math.MaxFloat64, Bottom: -math.MaxFloat64}
		for _, w := range c {
			bb.X0 = math.Min(bb.X0, w.Box.X0)
			bb.Top = math.Min(bb.Top, w.Box.Y0)
			bb.X1 = math.Max(bb.X1, w.Box.X1)
			bb.Bottom = math.Max(bb.Bottom, w.Box.Y1)
		}
		bboxes = append(bboxes, bb)
	}

	var condensed []Bbox
	for _, bb := range bboxes {
		overlap := false
		for _, existing := range condensed {
			if !(bb.X1 < existing.X0 || bb.X0 > existing.X1 || bb.Bottom < existing.Top || bb.Top > existing.Bottom) {
				overlap = true
				break
			}
		}
		if !overlap {
			condensed = append(condensed, bb)
		}
	}
	if len(condensed) == 0 {
		return nil
	}

	sort.Slice(condensed, func(i, j int) bool { return condensed[i].X0 < condensed[j].X0 })

	minTop := math.MaxFloat64
	maxBottom := -math.MaxFloat64
	maxX1 := -math.MaxFloat64
	for _, bb := range condensed {
		minTop = math.Min(minTop, bb.Top)
		maxBottom = math.Max(maxBottom, bb.Bottom)
		maxX1 = math.Max(maxX1, bb.X1)
	}

	var edges []Edge
	for _, bb := range condensed {
		edges = append(edges, Edge{X0: bb.X0, X1: bb.X0, Top: minTop, Bottom: maxBottom, Height: maxBottom - minTop, Orientation: Vertical, EdgeType: EdgeTypeWordBased})
	}
	edges = append(edges, Edge{X0: maxX1, X1: maxX1, Top: minTop, Bottom: maxBottom, Height: maxBottom - minTop, Orientation: Vertical, EdgeType: EdgeTypeWordBased})

	return edges
}
