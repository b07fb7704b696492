package pdftables

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// TableStrategy selects how edges are discovered for a given orientation.
type TableStrategy int

const (
	// StrategyLines uses every edge (line, rect, curve) extracted from
	// the PDF's drawing objects.
	StrategyLines TableStrategy = iota
	// StrategyLinesStrict restricts the Lines strategy to edges whose
	// EdgeType is EdgeTypeLine, excluding rect/curve-derived edges.
	StrategyLinesStrict
	// StrategyText infers edges from aligned word positions.
	StrategyText
	// StrategyExplicit uses only the caller-supplied ExplicitVerticalLines/
	// ExplicitHorizontalLines/ExplicitBoxes hints for that axis.
	StrategyExplicit
)

// TableSettings configures table detection, mirroring pdfplumber's
// TableSettings knobs.
type TableSettings struct {
	VerticalStrategy   TableStrategy
	HorizontalStrategy TableStrategy

	// ExplicitVerticalLines/ExplicitHorizontalLines are caller-supplied
	// coordinates turned into page-spanning edges regardless of strategy.
	// ExplicitBoxes contributes its own four edges per box. These are the
	// caller hints the Explicit strategy relies on exclusively.
	ExplicitVerticalLines   []float64
	ExplicitHorizontalLines []float64
	ExplicitBoxes           []Bbox

	SnapTolerance  float64
	SnapXTolerance float64
	SnapYTolerance float64

	JoinTolerance  float64
	JoinXTolerance float64
	JoinYTolerance float64

	EdgeMinLength float64

	MinWordsVertical   int
	MinWordsHorizontal int

	IntersectionTolerance  float64
	IntersectionXTolerance float64
	IntersectionYTolerance float64

	// Clip restricts table detection to a sub-region of the page; nil
	// means no restriction. See ClipEdges.
	Clip *Bbox

	// TextTolerance/TextXTolerance/TextYTolerance govern how closely a
	// word's center must sit to a cell's bbox (TextXTolerance horizontally,
	// TextYTolerance vertically, each falling back to TextTolerance when
	// zero) and how large a vertical gap between words is treated as a
	// line break within a cell (TextYTolerance) during text extraction.
	TextTolerance  float64
	TextXTolerance float64
	TextYTolerance float64
}

// DefaultTableSettings returns the default detection settings: "lines"
// strategy on both axes with 3.0pt snap, join, edge-length and
// intersection tolerances, matching pdfplumber's own defaults, and text
// tolerances of 1.0pt (2.0pt vertically).
func DefaultTableSettings() TableSettings {
	return TableSettings{
		VerticalStrategy:       StrategyLines,
		HorizontalStrategy:     StrategyLines,
		SnapTolerance:          3.0,
		SnapXTolerance:         3.0,
		SnapYTolerance:         3.0,
		JoinTolerance:          3.0,
		JoinXTolerance:         3.0,
		JoinYTolerance:         3.0,
		EdgeMinLength:          3.0,
		MinWordsVertical:       3,
		MinWordsHorizontal:     1,
		IntersectionTolerance:  3.0,
		IntersectionXTolerance: 3.0,
		IntersectionYTolerance: 3.0,
		TextTolerance:          1.0,
		TextXTolerance:         1.0,
		TextYTolerance:         2.0,
	}
}

// TableCell is a single detected cell with its bounding box and the text
// content found within it.
type TableCell struct {
	Bbox    Bbox
	Content string
	Words   []EnrichedWord
}

// TableRow is a row of cells aligned to the table's shared column grid:
// Cells[i] is the cell occupying the table's i-th distinct column, or nil
// if that row has no cell there (a spanning or sparse grid).
type TableRow struct {
	Cells []*TableCell
	Bbox  Bbox
}

// DetectedTable is a table found by FindTables: a flat list of minimal
// cells plus the bounding box that encloses them all.
type DetectedTable struct {
	Bbox    Bbox
	Cells   []TableCell
	NumRows int
	NumCols int
}

// Rows groups a table's flat cell list into rows aligned to the table's
// shared column grid: the unique sorted X0 values across every cell become
// the column positions, each row is built by top coordinate, and a cell is
// placed at the column matching its own X0, leaving nil for any column the
// row has no cell in (spanning or sparse grids).
func (t DetectedTable) Rows() []TableRow {
	if len(t.Cells) == 0 {
		return nil
	}

	colSet := make(map[uint64]float64)
	for _, c := range t.Cells {
		colSet[math.Float64bits(c.Bbox.X0)] = c.Bbox.X0
	}
	columns := make([]float64, 0, len(colSet))
	for _, x := range colSet {
		columns = append(columns, x)
	}
	sort.Float64s(columns)
	colIndex := make(map[uint64]int, len(columns))
	for i, x := range columns {
		colIndex[math.Float64bits(x)] = i
	}

	type rowGroup struct {
		top   float64
		cells []*TableCell
	}

	cells := make([]TableCell, len(t.Cells))
	copy(cells, t.Cells)

	var rows []rowGroup
	for i := range cells {
		cell := &cells[i]
		idx := colIndex[math.Float64bits(cell.Bbox.X0)]

		found := false
		for r := range rows {
			if math.Abs(rows[r].top-cell.Bbox.Top) < 1.0 {
				rows[r].cells[idx] = cell
				found = true
				break
			}
		}
		if !found {
			rowCells := make([]*TableCell, len(columns))
			rowCells[idx] = cell
			rows = append(rows, rowGroup{top: cell.Bbox.Top, cells: rowCells})
		}
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].top < rows[j].top })
	result := make([]TableRow, 0, len(rows))
	for _, row := range rows {
		var bbox Bbox
		first := true
		for _, c := range row.cells {
			if c == nil {
				continue
			}
			if first {
				bbox = c.Bbox
				first = false
			} else {
				bbox = MergeBboxes(bbox, c.Bbox)
			}
		}
		result = append(result, TableRow{Cells: row.cells, Bbox: bbox})
	}
	return result
}

// TableFinderResult bundles every stage of the pipeline a caller might want
// to reuse or inspect: the edges that were found or supplied, the
// intersections derived from them, the minimal cells those intersections
// imply, and the tables those cells were grouped into.
type TableFinderResult struct {
	Edges         []Edge
	Intersections map[[2]uint64]*intersectionEdges
	Cells         []Bbox
	Tables        []DetectedTable
}

// intersectionEdges records which edges meet at a given intersection
// point, separated by orientation.
type intersectionEdges struct {
	vertical   []Edge
	horizontal []Edge
}

// collectEdges assembles the working edge set for a page according to the
// configured per-axis strategy: Lines takes every drawn edge, LinesStrict
// keeps only edges classified as straight lines (excluding rects/curves),
// Text infers edges from aligned word positions, and Explicit takes
// nothing from the page at all. ExplicitVerticalLines, ExplicitHorizontalLines
// and ExplicitBoxes are always folded in regardless of strategy, since they
// are caller hints rather than a detection mode.
func collectEdges(page *Page, words []EnrichedWord, settings TableSettings) []Edge {
	var edges []Edge

	switch settings.VerticalStrategy {
	case StrategyLines:
		for _, line := range page.Lines {
			if line.Orientation == Vertical {
				edges = append(edges, line)
			}
		}
	case StrategyLinesStrict:
		for _, line := range page.Lines {
			if line.Orientation == Vertical && line.EdgeType == EdgeTypeLine {
				edges = append(edges, line)
			}
		}
	case StrategyText:
		if len(words) > 0 {
			edges = append(edges, WordsToEdgesV(words, settings.MinWordsVertical)...)
		}
	case StrategyExplicit:
		// handled by explicitEdges below.
	}

	switch settings.HorizontalStrategy {
	case StrategyLines:
		for _, line := range page.Lines {
			if line.Orientation == Horizontal {
				edges = append(edges, line)
			}
		}
	case StrategyLinesStrict:
		for _, line := range page.Lines {
			if line.Orientation == Horizontal && line.EdgeType == EdgeTypeLine {
				edges = append(edges, line)
			}
		}
	case StrategyText:
		if len(words) > 0 {
			edges = append(edges, WordsToEdgesH(words, settings.MinWordsHorizontal)...)
		}
	case StrategyExplicit:
	}

	edges = append(edges, explicitEdges(page, settings)...)

	return edges
}

// explicitEdges turns a TableSettings' explicit-line and explicit-box hints
// into page-spanning (for lines) or box-bounded (for boxes) edges. These
// are folded into the working edge set regardless of which strategy is
// active for either axis.
func explicitEdges(page *Page, settings TableSettings) []Edge {
	var edges []Edge

	for _, x := range settings.ExplicitVerticalLines {
		edges = append(edges, Edge{
			X0: x, Top: 0, X1: x, Bottom: page.Height,
			Width: 0, Height: page.Height,
			Orientation: Vertical, EdgeType: EdgeTypeLine,
		})
	}
	for _, y := range settings.ExplicitHorizontalLines {
		edges = append(edges, Edge{
			X0: 0, Top: y, X1: page.Width, Bottom: y,
			Width: page.Width, Height: 0,
			Orientation: Horizontal, EdgeType: EdgeTypeLine,
		})
	}
	for _, b := range settings.ExplicitBoxes {
		edges = append(edges,
			Edge{X0: b.X0, Top: b.Top, X1: b.X0, Bottom: b.Bottom, Height: b.Height(), Orientation: Vertical, EdgeType: EdgeTypeRect},
			Edge{X0: b.X1, Top: b.Top, X1: b.X1, Bottom: b.Bottom, Height: b.Height(), Orientation: Vertical, EdgeType: EdgeTypeRect},
			Edge{X0: b.X0, Top: b.Top, X1: b.X1, Bottom: b.Top, Width: b.Width(), Orientation: Horizontal, EdgeType: EdgeTypeRect},
			Edge{X0: b.X0, Top: b.Bottom, X1: b.X1, Bottom: b.Bottom, Width: b.Width(), Orientation: Horizontal, EdgeType: EdgeTypeRect},
		)
	}

	return edges
}

// edgesToIntersections finds every point where a vertical and a
// horizontal edge meet within tolerance, keyed by the IEEE-754 bit
// pattern of each coordinate so repeated floats collapse to one key.
func edgesToIntersections(edges []Edge, settings TableSettings) map[[2]uint64]*intersectionEdges {
	intersections := make(map[[2]uint64]*intersectionEdges)

	var vEdges, hEdges []Edge
	for _, e := range edges {
		if e.Orientation == Vertical {
			vEdges = append(vEdges, e)
		} else {
			hEdges = append(hEdges, e)
		}
	}

	xTol := settings.IntersectionXTolerance
	yTol := settings.IntersectionYTolerance

	for _, v := range vEdges {
		for _, h := range hEdges {
			if v.Top <= h.Top+yTol && v.Bottom >= h.Top-yTol &&
				v.X0 >= h.X0-xTol && v.X0 <= h.X1+xTol {
				key := [2]uint64{math.Float64bits(v.X0), math.Float64bits(h.Top)}
				if intersections[key] == nil {
					intersections[key] = &intersectionEdges{}
				}
				intersections[key].vertical = append(intersections[key].vertical, v)
				intersections[key].horizontal = append(intersections[key].horizontal, h)
			}
		}
	}

	return intersections
}

type intersectionPoint struct {
	x, y float64
}

// intersectionsToCells builds the minimal rectangular cells implied by a
// set of intersections: for every point, it looks only at its nearest
// neighbor to the right and below, and accepts the rectangle the instant
// all four corners and all four connecting edges are present — it never
// searches past the first match.
func intersectionsToCells(intersections map[[2]uint64]*intersectionEdges) []Bbox {
	if len(intersections) == 0 {
		return nil
	}

	points := make([]intersectionPoint, 0, len(intersections))
	keyOf := make(map[intersectionPoint][2]uint64, len(intersections))
	for key := range intersections {
		p := intersectionPoint{x: math.Float64frombits(key[0]), y: math.Float64frombits(key[1])}
		points = append(points, p)
		keyOf[p] = key
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].y == points[j].y {
			return points[i].x < points[j].x
		}
		return points[i].y < points[j].y
	})

	edgeConnects := func(p1, p2 intersectionPoint) bool {
		if p1.x == p2.x {
			e1s := intersections[keyOf[p1]].vertical
			e2s := intersections[keyOf[p2]].vertical
			for _, e1 := range e1s {
				for _, e2 := range e2s {
					if e1.X0 == e2.X0 && e1.Top == e2.Top && e1.Bottom == e2.Bottom {
						return true
					}
				}
			}
		}
		if p1.y == p2.y {
			e1s := intersections[keyOf[p1]].horizontal
			e2s := intersections[keyOf[p2]].horizontal
			for _, e1 := range e1s {
				for _, e2 := range e2s {
					if e1.Top == e2.Top && e1.X0 == e2.X0 && e1.X1 == e2.X1 {
						return true
					}
				}
			}
		}
		return false
	}

	var cells []Bbox
	for i, pt := range points {
		var nearestRight, nearestBelow *intersectionPoint

		for j := i + 1; j < len(points); j++ {
			if points[j].x == pt.x && points[j].y > pt.y {
				if nearestBelow == nil || points[j].y < nearestBelow.y {
					nearestBelow = &points[j]
				}
			}
			if points[j].y == pt.y && points[j].x > pt.x {
				if nearestRight == nil || points[j].x < nearestRight.x {
					nearestRight = &points[j]
				}
			}
		}

		if nearestBelow == nil || nearestRight == nil {
			continue
		}
		if !edgeConnects(pt, *nearestBelow) || !edgeConnects(pt, *nearestRight) {
			continue
		}

		bottomRight := intersectionPoint{x: nearestRight.x, y: nearestBelow.y}
		if _, exists := keyOf[bottomRight]; !exists {
			continue
		}
		if edgeConnects(bottomRight, *nearestRight) && edgeConnects(bottomRight, *nearestBelow) {
			cells = append(cells, Bbox{X0: pt.x, Top: pt.y, X1: bottomRight.x, Bottom: bottomRight.y})
		}
	}

	return cells
}

// cellsToTables groups cells into contiguous tables by iteratively
// absorbing any remaining cell that shares a corner with the table being
// built, until no more cells can be absorbed; it then starts a new table
// from whatever remains.
func cellsToTables(cells []Bbox) [][]Bbox {
	if len(cells) == 0 {
		return nil
	}

	remaining := make([]Bbox, len(cells))
	copy(remaining, cells)

	var tables [][]Bbox
	var current []Bbox
	corners := make(map[intersectionPoint]bool)

	for len(remaining) > 0 {
		before := len(current)

		for i := 0; i < len(remaining); i++ {
			cell := remaining[i]
			cellCorners := []intersectionPoint{
				{cell.X0, cell.Top}, {cell.X0, cell.Bottom},
				{cell.X1, cell.Top}, {cell.X1, cell.Bottom},
			}

			if len(current) == 0 {
				current = append(current, cell)
				for _, c := range cellCorners {
					corners[c] = true
				}
				remaining = append(remaining[:i], remaining[i+1:]...)
				i--
				continue
			}

			shared := 0
			for _, c := range cellCorners {
				if corners[c] {
					shared++
				}
			}
			if shared > 0 {
				current = append(current, cell)
				for _, c := range cellCorners {
					corners[c] = true
				}
				remaining = append(remaining[:i], remaining[i+1:]...)
				i--
			}
		}

		if len(current) == before {
			if len(current) > 1 {
				tables = append(tables, current)
			}
			current = nil
			corners = make(map[intersectionPoint]bool)
		}
	}

	if len(current) > 1 {
		tables = append(tables, current)
	}

	return tables
}

// extractTableText assigns words to the cell whose bbox they fall within,
// joining each cell's words in reading order (top-to-bottom, then
// left-to-right within a line).
func extractTableText(cellBboxes []Bbox, words []EnrichedWord, settings TableSettings) []TableCell {
	xTol, yTol, lineTol := settings.TextXTolerance, settings.TextYTolerance, settings.TextYTolerance
	if xTol == 0 {
		xTol = settings.TextTolerance
	}
	if yTol == 0 {
		yTol = settings.TextTolerance
	}

	cells := make([]TableCell, 0, len(cellBboxes))

	for _, bbox := range cellBboxes {
		var cellWords []EnrichedWord
		for _, w := range words {
			cx := (w.Box.X0 + w.Box.X1) / 2
			cy := (w.Box.Y0 + w.Box.Y1) / 2
			if cx >= bbox.X0-xTol && cx <= bbox.X1+xTol &&
				cy >= bbox.Top-yTol && cy <= bbox.Bottom+yTol {
				cellWords = append(cellWords, w)
			}
		}

		sort.Slice(cellWords, func(i, j int) bool {
			if math.Abs(cellWords[i].Box.Y0-cellWords[j].Box.Y0) < lineTol {
				return cellWords[i].Box.X0 < cellWords[j].Box.X0
			}
			return cellWords[i].Box.Y0 < cellWords[j].Box.Y0
		})

		var content string
		for i, w := range cellWords {
			if i > 0 {
				prev := cellWords[i-1]
				if w.Box.Y0-prev.Box.Y1 > lineTol {
					content += "\n"
				} else {
					content += " "
				}
			}
			content += w.Text
		}

		cells = append(cells, TableCell{Bbox: bbox, Content: content, Words: cellWords})
	}

	return cells
}

// FindTables runs the full table detection pipeline over a page: collect
// edges (or use the supplied ones, short-circuiting collection and merge),
// clip to settings.Clip if set, intersect, derive minimal cells, group
// cells into tables, then attach text. Passing words or edges explicitly
// lets a caller reuse extraction already done elsewhere in the pipeline, or
// verify that detection is equivalent whether edges are derived from the
// page or supplied directly.
func FindTables(page *Page, settings TableSettings, words []EnrichedWord, edges []Edge) (*TableFinderResult, error) {
	if page == nil {
		return nil, errors.New("pdftables: cannot find tables on a nil page")
	}

	if words == nil {
		for _, para := range page.Paragraphs {
			for _, line := range para.Lines {
				words = append(words, line.Words...)
			}
		}
	}

	if edges == nil {
		edges = collectEdges(page, words, settings)
		edges = MergeEdges(edges, settings)
		edges = FilterEdges(edges, settings.EdgeMinLength)
	}

	if settings.Clip != nil {
		edges = ClipEdges(edges, *settings.Clip)
	}

	if len(edges) == 0 || len(words) == 0 {
		return &TableFinderResult{Edges: edges}, nil
	}

	intersections := edgesToIntersections(edges, settings)
	cellBboxes := intersectionsToCells(intersections)
	groups := cellsToTables(cellBboxes)

	tables := make([]DetectedTable, 0, len(groups))
	for _, group := range groups {
		cells := extractTableText(group, words, settings)
		cells = dropEmptyRows(cells)
		if len(cells) == 0 {
			continue
		}

		bbox := cells[0].Bbox
		for _, c := range cells[1:] {
			bbox = MergeBboxes(bbox, c.Bbox)
		}

		table := DetectedTable{Bbox: bbox, Cells: cells}
		rows := table.Rows()
		table.NumRows = len(rows)
		maxCols := 0
		for _, r := range rows {
			if len(r.Cells) > maxCols {
				maxCols = len(r.Cells)
			}
		}
		table.NumCols = maxCols
		tables = append(tables, table)
	}

	return &TableFinderResult{Edges: edges, Intersections: intersections, Cells: cellBboxes, Tables: tables}, nil
}

// FindTable returns the table with the greatest cell count from a
// TableFinderResult, for callers that expect a single dominant table per
// page rather than the full list. The second return is false if result is
// nil or holds no tables.
func FindTable(result *TableFinderResult) (*DetectedTable, bool) {
	if result == nil || len(result.Tables) == 0 {
		return nil, false
	}
	best := &result.Tables[0]
	for i := 1; i < len(result.Tables); i++ {
		if len(result.Tables[i].Cells) > len(best.Cells) {
			best = &result.Tables[i]
		}
	}
	return best, true
}

// dropEmptyRows removes cells belonging to rows where every cell is
// blank, matching pdfplumber's handling of whitespace-only table rows.
func dropEmptyRows(cells []TableCell) []TableCell {
	if len(cells) == 0 {
		return cells
	}
	table := DetectedTable{Cells: cells}
	rows := table.Rows()

	result := make([]TableCell, 0, len(cells))
	for _, row := range rows {
		hasContent := false
		for _, c := range row.Cells {
			if c != nil && len(c.Content) > 0 {
				hasContent = true
				break
			}
		}
		if hasContent {
			for _, c := range row.Cells {
				if c != nil {
					result = append(result, *c)
				}
			}
		}
	}
	return result
}

// DetectTables finds tables in a page using word alignment, explicit
// lines, or both depending on settings. It is a thin convenience over
// FindTables for callers that only want the final table list and are
// willing to let detection failures degrade to "no tables" rather than
// surface an error.
func DetectTables(page *Page, settings TableSettings) []DetectedTable {
	result, err := FindTables(page, settings, nil, nil)
	if err != nil {
		return nil
	}
	return result.Tables
}

// calculateTableOverlap returns the fraction of t1's area covered by its
// intersection with t2, used to deduplicate tables found by more than one
// detection strategy.
func calculateTableOverlap(t1, t2 DetectedTable) float64 {
	overlap, ok := GetBboxOverlap(t1.Bbox, t2.Bbox)
	if !ok {
		return 0
	}
	area1 := t1.Bbox.Width() * t1.Bbox.Height()
	if area1 <= 0 {
		return 0
	}
	overlapArea := overlap.Width() * overlap.Height()
	return overlapArea / area1
}

// deduplicateTables drops tables that substantially overlap an
// already-kept table (by area, from either the same or a different
// detector), keeping the first-seen table in each overlapping group.
func deduplicateTables(tables []DetectedTable) []DetectedTable {
	const overlapThreshold = 0.7

	var unique []DetectedTable
	for _, candidate := range tables {
		duplicate := false
		for _, kept := range unique {
			if calculateTableOverlap(candidate, kept) > overlapThreshold ||
				calculateTableOverlap(kept, candidate) > overlapThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, candidate)
		}
	}
	return unique
}
