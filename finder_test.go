package pdftables

import "testing"

// gridEdges builds the edges for a 3x3 grid of horizontal lines at
// y in {0, 50, 100} and vertical lines at x in {0, 50, 100}, each
// spanning the full 0..100 extent of the other axis.
func gridEdges() []Edge {
	var edges []Edge
	for _, y := range []float64{0, 50, 100} {
		edges = append(edges, Edge{X0: 0, X1: 100, Top: y, Bottom: y, Width: 100, Orientation: Horizontal, EdgeType: EdgeTypeLine})
	}
	for _, x := range []float64{0, 50, 100} {
		edges = append(edges, Edge{X0: x, X1: x, Top: 0, Bottom: 100, Height: 100, Orientation: Vertical, EdgeType: EdgeTypeLine})
	}
	return edges
}

func TestEdgesToIntersectionsGrid(t *testing.T) {
	settings := DefaultTableSettings()
	intersections := edgesToIntersections(gridEdges(), settings)

	if len(intersections) != 9 {
		t.Fatalf("got %d intersections, want 9", len(intersections))
	}
}

func TestIntersectionsToCellsGrid(t *testing.T) {
	settings := DefaultTableSettings()
	intersections := edgesToIntersections(gridEdges(), settings)
	cells := intersectionsToCells(intersections)

	if len(cells) != 6 {
		t.Fatalf("got %d cells, want 6", len(cells))
	}

	want := []Bbox{
		{X0: 0, Top: 0, X1: 50, Bottom: 50},
		{X0: 50, Top: 0, X1: 100, Bottom: 50},
		{X0: 0, Top: 50, X1: 50, Bottom: 100},
		{X0: 50, Top: 50, X1: 100, Bottom: 100},
	}
	for _, w := range want {
		found := false
		for _, c := range cells {
			if c == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected minimal cell %v not found among %v", w, cells)
		}
	}
}

func TestCellsToTablesGrid(t *testing.T) {
	settings := DefaultTableSettings()
	intersections := edgesToIntersections(gridEdges(), settings)
	cells := intersectionsToCells(intersections)
	groups := cellsToTables(cells)

	if len(groups) != 1 {
		t.Fatalf("got %d tables, want 1", len(groups))
	}
	if len(groups[0]) != 4 {
		t.Fatalf("got %d cells in table, want 4", len(groups[0]))
	}
}

func TestCellsToTablesSeparateClusters(t *testing.T) {
	near := []Bbox{
		{X0: 0, Top: 0, X1: 50, Bottom: 50},
		{X0: 50, Top: 0, X1: 100, Bottom: 50},
	}
	far := []Bbox{
		{X0: 1000, Top: 1000, X1: 1050, Bottom: 1050},
		{X0: 1050, Top: 1000, X1: 1100, Bottom: 1050},
	}
	cells := append(append([]Bbox{}, near...), far...)

	groups := cellsToTables(cells)
	if len(groups) != 2 {
		t.Fatalf("got %d tables, want 2", len(groups))
	}
}

func TestDefaultTableSettings(t *testing.T) {
	s := DefaultTableSettings()

	if s.VerticalStrategy != StrategyLines || s.HorizontalStrategy != StrategyLines {
		t.Errorf("expected lines/lines strategy, got %v/%v", s.VerticalStrategy, s.HorizontalStrategy)
	}
	if s.SnapTolerance != 3.0 || s.JoinTolerance != 3.0 || s.EdgeMinLength != 3.0 || s.IntersectionTolerance != 3.0 {
		t.Errorf("expected all tolerances to default to 3.0, got %+v", s)
	}
	if s.MinWordsVertical != 3 {
		t.Errorf("MinWordsVertical = %d, want 3", s.MinWordsVertical)
	}
	if s.MinWordsHorizontal != 1 {
		t.Errorf("MinWordsHorizontal = %d, want 1", s.MinWordsHorizontal)
	}
}

func word(text string, x0, y0, x1, y1 float64) EnrichedWord {
	return EnrichedWord{Text: text, Box: Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}}
}

func TestFindTablesFromGrid(t *testing.T) {
	page := &Page{
		Width:  100,
		Height: 100,
		Lines:  gridEdges(),
		Paragraphs: []Paragraph{
			{Lines: []Line{{Words: []EnrichedWord{
				word("A", 5, 5, 20, 20),
				word("B", 55, 5, 70, 20),
				word("C", 5, 55, 20, 70),
				word("D", 55, 55, 70, 70),
			}}}},
		},
	}

	tables := DetectTables(page, DefaultTableSettings())
	if len(tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(tables))
	}
	if tables[0].NumRows != 2 || tables[0].NumCols != 2 {
		t.Fatalf("got %dx%d table, want 2x2", tables[0].NumRows, tables[0].NumCols)
	}

	rows := tables[0].Rows()
	if rows[0].Cells[0].Content != "A" || rows[0].Cells[1].Content != "B" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Cells[0].Content != "C" || rows[1].Cells[1].Content != "D" {
		t.Errorf("row 1 = %+v", rows[1])
	}
}

func TestFindTablesExplicitStrategy(t *testing.T) {
	settings := DefaultTableSettings()
	settings.VerticalStrategy = StrategyExplicit
	settings.HorizontalStrategy = StrategyExplicit
	settings.ExplicitVerticalLines = []float64{0, 50, 100}
	settings.ExplicitHorizontalLines = []float64{0, 50, 100}

	page := &Page{
		Width:  100,
		Height: 100,
		Paragraphs: []Paragraph{
			{Lines: []Line{{Words: []EnrichedWord{
				word("A", 5, 5, 20, 20),
				word("B", 55, 5, 70, 20),
				word("C", 5, 55, 20, 70),
				word("D", 55, 55, 70, 70),
			}}}},
		},
	}

	tables := DetectTables(page, settings)
	if len(tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(tables))
	}
	if tables[0].NumRows != 2 || tables[0].NumCols != 2 {
		t.Fatalf("got %dx%d table, want 2x2", tables[0].NumRows, tables[0].NumCols)
	}
}

func TestFindTablesExplicitBoxesAndClip(t *testing.T) {
	settings := DefaultTableSettings()
	settings.VerticalStrategy = StrategyExplicit
	settings.HorizontalStrategy = StrategyExplicit
	settings.ExplicitBoxes = []Bbox{{X0: 0, Top: 0, X1: 50, Bottom: 50}}
	settings.Clip = &Bbox{X0: 0, Top: 0, X1: 60, Bottom: 60}

	page := &Page{Width: 100, Height: 100}

	result, err := FindTables(page, settings, nil, nil)
	if err != nil {
		t.Fatalf("FindTables: %v", err)
	}
	for _, e := range result.Edges {
		if e.Orientation == Horizontal && e.Top > 60 {
			t.Errorf("edge beyond clip bottom leaked through: %+v", e)
		}
		if e.Orientation == Vertical && e.X0 > 60 {
			t.Errorf("edge beyond clip right leaked through: %+v", e)
		}
	}
}

func TestFindTableConvenience(t *testing.T) {
	page := &Page{
		Width:  100,
		Height: 100,
		Lines:  gridEdges(),
		Paragraphs: []Paragraph{
			{Lines: []Line{{Words: []EnrichedWord{
				word("A", 5, 5, 20, 20),
				word("B", 55, 5, 70, 20),
				word("C", 5, 55, 20, 70),
				word("D", 55, 55, 70, 70),
			}}}},
		},
	}

	result, err := FindTables(page, DefaultTableSettings(), nil, nil)
	if err != nil {
		t.Fatalf("FindTables: %v", err)
	}

	best, ok := FindTable(result)
	if !ok {
		t.Fatal("FindTable returned ok=false, want a table")
	}
	if len(best.Cells) != len(result.Tables[0].Cells) {
		t.Errorf("FindTable picked a table with %d cells, want %d", len(best.Cells), len(result.Tables[0].Cells))
	}
}

func TestLinesStrictExcludesRectEdges(t *testing.T) {
	settings := DefaultTableSettings()
	settings.VerticalStrategy = StrategyLinesStrict
	settings.HorizontalStrategy = StrategyLinesStrict

	edges := gridEdges()
	// Taint one horizontal and one vertical edge as rect-derived so
	// LinesStrict must drop them.
	edges[0].EdgeType = EdgeTypeRect
	edges[3].EdgeType = EdgeTypeRect

	page := &Page{Width: 100, Height: 100, Lines: edges}

	result, err := FindTables(page, settings, []EnrichedWord{}, nil)
	if err != nil {
		t.Fatalf("FindTables: %v", err)
	}
	for _, e := range result.Edges {
		if e.EdgeType != EdgeTypeLine {
			t.Errorf("LinesStrict kept a non-line edge: %+v", e)
		}
	}
}
