package pdftables

import (
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// TextStyle is the combination of style flags carried by a single
// character. Characters sharing an identical TextStyle form one run.
type TextStyle struct {
	Bold          bool
	Italic        bool
	Monospaced    bool
	Strikethrough bool
}

// CharPos is a single character positioned for cell assignment and
// style-run reconstruction. MidX/MidY are the glyph box centre used to
// decide which cell the character belongs to; LineY is the glyph's bottom
// edge, used only to detect line breaks within a cell.
type CharPos struct {
	Char  rune
	MidX  float64
	MidY  float64
	LineY float64
	Style TextStyle
}

// StyleRun is a maximal run of characters sharing the same TextStyle, or a
// line-break sentinel (IsLineBreak) inserted between two lines of the same
// cell.
type StyleRun struct {
	Text          string
	Bold          bool
	Italic        bool
	Monospace     bool
	Strikethrough bool
	IsLineBreak   bool
}

// StyledCellText is a table cell's reconstructed text in two forms: Plain
// has internal whitespace collapsed to single spaces, Styled is the inline
// Markdown rendering with run markers and <br> between lines.
type StyledCellText struct {
	Plain   string
	Styled  string
	HasBold bool
}

// TableHeader records which row of a Table is its header. When External is
// false, Names is that row's own plain cell text; this core never infers
// an external header from text surrounding the table.
type TableHeader struct {
	Names    []string
	External bool
	RowIndex int
}

// Table is the rendering-ready form of a DetectedTable: a row-major grid
// of plain strings, its Markdown rendering, the page it was found on, and
// its header, for callers that don't want to work with cell geometry.
type Table struct {
	Cells      [][]string
	Markdown   string
	PageNumber int
	Header     *TableHeader
}

const forceBoldFlag = 1 << 18 // PDF FontDescriptor ForceBold bit.
const italicFlag = 1 << 6     // PDF FontDescriptor Italic bit.
const fixedPitchFlag = 1 << 0 // PDF FontDescriptor FixedPitch bit.

// charIsBold reports whether a character is bold: its reported weight is
// at least 700, its font carries the force-bold flag, or its font name
// contains a case-sensitive "Bold"/"bold"/"BOLD" substring.
func charIsBold(c EnrichedChar) bool {
	if c.FontWeight >= 700 || c.FontFlags&forceBoldFlag != 0 {
		return true
	}
	return strings.Contains(c.FontName, "Bold") ||
		strings.Contains(c.FontName, "bold") ||
		strings.Contains(c.FontName, "BOLD")
}

func charIsItalic(c EnrichedChar) bool {
	return c.FontFlags&italicFlag != 0
}

func charIsMonospace(c EnrichedChar) bool {
	return c.FontFlags&fixedPitchFlag != 0
}

// charIsStrikethrough reports whether one of the page's horizontal line
// edges crosses a character's vertical middle third and spans at least
// 60% of its width.
func charIsStrikethrough(c EnrichedChar, lines []Edge) bool {
	height := c.Box.Height()
	if height <= 0 {
		return false
	}
	midTop := c.Box.Y0 + height/3
	midBottom := c.Box.Y1 - height/3
	minSpan := c.Box.Width() * 0.6

	for _, e := range lines {
		if e.Orientation != Horizontal {
			continue
		}
		if e.Top < midTop || e.Top > midBottom {
			continue
		}
		overlap := math.Min(e.X1, c.Box.X1) - math.Max(e.X0, c.Box.X0)
		if overlap >= minSpan {
			return true
		}
	}
	return false
}

// assignCharsToCell collects every non-hyphen character whose glyph centre
// falls within a cell's bbox (half-open on the right/bottom, via
// PointInBbox), computing each character's style from the page's font
// metrics and drawing objects.
func assignCharsToCell(cellBbox Bbox, pageChars []EnrichedChar, pageLines []Edge) []CharPos {
	var result []CharPos
	for _, c := range pageChars {
		if c.IsHyphen {
			continue
		}
		midX := c.Box.CenterX()
		midY := c.Box.CenterY()
		if !PointInBbox(midX, midY, cellBbox) {
			continue
		}
		result = append(result, CharPos{
			Char:  c.Text,
			MidX:  midX,
			MidY:  midY,
			LineY: c.Box.Y1,
			Style: TextStyle{
				Bold:          charIsBold(c),
				Italic:        charIsItalic(c),
				Monospaced:    charIsMonospace(c),
				Strikethrough: charIsStrikethrough(c, pageLines),
			},
		})
	}
	return result
}

// buildCellStyleRuns sorts a cell's characters by (mid_y, mid_x) and walks
// them into style runs, breaking on a style change or on a vertical jump
// greater than 5.0 page-units between consecutive characters' LineY. A
// jump inserts a "\n" sentinel run between the two surrounding runs.
func buildCellStyleRuns(chars []CharPos) []StyleRun {
	if len(chars) == 0 {
		return nil
	}

	sorted := make([]CharPos, len(chars))
	copy(sorted, chars)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].MidY != sorted[j].MidY {
			return sorted[i].MidY < sorted[j].MidY
		}
		return sorted[i].MidX < sorted[j].MidX
	})

	var runs []StyleRun
	var current strings.Builder
	currentStyle := sorted[0].Style
	prevLineY := sorted[0].LineY

	flush := func() {
		if current.Len() == 0 {
			return
		}
		runs = append(runs, StyleRun{
			Text:          current.String(),
			Bold:          currentStyle.Bold,
			Italic:        currentStyle.Italic,
			Monospace:     currentStyle.Monospaced,
			Strikethrough: currentStyle.Strikethrough,
		})
		current.Reset()
	}

	for i, c := range sorted {
		if i > 0 {
			lineBreak := math.Abs(c.LineY-prevLineY) > 5.0
			if lineBreak || c.Style != currentStyle {
				flush()
				if lineBreak {
					runs = append(runs, StyleRun{Text: "\n", IsLineBreak: true})
				}
				currentStyle = c.Style
			}
		}
		current.WriteRune(c.Char)
		prevLineY = c.LineY
	}
	flush()

	return runs
}

// splitOuterWhitespace splits s into its leading whitespace, trimmed
// interior, and trailing whitespace, so emphasis markers can be placed
// around the interior without swallowing surrounding spaces.
func splitOuterWhitespace(s string) (leading, inner, trailing string) {
	trimmedLeft := strings.TrimLeft(s, " \t")
	leading = s[:len(s)-len(trimmedLeft)]
	inner = strings.TrimRight(trimmedLeft, " \t")
	trailing = trimmedLeft[len(inner):]
	return leading, inner, trailing
}

// renderStyleRun renders one run as Markdown, nesting emphasis markers in
// a fixed order innermost-first: monospace, then italic, then bold, then
// strikethrough. A line-break sentinel renders as <br>.
func renderStyleRun(run StyleRun) string {
	if run.IsLineBreak {
		return "<br>"
	}

	leading, inner, trailing := splitOuterWhitespace(run.Text)
	if inner == "" {
		return run.Text
	}

	text := inner
	if run.Monospace {
		text = "`" + text + "`"
	}
	if run.Italic {
		text = "_" + text + "_"
	}
	if run.Bold {
		text = "**" + text + "**"
	}
	if run.Strikethrough {
		text = "~~" + text + "~~"
	}
	return leading + text + trailing
}

// renderStyledCell joins a cell's runs left-to-right and trims the result.
func renderStyledCell(runs []StyleRun) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(renderStyleRun(r))
	}
	return strings.TrimSpace(sb.String())
}

// renderPlainCell concatenates a cell's run texts, rendering each
// line-break sentinel as a single space, then collapses all whitespace.
func renderPlainCell(runs []StyleRun) string {
	var sb strings.Builder
	for _, r := range runs {
		if r.IsLineBreak {
			sb.WriteString(" ")
			continue
		}
		sb.WriteString(r.Text)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// BuildStyledCellText reconstructs a single cell's plain and styled text
// from the page's characters and drawing objects.
func BuildStyledCellText(cell TableCell, pageChars []EnrichedChar, pageLines []Edge) StyledCellText {
	runs := buildCellStyleRuns(assignCharsToCell(cell.Bbox, pageChars, pageLines))

	hasBold := false
	for _, r := range runs {
		if r.Bold {
			hasBold = true
			break
		}
	}

	return StyledCellText{
		Plain:   renderPlainCell(runs),
		Styled:  renderStyledCell(runs),
		HasBold: hasBold,
	}
}

// ExtractTableTextStyled reconstructs every cell of a table as styled
// text, aligned to the table's column grid exactly as DetectedTable.Rows
// aligns it, using the page's characters and drawing objects for style-run
// and strikethrough detection.
func ExtractTableTextStyled(table DetectedTable, page *Page) ([][]StyledCellText, error) {
	if page == nil {
		return nil, errors.New("pdftables: cannot extract styled table text from a nil page")
	}

	rows := table.Rows()
	result := make([][]StyledCellText, len(rows))
	for i, row := range rows {
		cells := make([]StyledCellText, len(row.Cells))
		for j, cell := range row.Cells {
			if cell == nil {
				continue
			}
			cells[j] = BuildStyledCellText(*cell, page.Chars, page.Lines)
		}
		result[i] = cells
	}
	return result, nil
}

// DetectHeaderRow reports whether a table's first row is confirmed as a
// header by its styling: every one of its cells is bold and at least one
// cell in the second row is not. The header is always row 0 regardless of
// this result (see BuildTable); the confirmation only records whether the
// styling signal backs that default up.
func DetectHeaderRow(table DetectedTable) bool {
	rows := table.Rows()
	if len(rows) == 0 {
		return false
	}

	first := rows[0]
	if len(first.Cells) == 0 {
		return false
	}

	allBold := true
	for _, cell := range first.Cells {
		if cell == nil {
			continue
		}
		for _, w := range cell.Words {
			if !w.IsBold {
				allBold = false
				break
			}
		}
		if !allBold {
			break
		}
	}
	if !allBold || len(rows) < 2 {
		return false
	}

	for _, cell := range rows[1].Cells {
		if cell == nil {
			continue
		}
		for _, w := range cell.Words {
			if !w.IsBold {
				return true
			}
		}
	}
	return false
}

// BuildTable converts a DetectedTable into the public Table representation:
// a plain [][]string grid, its Markdown rendering, and header metadata.
// Per the row-0 header policy, the header is always the row at index 0 and
// External is always false; this core never infers a header from text
// outside the table's bbox.
func BuildTable(table DetectedTable, page *Page, pageNumber int) (*Table, error) {
	styledRows, err := ExtractTableTextStyled(table, page)
	if err != nil {
		return nil, err
	}
	if len(styledRows) == 0 {
		return nil, errors.New("pdftables: table has no rows")
	}

	cells := make([][]string, len(styledRows))
	for i, row := range styledRows {
		plain := make([]string, len(row))
		for j, c := range row {
			plain[j] = c.Plain
		}
		cells[i] = plain
	}

	return &Table{
		Cells:      cells,
		Markdown:   TableToMarkdown(styledRows),
		PageNumber: pageNumber,
		Header: &TableHeader{
			Names:    cells[0],
			External: false,
			RowIndex: 0,
		},
	}, nil
}
