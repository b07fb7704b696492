package pdftables

import "testing"

func TestMergeCharsIntoBlocksSingleLine(t *testing.T) {
	chars := []CharData{
		{Text: 'H', Box: Rect{X0: 0, Y0: 0, X1: 5, Y1: 10}, FontSize: 10},
		{Text: 'i', Box: Rect{X0: 5, Y0: 0, X1: 8, Y1: 10}, FontSize: 10},
	}

	blocks := MergeCharsIntoBlocks(chars)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if len(blocks[0].Chars) != 2 {
		t.Fatalf("got %d chars in block, want 2", len(blocks[0].Chars))
	}
}

func TestMergeCharsIntoBlocksSeparateParagraphs(t *testing.T) {
	chars := []CharData{
		{Text: 'A', Box: Rect{X0: 0, Y0: 0, X1: 5, Y1: 10}, FontSize: 10},
		{Text: 'B', Box: Rect{X0: 0, Y0: 500, X1: 5, Y1: 510}, FontSize: 10},
	}

	blocks := MergeCharsIntoBlocks(chars)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
}

func TestMergeCharsIntoBlocksEmpty(t *testing.T) {
	if got := MergeCharsIntoBlocks(nil); got != nil {
		t.Fatalf("MergeCharsIntoBlocks(nil) = %v, want nil", got)
	}
}

func TestExtractCharsWithFontsSkipsHyphens(t *testing.T) {
	chars := []EnrichedChar{
		{Text: 'a', FontSize: 10},
		{Text: '-', FontSize: 10, IsHyphen: true},
		{Text: 'b', FontSize: 10},
	}

	got := ExtractCharsWithFonts(chars)
	if len(got) != 2 {
		t.Fatalf("got %d chars, want 2 (hyphen dropped)", len(got))
	}
}
