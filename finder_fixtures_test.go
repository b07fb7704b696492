package pdftables_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	pdftables "github.com/ivanvanderbyl/pdftables"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
	"github.com/stretchr/testify/require"
)

// loadFixturePage opens page pageIndex of a testdata fixture, skipping the
// test if the fixture isn't present in this checkout.
func loadFixturePage(t *testing.T, name string, pageIndex int) (*pdftables.Page, func()) {
	t.Helper()

	pdfPath := filepath.Join("testdata", name)
	if _, statErr := os.Stat(pdfPath); statErr != nil {
		t.Skip("fixture not found: " + pdfPath)
	}

	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	require.NoError(t, err)

	instance, err := pool.GetInstance(time.Second * 30)
	require.NoError(t, err)

	doc, err := instance.OpenDocument(&requests.OpenDocument{
		FilePath: &pdfPath,
	})
	require.NoError(t, err)

	pageResp, err := instance.FPDF_LoadPage(&requests.FPDF_LoadPage{
		Document: doc.Document,
		Index:    pageIndex,
	})
	require.NoError(t, err)

	config := pdftables.DefaultConfig()
	page, err := pdftables.ExtractPage(instance, pageResp.Page, pageIndex+1, config)
	require.NoError(t, err)

	cleanup := func() {
		instance.FPDF_ClosePage(&requests.FPDF_ClosePage{Page: pageResp.Page})
		instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
		pool.Close()
	}

	return page, cleanup
}

// TestFindTablesFixture_Issue336 expects issue-336-example.pdf (pdfplumber
// fixture) to yield exactly 3 tables on page 1 with row counts 8, 11, 2.
func TestFindTablesFixture_Issue336(t *testing.T) {
	page, cleanup := loadFixturePage(t, "issue-336-example.pdf", 0)
	defer cleanup()

	tables := pdftables.DetectTables(page, pdftables.DefaultTableSettings())
	require.Len(t, tables, 3)

	wantRows := []int{8, 11, 2}
	for i, table := range tables {
		require.Len(t, table.Rows(), wantRows[i], "table %d row count", i)
	}
}

// TestFindTablesFixture_DottedGridlines expects
// pymupdf-dotted-gridlines.pdf to yield 3 tables shaped
// (11x12), (25x11), (1x10).
func TestFindTablesFixture_DottedGridlines(t *testing.T) {
	page, cleanup := loadFixturePage(t, "pymupdf-dotted-gridlines.pdf", 0)
	defer cleanup()

	tables := pdftables.DetectTables(page, pdftables.DefaultTableSettings())
	require.Len(t, tables, 3)

	type shape struct{ rows, cols int }
	want := []shape{{11, 12}, {25, 11}, {1, 10}}
	for i, table := range tables {
		rows := table.Rows()
		require.Len(t, rows, want[i].rows, "table %d rows", i)
		require.Equal(t, want[i].cols, table.NumCols, "table %d cols", i)
	}
}

// TestFindTablesFixture_RotatedPages expects pymupdf-test-2812.pdf (pages
// rotated 0/90/180/270) to yield one 40-cell table per page, shaped 8x5 or
// 5x8.
func TestFindTablesFixture_RotatedPages(t *testing.T) {
	for pageIndex := 0; pageIndex < 4; pageIndex++ {
		page, cleanup := loadFixturePage(t, "pymupdf-test-2812.pdf", pageIndex)

		tables := pdftables.DetectTables(page, pdftables.DefaultTableSettings())
		require.Len(t, tables, 1, "page %d", pageIndex)

		table := tables[0]
		require.Equal(t, 40, len(table.Cells), "page %d total cells", pageIndex)

		rows := len(table.Rows())
		require.Contains(t, []int{8, 5}, rows, "page %d row count", pageIndex)
		if rows == 8 {
			require.Equal(t, 5, table.NumCols, "page %d cols", pageIndex)
		} else {
			require.Equal(t, 8, table.NumCols, "page %d cols", pageIndex)
		}

		cleanup()
	}
}

// TestFindTablesFixture_ChineseTables expects pymupdf-chinese-tables.pdf to
// yield exactly 2 tables shaped 12x5 and 5x5, both with an un-external,
// row-0 header.
func TestFindTablesFixture_ChineseTables(t *testing.T) {
	page, cleanup := loadFixturePage(t, "pymupdf-chinese-tables.pdf", 0)
	defer cleanup()

	tables := pdftables.DetectTables(page, pdftables.DefaultTableSettings())
	require.Len(t, tables, 2)

	type shape struct{ rows, cols int }
	want := []shape{{12, 5}, {5, 5}}
	for i, table := range tables {
		rows := table.Rows()
		require.Len(t, rows, want[i].rows, "table %d rows", i)
		require.Equal(t, want[i].cols, table.NumCols, "table %d cols", i)

		built, err := pdftables.BuildTable(table, page, page.Number)
		require.NoError(t, err)
		require.False(t, built.Header.External, "table %d header.external", i)
		require.Equal(t, built.Cells[0], built.Header.Names, "table %d header.names", i)
	}
}
