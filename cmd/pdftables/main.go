package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/webassembly"
	"github.com/urfave/cli/v3"

	"github.com/ivanvanderbyl/pdftables"
)

func main() {
	cmd := &cli.Command{
		Name:  "pdftables",
		Usage: "Extract tables and markdown from PDF files",
		Commands: []*cli.Command{
			markdownCommand(),
			csvCommand(),
			splitCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func markdownCommand() *cli.Command {
	return &cli.Command{
		Name:  "markdown",
		Usage: "Convert a PDF to markdown",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Input PDF file path", Required: true},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output markdown file path (default: stdout)"},
			&cli.IntFlag{Name: "start-page", Usage: "Start page number (0-indexed)", Value: -1},
			&cli.IntFlag{Name: "end-page", Usage: "End page number (0-indexed)", Value: -1},
		},
		Action: convertPDF,
	}
}

func convertPDF(_ context.Context, cmd *cli.Command) error {
	inputPath := cmd.String("input")
	outputPath := cmd.String("output")
	startPage := cmd.Int("start-page")
	endPage := cmd.Int("end-page")

	instance, pool, err := newPdfiumInstance()
	if err != nil {
		return err
	}
	defer pool.Close()

	converter := pdftables.NewConverter(instance)

	info, err := converter.GetDocumentInfo(inputPath)
	if err != nil {
		return fmt.Errorf("failed to get document info: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Processing PDF with %d pages...\n", info.PageCount)

	var markdown string
	if startPage >= 0 || endPage >= 0 {
		if startPage < 0 {
			startPage = 0
		}
		if endPage < 0 {
			endPage = info.PageCount - 1
		}
		fmt.Fprintf(os.Stderr, "Converting pages %d to %d...\n", startPage+1, endPage+1)
		markdown, err = converter.ConvertPageRange(inputPath, startPage, endPage)
	} else {
		fmt.Fprintf(os.Stderr, "Converting all pages...\n")
		markdown, err = converter.ConvertFile(inputPath)
	}
	if err != nil {
		return fmt.Errorf("failed to convert PDF: %w", err)
	}

	return writeOutput(outputPath, markdown)
}

func csvCommand() *cli.Command {
	return &cli.Command{
		Name:  "csv",
		Usage: "Extract detected tables from a PDF as CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Input PDF file path", Required: true},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Directory to write one CSV file per table (default: stdout)"},
		},
		Action: extractCSV,
	}
}

func extractCSV(_ context.Context, cmd *cli.Command) error {
	inputPath := cmd.String("input")
	outputDir := cmd.String("output-dir")

	instance, pool, err := newPdfiumInstance()
	if err != nil {
		return err
	}
	defer pool.Close()

	converter := pdftables.NewConverter(instance)
	doc, err := converter.ExtractDocument(inputPath)
	if err != nil {
		return fmt.Errorf("failed to extract document: %w", err)
	}

	tableIndex := 0
	for pageIdx, page := range doc.Pages {
		for _, table := range page.Tables {
			csvText, err := pdftables.TableToCSVString(table)
			if err != nil {
				return fmt.Errorf("failed to render table as csv: %w", err)
			}

			if outputDir == "" {
				fmt.Printf("# page %d, table %d\n%s\n", pageIdx+1, tableIndex, csvText)
			} else {
				name := fmt.Sprintf("page-%02d-table-%02d.csv", pageIdx+1, tableIndex)
				path := filepath.Join(outputDir, name)
				if err := os.WriteFile(path, []byte(csvText), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
			}
			tableIndex++
		}
	}

	return nil
}

func splitCommand() *cli.Command {
	return &cli.Command{
		Name:  "split",
		Usage: "Split a PDF into page ranges, single pages, or fixed-size chunks",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Input PDF file path", Required: true},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Directory to write the split PDFs to", Required: true},
			&cli.StringFlag{Name: "ranges", Usage: "Comma-separated 1-indexed page ranges, e.g. \"1-3,5-5\""},
			&cli.IntFlag{Name: "chunk-size", Usage: "Split into fixed-size chunks of this many pages"},
			&cli.BoolFlag{Name: "pages", Usage: "Split into one PDF per page"},
			&cli.StringFlag{Name: "password", Usage: "Password for an encrypted document"},
		},
		Action: splitPDF,
	}
}

func splitPDF(_ context.Context, cmd *cli.Command) error {
	inputPath := cmd.String("input")
	outputDir := cmd.String("output-dir")
	rangesFlag := cmd.String("ranges")
	chunkSize := cmd.Int("chunk-size")
	splitPages := cmd.Bool("pages")
	password := cmd.String("password")

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	var parts [][]byte
	switch {
	case rangesFlag != "":
		ranges, err := parsePageRanges(rangesFlag)
		if err != nil {
			return err
		}
		parts, err = pdftables.SplitPDFWithPassword(data, ranges, password)
		if err != nil {
			return fmt.Errorf("failed to split pdf: %w", err)
		}
	case chunkSize > 0:
		parts, err = pdftables.SplitIntoChunksWithPassword(data, chunkSize, password)
		if err != nil {
			return fmt.Errorf("failed to split pdf into chunks: %w", err)
		}
	case splitPages:
		parts, err = pdftables.SplitIntoPagesWithPassword(data, password)
		if err != nil {
			return fmt.Errorf("failed to split pdf into pages: %w", err)
		}
	default:
		return fmt.Errorf("one of --ranges, --chunk-size, or --pages is required")
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for i, part := range parts {
		path := filepath.Join(outputDir, fmt.Sprintf("part-%03d.pdf", i))
		if err := os.WriteFile(path, part, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	}

	return nil
}

// parsePageRanges parses a comma-separated list of "start-end" page
// ranges into PageRange values.
func parsePageRanges(s string) ([]pdftables.PageRange, error) {
	var ranges []pdftables.PageRange
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.SplitN(part, "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid page range %q: expected start-end", part)
		}
		start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid page range %q: %w", part, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid page range %q: %w", part, err)
		}
		ranges = append(ranges, pdftables.NewPageRange(start, end))
	}
	return ranges, nil
}

func writeOutput(outputPath, content string) error {
	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Markdown written to %s\n", outputPath)
		return nil
	}
	fmt.Println(content)
	return nil
}

func newPdfiumInstance() (pdfium.Pdfium, io.Closer, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise pdfium: %w", err)
	}

	instance, err := pool.GetInstance(time.Second * 30)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to get pdfium instance: %w", err)
	}

	return instance, pool, nil
}
