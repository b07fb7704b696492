package pdftables

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"
)

// ErrPageNotFound is wrapped with the offending 1-indexed page number
// when a requested PageRange falls outside a document's page count.
var ErrPageNotFound = errors.New("page not found")

// ErrInvalidPdf reports a structurally invalid split request, such as a
// PageRange whose end precedes its start.
var ErrInvalidPdf = errors.New("invalid pdf range")

// PageRange is an inclusive, 1-indexed range of pages to extract.
type PageRange struct {
	Start int
	End   int
}

// NewPageRange builds a PageRange from 1-indexed start/end page numbers.
func NewPageRange(start, end int) PageRange {
	return PageRange{Start: start, End: end}
}

// validate checks a PageRange against a document's page count: an
// out-of-bounds page number (either end) reports PageNotFound for that
// page; a structurally reversed range (End < Start) reports InvalidPdf.
func (r PageRange) validate(totalPages int) error {
	if r.Start < 1 || r.Start > totalPages {
		return errors.Wrapf(ErrPageNotFound, "page %d", r.Start)
	}
	if r.End < 1 || r.End > totalPages {
		return errors.Wrapf(ErrPageNotFound, "page %d", r.End)
	}
	if r.End < r.Start {
		return errors.Wrapf(ErrInvalidPdf, "range %d-%d", r.Start, r.End)
	}
	return nil
}

func (r PageRange) pageCount() int {
	return r.End - r.Start + 1
}

// pdfConfig builds a pdfcpu configuration carrying the document password,
// if any, as both the user and owner password.
func pdfConfig(password string) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}
	return conf
}

// PageCountWithPassword returns the number of pages in a PDF document,
// decrypting with password if the document is encrypted.
func PageCountWithPassword(data []byte, password string) (int, error) {
	count, err := api.PageCount(bytes.NewReader(data), pdfConfig(password))
	if err != nil {
		return 0, errors.Wrap(err, "failed to read page count")
	}
	return count, nil
}

// PageCount returns the number of pages in an unencrypted PDF document.
func PageCount(data []byte) (int, error) {
	return PageCountWithPassword(data, "")
}

// SplitPDFWithPassword extracts each requested PageRange into its own PDF
// document, validating every range against the document's actual page
// count before extracting any of them.
func SplitPDFWithPassword(data []byte, ranges []PageRange, password string) ([][]byte, error) {
	conf := pdfConfig(password)

	totalPages, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load document")
	}

	for _, r := range ranges {
		if err := r.validate(totalPages); err != nil {
			return nil, err
		}
	}

	parts := make([][]byte, 0, len(ranges))
	for _, r := range ranges {
		var out bytes.Buffer
		selector := []string{fmt.Sprintf("%d-%d", r.Start, r.End)}
		if err := api.Trim(bytes.NewReader(data), &out, selector, conf); err != nil {
			return nil, errors.Wrapf(err, "failed to extract pages %d-%d", r.Start, r.End)
		}
		parts = append(parts, out.Bytes())
	}

	return parts, nil
}

// SplitPDF extracts each requested PageRange from an unencrypted document.
func SplitPDF(data []byte, ranges []PageRange) ([][]byte, error) {
	return SplitPDFWithPassword(data, ranges, "")
}

// SplitIntoPagesWithPassword splits a document into one single-page PDF
// per page.
func SplitIntoPagesWithPassword(data []byte, password string) ([][]byte, error) {
	conf := pdfConfig(password)

	totalPages, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load document")
	}

	ranges := make([]PageRange, totalPages)
	for i := 0; i < totalPages; i++ {
		ranges[i] = PageRange{Start: i + 1, End: i + 1}
	}

	return SplitPDFWithPassword(data, ranges, password)
}

// SplitIntoPages splits an unencrypted document into one single-page PDF
// per page.
func SplitIntoPages(data []byte) ([][]byte, error) {
	return SplitIntoPagesWithPassword(data, "")
}

// SplitIntoChunksWithPassword splits a document into consecutive chunks
// of at most chunkSize pages each; the final chunk may be shorter.
func SplitIntoChunksWithPassword(data []byte, chunkSize int, password string) ([][]byte, error) {
	if chunkSize <= 0 {
		return nil, errors.New("chunk size must be positive")
	}

	conf := pdfConfig(password)
	totalPages, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load document")
	}

	var ranges []PageRange
	for start := 1; start <= totalPages; start += chunkSize {
		end := start + chunkSize - 1
		if end > totalPages {
			end = totalPages
		}
		ranges = append(ranges, PageRange{Start: start, End: end})
	}

	return SplitPDFWithPassword(data, ranges, password)
}

// SplitIntoChunks splits an unencrypted document into consecutive chunks
// of at most chunkSize pages each.
func SplitIntoChunks(data []byte, chunkSize int) ([][]byte, error) {
	return SplitIntoChunksWithPassword(data, chunkSize, "")
}
