package pdftables

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
)

// TableToCSV writes a detected table to w as RFC 4180 CSV: fields
// containing the delimiter, a quote, or a newline are quoted, and
// embedded quotes are doubled. Cell newlines are preserved rather than
// flattened, matching encoding/csv's own quoting behaviour.
func TableToCSV(table DetectedTable, w io.Writer) error {
	rows := table.Rows()
	if len(rows) == 0 {
		return nil
	}

	csvWriter := csv.NewWriter(w)

	for _, row := range rows {
		record := make([]string, table.NumCols)
		for i := 0; i < table.NumCols; i++ {
			if i < len(row.Cells) && row.Cells[i] != nil {
				record[i] = row.Cells[i].Content
			}
		}
		if err := csvWriter.Write(record); err != nil {
			return errors.Wrap(err, "failed to write csv row")
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return errors.Wrap(err, "failed to flush csv writer")
	}
	return nil
}

// TableToCSVString renders a detected table as a CSV string.
func TableToCSVString(table DetectedTable) (string, error) {
	var buf bytes.Buffer
	if err := TableToCSV(table, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
