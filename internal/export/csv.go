// Package export serializes batch results as CSV: the original input
// columns followed by the fixed resolution columns.
package export

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/chmatch/internal/model"
)

// WriteCSV writes one record per processed row: input values in the
// original column order, then the resolution columns.
func WriteCSV(w io.Writer, header []string, results []model.RowResult) error {
	cw := csv.NewWriter(w)

	out := make([]string, 0, len(header)+len(model.ExportColumns))
	out = append(out, header...)
	out = append(out, model.ExportColumns...)
	if err := cw.Write(out); err != nil {
		return eris.Wrap(err, "export: write header")
	}

	for _, rr := range results {
		rec := make([]string, 0, len(out))
		for _, col := range header {
			rec = append(rec, rr.Row[col])
		}
		fields := rr.Outcome.ExportFields()
		for _, col := range model.ExportColumns {
			rec = append(rec, fields[col])
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush")
}

// WriteCSVFile writes the results CSV to a file path.
func WriteCSVFile(path string, header []string, results []model.RowResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create file")
	}
	defer f.Close()
	return WriteCSV(f, header, results)
}
