package report

import (
	"bufio"
	"io"
	"strings"

	"waste_tracker/internal/models"
)

const (
	utf8BOM      = "\ufeff"
	csvSeparator = ';'
)

// WriteCSV writes one row per mission: UTF-8 with a byte-order mark,
// semicolon separated, every field quoted.
func WriteCSV(w io.Writer, missions []models.Mission, cols []Column) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(utf8BOM)
	fields := make([]string, len(cols))
	for i, c := range cols {
		fields[i] = c.Header
	}
	writeRecord(bw, fields)
	for i := range missions {
		for j, c := range cols {
			fields[j] = c.Text(&missions[i])
		}
		writeRecord(bw, fields)
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(csvSeparator)
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}
