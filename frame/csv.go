package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadCSV parses a CSV document with a header row into a frame. Cell types
// are inferred per cell: empty cells become null, integers and floats are
// detected, anything else stays a string. Short records are padded with
// nulls so every row exposes the full header.
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: cannot read header: %w", err)
	}
	f := New(header...)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		row := make([]Value, len(header))
		for i := range header {
			if i < len(rec) {
				row[i] = ParseValue(rec[i])
			} else {
				row[i] = Null()
			}
		}
		f.rows = append(f.rows, row)
	}
	return f, nil
}

// WriteCSV persists the frame with every non-numeric field quoted, the shape
// the dashboard layer consumes. Nulls are written as quoted empty fields.
func (f *Frame) WriteCSV(w io.Writer) error {
	var b strings.Builder
	writeRow := func(fields []string) error {
		b.Reset()
		for i, field := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(field)
		}
		b.WriteByte('\n')
		_, err := io.WriteString(w, b.String())
		return err
	}

	header := make([]string, len(f.cols))
	for i, c := range f.cols {
		header[i] = quote(c)
	}
	if err := writeRow(header); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	fields := make([]string, len(f.cols))
	for _, r := range f.rows {
		for i, v := range r {
			if _, ok := v.Numeric(); ok {
				fields[i] = v.String()
			} else {
				fields[i] = quote(v.String())
			}
		}
		if err := writeRow(fields); err != nil {
			return fmt.Errorf("csv: %w", err)
		}
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
