package csvutil

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// Row is implemented by any record type that can serialize itself to CSV
// columns; the header is fixed per type and written once per file.
type Row interface {
	Header() []string
	Row() []string
}

// Encode serializes rows to CSV bytes: one header line, then one line per
// row, in order. An empty rows slice still produces a header-only CSV.
func Encode[T Row](rows []T) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	var zero T
	header := zero.Header()
	if len(rows) > 0 {
		header = rows[0].Header()
	}
	if header != nil {
		if err := w.Write(header); err != nil {
			return nil, fmt.Errorf("csv header: %w", err)
		}
	}
	for _, r := range rows {
		if err := w.Write(r.Row()); err != nil {
			return nil, fmt.Errorf("csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses CSV bytes produced by Encode, skipping the header row and
// calling parse for every data row.
func Decode[T any](data []byte, parse func(record []string) (T, error)) ([]T, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	_ = header

	var out []T
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv row: %w", err)
		}
		item, err := parse(record)
		if err != nil {
			return nil, fmt.Errorf("csv row parse: %w", err)
		}
		out = append(out, item)
	}
	return out, nil
}
