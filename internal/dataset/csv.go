package dataset

// csv.go reads a Dataset from CSV input.
//
// Delimiter and encoding are caller decisions: the CLI resolves them from
// flags and hands them down here. Only UTF-8 (with or without BOM) and
// Latin-1 are supported; Latin-1 input is transcoded before parsing so the
// rest of the pipeline only ever sees UTF-8.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// CSVOptions controls CSV parsing.
type CSVOptions struct {
	// Delimiter is the field separator (default ',').
	Delimiter rune

	// Encoding is the input character encoding: "utf-8" (default) or
	// "latin-1"/"iso-8859-1".
	Encoding string
}

// ReadCSV parses CSV input into a Dataset. The first record is the header;
// a ragged record surfaces as a ShapeError.
func ReadCSV(r io.Reader, opts CSVOptions) (*Dataset, error) {
	decoded, err := decode(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	// Field-count consistency is checked by New so that ragged input is
	// reported as a ShapeError with a row index, not a csv.ParseError.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("csv input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(rows), err)
		}
		rows = append(rows, record)
	}

	return New(header, rows)
}

func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin-1", "latin1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", encoding)
}
