// Package csvfile reads the sales dataset from a delimited text file.
//
// The file is opened and parsed on every Load call; nothing is retained
// between calls, so concurrent requests never share state.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"salesdash/internal/core"
	"salesdash/internal/records"
)

var ErrMissingColumn = errors.New("missing column in header")

// Ensure interface conformance
var (
	_ records.Source    = (*Source)(nil)
	_ records.Versioner = (*Source)(nil)
)

type Source struct {
	path  string
	comma rune
}

// New returns a source reading the comma separated file at path.
func New(path string) *Source {
	return &Source{path: path, comma: ','}
}

// WithComma returns a copy of the source using a different field delimiter.
func (s *Source) WithComma(comma rune) *Source {
	return &Source{path: s.path, comma: comma}
}

// Path returns the dataset location.
func (s *Source) Path() string {
	return s.path
}

// Load opens the file and parses every row.
func (s *Source) Load(ctx context.Context) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	recs, err := parse(f, s.comma)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return recs, nil
}

// Version derives a change token from the file modification time and size.
func (s *Source) Version(_ context.Context) (string, error) {
	fi, err := os.Stat(s.path)
	if err != nil {
		return "", fmt.Errorf("stat dataset: %w", err)
	}
	return fmt.Sprintf("%d-%d", fi.ModTime().UnixNano(), fi.Size()), nil
}

// parse reads a delimited dataset with a header row.
func parse(r io.Reader, comma rune) ([]core.Record, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = normalizeHeader(h, i == 0)
	}
	for _, name := range core.RequiredFields {
		if indexOf(columns, name) == -1 {
			return nil, fmt.Errorf("%w: %s (got %v)", ErrMissingColumn, name, columns)
		}
	}

	var out []core.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		fields := make(map[string]string, len(columns))
		for i, v := range row {
			if columns[i] != "" {
				fields[columns[i]] = v
			}
		}
		rec, err := core.ParseRecord(fields)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func normalizeHeader(h string, first bool) string {
	if first {
		h = strings.TrimPrefix(h, "\ufeff")
	}
	return strings.ToLower(strings.TrimSpace(h))
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if v == target {
			return i
		}
	}
	return -1
}
