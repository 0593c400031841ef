// Package wave defines the loader boundary: the engine consumes raw wave
// tables through the Loader interface and never sees file formats. The CSV
// loader is the reference implementation for the usual layout of one family
// file per wave plus one cumulative cross-year individual file.
package wave

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hxia920/PSID/internal/table"
)

// Loader supplies raw tables to the pipeline. Family returns one table per
// wave; Individual returns the cumulative individual file, whose wave-
// specific columns the variable map resolves per wave.
type Loader interface {
	Family(ctx context.Context, wave int) (*table.Table, error)
	Individual(ctx context.Context) (*table.Table, error)
}

// CSVLoader reads fam<year>.csv and ind.csv from a data directory.
// Gzip-compressed variants (.csv.gz) are picked up when the plain file is
// absent.
type CSVLoader struct {
	dir string
}

// NewCSVLoader creates a loader rooted at dir.
func NewCSVLoader(dir string) *CSVLoader {
	return &CSVLoader{dir: dir}
}

// Family loads one wave's family file.
func (l *CSVLoader) Family(ctx context.Context, wave int) (*table.Table, error) {
	return l.read(ctx, fmt.Sprintf("fam%d.csv", wave))
}

// Individual loads the cumulative individual file.
func (l *CSVLoader) Individual(ctx context.Context) (*table.Table, error) {
	return l.read(ctx, "ind.csv")
}

func (l *CSVLoader) read(ctx context.Context, name string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(l.dir, name)
	var rdr io.Reader
	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		rdr = f
	} else {
		gf, gerr := os.Open(path + ".gz")
		if gerr != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer gf.Close()
		gz, gerr := gzip.NewReader(gf)
		if gerr != nil {
			return nil, fmt.Errorf("decompressing %s.gz: %w", path, gerr)
		}
		defer gz.Close()
		rdr = gz
	}

	return ReadCSV(rdr, name)
}

// ReadCSV parses a header-led CSV stream into a raw table. Empty fields and
// "." (the common missing-data marker in survey extracts) become nulls;
// anything else must parse as a number.
func ReadCSV(r io.Reader, name string) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", name, err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}

	cols := make([][]table.Value, len(names))
	rows := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", name, rows+2, err)
		}
		for i, field := range rec {
			v, err := parseCell(field)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %q: %w", name, rows+2, names[i], err)
			}
			cols[i] = append(cols[i], v)
		}
		rows++
	}

	t := table.New(rows)
	for i, n := range names {
		col := cols[i]
		if col == nil {
			col = table.NullColumn(rows)
		}
		if err := t.AddColumn(n, col); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return t, nil
}

func parseCell(field string) (table.Value, error) {
	s := strings.TrimSpace(field)
	if s == "" || s == "." {
		return table.Null, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return table.Null, err
	}
	return table.Num(f), nil
}
