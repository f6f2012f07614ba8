// Package csvfile reads import row-sets from CSV files, one row-set per file.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"bookkeeper/internal/core"
	ports "bookkeeper/internal/sheets"
)

var _ ports.RowSetReader = (*Source)(nil)

// maxParallel bounds the number of files open at once.
const maxParallel = 4

type Source struct {
	paths []string
}

// New reads the given files in the given order.
func New(paths ...string) *Source {
	return &Source{paths: paths}
}

// NewFromDir reads every *.csv file in dir, sorted by name.
func NewFromDir(dir string) (*Source, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(paths)
	return New(paths...), nil
}

// Len returns the number of files the source reads.
func (s *Source) Len() int {
	return len(s.paths)
}

// ReadRowSets parses every file. The row-sets keep the order of the paths
// regardless of which file finishes first; the first failure cancels the rest.
func (s *Source) ReadRowSets(ctx context.Context) ([]core.RowSet, error) {
	sets := make([]core.RowSet, len(s.paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, path := range s.paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := readFile(path)
			if err != nil {
				return err
			}
			sets[i] = core.RowSet{Name: path, Rows: rows}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sets, nil
}

func readFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, row := range rows {
		for j := range row {
			row[j] = strings.TrimSpace(row[j])
		}
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}
