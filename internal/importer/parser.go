// Package importer turns exported ledger tables into bills ready for the
// import reconciler.
package importer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"bookkeeper/internal/core"
)

// maxSuggestDistance bounds the edit distance of a "did you mean" hint.
const maxSuggestDistance = 2

var (
	categoryColumns = []string{"id", "type", "name"}
	billColumns     = []string{"type", "time", "category", "amount"}
)

type categoryDef struct {
	Type core.BillType
	Name string
}

// Parse classifies every row-set by its header and resolves the bill rows
// against the categories of all category tables. A row-set whose header has
// id, type and name columns is a category table; one with type, time,
// category and amount columns is a bill table; any other row-set is skipped.
// Bills come back in input order with the category replaced by its name.
//
// The first failure aborts the whole call and no bills are returned.
func Parse(sets []core.RowSet) ([]core.Bill, error) {
	categories := make(map[string]categoryDef)
	for _, rs := range sets {
		cols, ok := columns(rs.Header(), categoryColumns)
		if !ok {
			continue
		}
		if err := readCategories(categories, rs, cols); err != nil {
			return nil, err
		}
	}

	var bills []core.Bill
	for _, rs := range sets {
		cols, ok := columns(rs.Header(), billColumns)
		if !ok {
			continue
		}
		read, err := readBills(categories, rs, cols)
		if err != nil {
			return nil, err
		}
		bills = append(bills, read...)
	}
	return bills, nil
}

// columns maps each wanted column to its header index. ok is false when any
// is missing.
func columns(header []string, want []string) (map[string]int, bool) {
	if len(header) == 0 {
		return nil, false
	}
	cols := make(map[string]int, len(want))
	for _, name := range want {
		i := indexOf(header, name)
		if i == -1 {
			return nil, false
		}
		cols[name] = i
	}
	return cols, true
}

func readCategories(dst map[string]categoryDef, rs core.RowSet, cols map[string]int) error {
	for n, row := range rs.Rows[1:] {
		if blank(row) {
			continue
		}
		line := n + 2
		cells, err := pick(row, cols, categoryColumns)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", rs.Name, line, err)
		}
		id := cells["id"]
		if _, dup := dst[id]; dup {
			return fmt.Errorf("%s row %d: %w: %q", rs.Name, line, core.ErrDuplicateCategoryID, id)
		}
		typ, err := parseType(cells["type"])
		if err != nil {
			return fmt.Errorf("%s row %d: %w", rs.Name, line, err)
		}
		dst[id] = categoryDef{Type: typ, Name: cells["name"]}
	}
	return nil
}

func readBills(categories map[string]categoryDef, rs core.RowSet, cols map[string]int) ([]core.Bill, error) {
	bills := make([]core.Bill, 0, len(rs.Rows)-1)
	for n, row := range rs.Rows[1:] {
		if blank(row) {
			continue
		}
		line := n + 2
		cells, err := pick(row, cols, billColumns)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", rs.Name, line, err)
		}

		typ, err := parseType(cells["type"])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", rs.Name, line, err)
		}
		ms, err := strconv.ParseInt(cells["time"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w: time %q", rs.Name, line, core.ErrInvalidCell, cells["time"])
		}
		amount, err := core.ParseMoney(cells["amount"])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w: amount %q", rs.Name, line, core.ErrInvalidCell, cells["amount"])
		}
		cat, ok := categories[cells["category"]]
		if !ok {
			if hint := suggest(cells["category"], categories); hint != "" {
				return nil, fmt.Errorf("%s row %d: %w: %q (did you mean %q?)", rs.Name, line, core.ErrUnknownCategory, cells["category"], hint)
			}
			return nil, fmt.Errorf("%s row %d: %w: %q", rs.Name, line, core.ErrUnknownCategory, cells["category"])
		}

		bills = append(bills, core.Bill{
			Type:     typ,
			Time:     time.UnixMilli(ms),
			Category: cat.Name,
			Amount:   amount,
		})
	}
	return bills, nil
}

// suggest returns the category id closest to id, or "" when none is close.
// Ties go to the smallest id.
func suggest(id string, categories map[string]categoryDef) string {
	ids := make([]string, 0, len(categories))
	for k := range categories {
		ids = append(ids, k)
	}
	sort.Strings(ids)

	best, bestDist := "", maxSuggestDistance+1
	for _, k := range ids {
		if d := levenshtein.ComputeDistance(id, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

// pick returns the trimmed cells of the wanted columns.
func pick(row []string, cols map[string]int, want []string) (map[string]string, error) {
	cells := make(map[string]string, len(want))
	for _, name := range want {
		i := cols[name]
		if i >= len(row) {
			return nil, fmt.Errorf("%w: missing %s cell", core.ErrInvalidCell, name)
		}
		cells[name] = strings.TrimSpace(row[i])
	}
	return cells, nil
}

func parseType(s string) (core.BillType, error) {
	switch s {
	case "0":
		return core.Outgoing, nil
	case "1":
		return core.Income, nil
	default:
		return 0, fmt.Errorf("%w: type %q", core.ErrInvalidCell, s)
	}
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
