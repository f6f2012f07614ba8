package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bookkeeper/internal/core"
)

func categoryTable(rows ...[]string) core.RowSet {
	return core.RowSet{Name: "categories", Rows: append([][]string{{"id", "type", "name"}}, rows...)}
}

func billTable(rows ...[]string) core.RowSet {
	return core.RowSet{Name: "bills", Rows: append([][]string{{"type", "time", "category", "amount"}}, rows...)}
}

func TestParseResolvesCategoryNames(t *testing.T) {
	bills, err := Parse([]core.RowSet{
		categoryTable([]string{"c1", "0", "food"}),
		billTable([]string{"0", "1700000000000", "c1", "42.5"}),
	})
	require.NoError(t, err)
	require.Equal(t, []core.Bill{{
		Type:     core.Outgoing,
		Time:     time.UnixMilli(1700000000000),
		Category: "food",
		Amount:   core.Money{Cents: 4250},
	}}, bills)
}

func TestParseTableOrderDoesNotMatter(t *testing.T) {
	cats := categoryTable([]string{"c1", "0", "food"}, []string{"c2", "1", "salary"})
	first := billTable([]string{"0", "1700000000000", "c1", "10"}, []string{"1", "1700000001000", "c2", "2000"})
	second := billTable([]string{"0", "1700000002000", "c1", "3.25"})

	before, err := Parse([]core.RowSet{cats, first, second})
	require.NoError(t, err)
	after, err := Parse([]core.RowSet{first, second, cats})
	require.NoError(t, err)

	require.Equal(t, before, after)
	require.Len(t, after, 3)
	require.Equal(t, "salary", after[1].Category)
	require.Equal(t, core.Income, after[1].Type)
	require.Equal(t, int64(325), after[2].Amount.Cents)
}

func TestParseHeaderClassification(t *testing.T) {
	// Column order and extra columns are irrelevant; unknown tables are skipped.
	bills, err := Parse([]core.RowSet{
		{Name: "notes", Rows: [][]string{{"foo", "bar"}, {"1", "2"}}},
		{Name: "empty"},
		{Name: "cats", Rows: [][]string{{"name", " id ", "type", "color"}, {"food", "c1", "0", "red"}}},
		{Name: "bills", Rows: [][]string{{"amount", "category", "note", "time", "type"}, {"7", "c1", "lunch", "1700000000000", "0"}}},
	})
	require.NoError(t, err)
	require.Len(t, bills, 1)
	require.Equal(t, "food", bills[0].Category)
	require.Equal(t, int64(700), bills[0].Amount.Cents)
}

func TestParseDuplicateCategoryID(t *testing.T) {
	_, err := Parse([]core.RowSet{
		categoryTable([]string{"c1", "0", "food"}),
		categoryTable([]string{"c1", "1", "salary"}),
	})
	require.ErrorIs(t, err, core.ErrDuplicateCategoryID)

	_, err = Parse([]core.RowSet{
		categoryTable([]string{"c1", "0", "food"}, []string{"c1", "0", "food"}),
	})
	require.ErrorIs(t, err, core.ErrDuplicateCategoryID)
}

func TestParseUnknownCategory(t *testing.T) {
	bills, err := Parse([]core.RowSet{
		categoryTable([]string{"c1", "0", "food"}),
		billTable([]string{"0", "1700000000000", "c1", "1"}, []string{"0", "1700000000000", "zz", "1"}),
	})
	require.ErrorIs(t, err, core.ErrUnknownCategory)
	require.Nil(t, bills)
}

func TestParseUnknownCategorySuggestsClosestID(t *testing.T) {
	_, err := Parse([]core.RowSet{
		categoryTable([]string{"rent", "0", "rent"}, []string{"salary", "1", "salary"}),
		billTable([]string{"0", "1700000000000", "rnet", "1"}),
	})
	require.ErrorIs(t, err, core.ErrUnknownCategory)
	require.ErrorContains(t, err, `did you mean "rent"?`)

	_, err = Parse([]core.RowSet{
		categoryTable([]string{"rent", "0", "rent"}),
		billTable([]string{"0", "1700000000000", "groceries", "1"}),
	})
	require.ErrorIs(t, err, core.ErrUnknownCategory)
	require.NotContains(t, err.Error(), "did you mean")
}

func TestSuggest(t *testing.T) {
	cats := map[string]categoryDef{"ab": {}, "ac": {}, "food": {}}
	require.Equal(t, "ab", suggest("aa", cats))
	require.Equal(t, "food", suggest("fod", cats))
	require.Equal(t, "", suggest("transport", cats))
	require.Equal(t, "", suggest("x", nil))
}

func TestParseBillsNotResolvedAgainstBillTables(t *testing.T) {
	_, err := Parse([]core.RowSet{
		billTable([]string{"0", "1700000000000", "c1", "1"}),
	})
	require.ErrorIs(t, err, core.ErrUnknownCategory)
}

func TestParseInvalidCells(t *testing.T) {
	cats := categoryTable([]string{"c1", "0", "food"})
	cases := map[string][]string{
		"type":       {"2", "1700000000000", "c1", "1"},
		"time":       {"0", "yesterday", "c1", "1"},
		"fractional": {"0", "1700000000000.5", "c1", "1"},
		"amount":     {"0", "1700000000000", "c1", "abc"},
		"zero":       {"0", "1700000000000", "c1", "0"},
		"negative":   {"0", "1700000000000", "c1", "-3"},
		"short":      {"0", "1700000000000", "c1"},
	}
	for name, row := range cases {
		t.Run(name, func(t *testing.T) {
			bills, err := Parse([]core.RowSet{cats, billTable(row)})
			require.ErrorIs(t, err, core.ErrInvalidCell)
			require.Nil(t, bills)
		})
	}

	_, err := Parse([]core.RowSet{categoryTable([]string{"c1", "x", "food"})})
	require.ErrorIs(t, err, core.ErrInvalidCell)
}

func TestParseSkipsBlankRowsAndTrimsCells(t *testing.T) {
	bills, err := Parse([]core.RowSet{
		categoryTable([]string{" c1 ", "0", " food "}, []string{"", "", ""}),
		billTable([]string{}, []string{" 1 ", "1700000000000", "c1", " 99,90 "}),
	})
	require.NoError(t, err)
	require.Len(t, bills, 1)
	require.Equal(t, "food", bills[0].Category)
	require.Equal(t, core.Income, bills[0].Type)
	require.Equal(t, int64(9990), bills[0].Amount.Cents)
}

func TestParseNoBillTables(t *testing.T) {
	bills, err := Parse([]core.RowSet{categoryTable([]string{"c1", "0", "food"})})
	require.NoError(t, err)
	require.Empty(t, bills)
}
