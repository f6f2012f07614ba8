package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bookkeeper/internal/core"
)

func intPtr(v int) *int { return &v }

// seedLedger stores one item per entry and returns the ids in insertion order.
func seedLedger(t *testing.T, repo *SQLiteRepository, items []core.NewItem) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		id, err := repo.SaveItem(context.Background(), adminID, it)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestGetItemsTypeSelector(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	food, err := repo.SaveCategory(ctx, adminID, core.NewCategory{Type: core.Outgoing, Name: "food"})
	require.NoError(t, err)
	salary, err := repo.SaveCategory(ctx, adminID, core.NewCategory{Type: core.Income, Name: "salary"})
	require.NoError(t, err)

	seedLedger(t, repo, []core.NewItem{
		{Time: 1700000000, Input: core.Outgoing, Category: food, Amount: core.Money{Cents: 100}},
		{Time: 1700000100, Input: core.Income, Category: salary, Amount: core.Money{Cents: 500000}},
		{Time: 1700000200, Input: core.Outgoing, Category: food, Amount: core.Money{Cents: 250}},
	})

	cases := []struct {
		sel   core.TypeSelector
		total int
		want  []core.BillType
	}{
		{core.AnyType, 3, []core.BillType{core.Outgoing, core.Income}},
		{core.IncomeOnly, 1, []core.BillType{core.Income}},
		{core.OutgoingOnly, 2, []core.BillType{core.Outgoing}},
	}
	for _, tc := range cases {
		page, err := repo.GetItems(ctx, core.ItemFilter{UserID: adminID, Type: tc.sel})
		require.NoError(t, err)
		require.Equal(t, tc.total, page.Total)
		require.Len(t, page.Items, tc.total)
		for _, it := range page.Items {
			require.Contains(t, tc.want, it.Type)
		}
	}
}

func TestGetItemsPagination(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	food, err := repo.SaveCategory(ctx, adminID, core.NewCategory{Type: core.Outgoing, Name: "food"})
	require.NoError(t, err)

	var items []core.NewItem
	for i := 0; i < 5; i++ {
		items = append(items, core.NewItem{
			Time: 1700000000 + int64(i)*3600, Input: core.Outgoing, Category: food, Amount: core.Money{Cents: int64(100 + i)},
		})
	}
	ids := seedLedger(t, repo, items)

	page, err := repo.GetItems(ctx, core.ItemFilter{
		UserID: adminID, Order: core.DateDesc, Offset: intPtr(2), Limit: intPtr(2),
	})
	require.NoError(t, err)
	require.Equal(t, 5, page.Total)
	require.Len(t, page.Items, 2)
	// date desc ranks ids[4], ids[3], ids[2], ids[1], ids[0]
	require.Equal(t, ids[2], page.Items[0].ID)
	require.Equal(t, ids[1], page.Items[1].ID)

	// Offset zero is a real offset.
	page, err = repo.GetItems(ctx, core.ItemFilter{UserID: adminID, Offset: intPtr(0), Limit: intPtr(1)})
	require.NoError(t, err)
	require.Equal(t, 5, page.Total)
	require.Len(t, page.Items, 1)
	require.Equal(t, ids[4], page.Items[0].ID)

	// Limit without offset returns everything.
	page, err = repo.GetItems(ctx, core.ItemFilter{UserID: adminID, Limit: intPtr(1)})
	require.NoError(t, err)
	require.Len(t, page.Items, 5)
}

func TestGetItemsOrdering(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	food, err := repo.SaveCategory(ctx, adminID, core.NewCategory{Type: core.Outgoing, Name: "food"})
	require.NoError(t, err)
	ids := seedLedger(t, repo, []core.NewItem{
		{Time: 1700000300, Input: core.Outgoing, Category: food, Amount: core.Money{Cents: 200}},
		{Time: 1700000100, Input: core.Outgoing, Category: food, Amount: core.Money{Cents: 900}},
		{Time: 1700000200, Input: core.Outgoing, Category: food, Amount: core.Money{Cents: 50}},
	})

	cases := map[core.Order][]int64{
		"":              {ids[0], ids[2], ids[1]},
		core.DateDesc:   {ids[0], ids[2], ids[1]},
		core.DateAsc:    {ids[1], ids[2], ids[0]},
		core.AmountDesc: {ids[1], ids[0], ids[2]},
		core.AmountAsc:  {ids[2], ids[0], ids[1]},
	}
	for order, want := range cases {
		page, err := repo.GetItems(ctx, core.ItemFilter{UserID: adminID, Order: order})
		require.NoError(t, err)
		got := make([]int64, 0, len(page.Items))
		for _, it := range page.Items {
			got = append(got, it.ID)
		}
		require.Equal(t, want, got, "order %q", order)
	}

	_, err = repo.GetItems(ctx, core.ItemFilter{UserID: adminID, Order: "amount; DROP TABLE ledger"})
	require.ErrorIs(t, err, core.ErrInvalidFilter)
}

func TestGetItemsLocalMonth(t *testing.T) {
	ctx := context.Background()
	loc := time.FixedZone("UTC+8", 8*3600)
	repo := newTestRepo(t, WithLocation(loc))

	food, err := repo.SaveCategory(ctx, adminID, core.NewCategory{Type: core.Outgoing, Name: "food"})
	require.NoError(t, err)

	at := func(y int, m time.Month, d, h, min int) int64 {
		return time.Date(y, m, d, h, min, 0, 0, loc).Unix()
	}
	ids := seedLedger(t, repo, []core.NewItem{
		{Time: at(2024, time.January, 31, 23, 59), Input: core.Outgoing, Category: food, Amount: core.Money{Cents: 1}},
		{Time: at(2024, time.February, 1, 0, 30), Input: core.Outgoing, Category: food, Amount: core.Money{Cents: 2}},
		{Time: at(2024, time.February, 29, 23, 59), Input: core.Outgoing, Category: food, Amount: core.Money{Cents: 3}},
		{Time: at(2024, time.March, 1, 0, 0), Input: core.Outgoing, Category: food, Amount: core.Money{Cents: 4}},
	})

	page, err := repo.GetItems(ctx, core.ItemFilter{UserID: adminID, Year: 2024, Month: 2, Order: core.DateAsc})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Equal(t, ids[1], page.Items[0].ID)
	require.Equal(t, ids[2], page.Items[1].ID)

	page, err = repo.GetItems(ctx, core.ItemFilter{UserID: adminID, Year: 2024, Month: 1})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, ids[0], page.Items[0].ID)
}

func TestGetItemsTotalMatchesUnpaginatedRows(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, WithLocation(time.UTC))

	food, err := repo.SaveCategory(ctx, adminID, core.NewCategory{Type: core.Outgoing, Name: "food"})
	require.NoError(t, err)
	salary, err := repo.SaveCategory(ctx, adminID, core.NewCategory{Type: core.Income, Name: "salary"})
	require.NoError(t, err)

	jan := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC).Unix()
	feb := time.Date(2024, time.February, 15, 12, 0, 0, 0, time.UTC).Unix()
	seedLedger(t, repo, []core.NewItem{
		{Time: jan, Input: core.Outgoing, Category: food, Amount: core.Money{Cents: 10}},
		{Time: jan + 60, Input: core.Income, Category: salary, Amount: core.Money{Cents: 20}},
		{Time: feb, Input: core.Outgoing, Category: food, Amount: core.Money{Cents: 30}},
		{Time: feb + 60, Input: core.Outgoing, Category: food, Amount: core.Money{Cents: 40}},
		{Time: feb + 120, Input: core.Income, Category: salary, Amount: core.Money{Cents: 50}},
	})

	filters := []core.ItemFilter{
		{UserID: adminID},
		{UserID: adminID, Year: 2024, Month: 2},
		{UserID: adminID, Type: core.OutgoingOnly},
		{UserID: adminID, Type: core.IncomeOnly, Year: 2024, Month: 1},
		{UserID: adminID, Category: food},
		{UserID: adminID, Category: food, Year: 2024, Month: 2, Type: core.OutgoingOnly},
		{UserID: adminID, Category: salary, Type: core.OutgoingOnly},
		{UserID: 999},
	}
	for _, f := range filters {
		paged := f
		paged.Offset, paged.Limit = intPtr(1), intPtr(1)
		page, err := repo.GetItems(ctx, paged)
		require.NoError(t, err)

		all, err := repo.GetItems(ctx, f)
		require.NoError(t, err)
		require.Equal(t, len(all.Items), page.Total, "filter %+v", f)
		require.Equal(t, all.Total, page.Total)
		require.LessOrEqual(t, len(page.Items), 1)
	}
}

func TestItemQueryBindsValues(t *testing.T) {
	f := core.ItemFilter{
		UserID: adminID, Year: 2024, Month: 2, Type: core.IncomeOnly,
		Category: "x' OR '1'='1", Order: core.AmountAsc, Offset: intPtr(3), Limit: intPtr(4),
	}
	iq := newItemQuery(f, time.UTC)

	require.NotContains(t, iq.where, "OR")
	require.Contains(t, iq.args, f.Category)
	require.Equal(t, strings.Count(iq.where, "?"), len(iq.args))

	count := iq.countSQL()
	query, args := iq.selectSQL()
	require.True(t, strings.HasSuffix(count, iq.where))
	require.Contains(t, query, "WHERE "+iq.where+" ORDER BY amount_cents ASC")
	require.Equal(t, append(append([]interface{}{}, iq.args...), 4, 3), args)
}

func TestGetItemsSelectors(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.GetItems(ctx, core.ItemFilter{})
	require.ErrorIs(t, err, core.ErrNoSelector)

	food, err := repo.SaveCategory(ctx, adminID, core.NewCategory{Type: core.Outgoing, Name: "food"})
	require.NoError(t, err)
	ids := seedLedger(t, repo, []core.NewItem{
		{Time: 1700000000, Input: core.Outgoing, Category: food, Amount: core.Money{Cents: 100}},
	})

	// An id lookup ignores every other key.
	page, err := repo.GetItems(ctx, core.ItemFilter{ID: ids[0], UserID: 999, Type: core.IncomeOnly})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, ids[0], page.Items[0].ID)

	_, err = repo.GetItems(ctx, core.ItemFilter{ID: 424242})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestOverview(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, WithLocation(time.UTC))

	food, err := repo.SaveCategory(ctx, adminID, core.NewCategory{Type: core.Outgoing, Name: "food"})
	require.NoError(t, err)
	salary, err := repo.SaveCategory(ctx, adminID, core.NewCategory{Type: core.Income, Name: "salary"})
	require.NoError(t, err)

	mar := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC).Unix()
	apr := time.Date(2024, time.April, 3, 0, 0, 0, 0, time.UTC).Unix()
	seedLedger(t, repo, []core.NewItem{
		{Time: mar, Input: core.Outgoing, Category: food, Amount: core.Money{Cents: 1050}},
		{Time: mar, Input: core.Income, Category: salary, Amount: core.Money{Cents: 200000}},
		{Time: apr, Input: core.Outgoing, Category: food, Amount: core.Money{Cents: 950}},
	})

	ov, err := repo.Overview(ctx, core.ItemFilter{UserID: adminID})
	require.NoError(t, err)
	require.Equal(t, int64(2000), ov.Outgoing.Cents)
	require.Equal(t, int64(200000), ov.Income.Cents)

	ov, err = repo.Overview(ctx, core.ItemFilter{UserID: adminID, Year: 2024, Month: 4, Limit: intPtr(0), Offset: intPtr(0)})
	require.NoError(t, err)
	require.Equal(t, int64(950), ov.Outgoing.Cents)
	require.Zero(t, ov.Income.Cents)
}
