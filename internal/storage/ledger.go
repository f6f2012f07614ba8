package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bookkeeper/internal/core"
)

const ledgerColumns = `id, user_id, event_time, write_time, type, category, amount_cents`

// Only these fragments ever reach the ORDER BY clause.
var orderClauses = map[core.Order]string{
	core.DateDesc:   "event_time DESC, id DESC",
	core.DateAsc:    "event_time ASC, id ASC",
	core.AmountDesc: "amount_cents DESC, id DESC",
	core.AmountAsc:  "amount_cents ASC, id ASC",
}

type CreateLedgerItemParams struct {
	UserID      int64
	EventTime   int64 // unix seconds
	Type        core.BillType
	Category    string
	AmountCents int64
}

func (q *Queries) CreateLedgerItem(ctx context.Context, arg CreateLedgerItemParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO ledger (user_id, event_time, type, category, amount_cents) VALUES (?, ?, ?, ?, ?)`,
		arg.UserID, arg.EventTime, int(arg.Type), arg.Category, arg.AmountCents)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) GetLedgerItem(ctx context.Context, id int64) (core.LedgerItem, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+ledgerColumns+` FROM ledger WHERE id = ?`, id)
	return scanLedgerItem(row)
}

func (q *Queries) CountLedgerItems(ctx context.Context, iq itemQuery) (int, error) {
	var total int
	err := q.db.QueryRowContext(ctx, iq.countSQL(), iq.args...).Scan(&total)
	return total, err
}

func (q *Queries) ListLedgerItems(ctx context.Context, iq itemQuery) ([]core.LedgerItem, error) {
	query, args := iq.selectSQL()
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []core.LedgerItem{}
	for rows.Next() {
		it, err := scanLedgerItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// SumLedgerByType returns total cents per stored type for the query's predicates.
func (q *Queries) SumLedgerByType(ctx context.Context, iq itemQuery) (map[core.BillType]int64, error) {
	rows, err := q.db.QueryContext(ctx, iq.sumSQL(), iq.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[core.BillType]int64, 2)
	for rows.Next() {
		var typ int
		var total int64
		if err := rows.Scan(&typ, &total); err != nil {
			return nil, err
		}
		sums[core.BillType(typ)] = total
	}
	return sums, rows.Err()
}

func scanLedgerItem(row rowScanner) (core.LedgerItem, error) {
	var (
		it           core.LedgerItem
		event, wrote int64
		typ          int
	)
	if err := row.Scan(&it.ID, &it.UserID, &event, &wrote, &typ, &it.Category, &it.Amount.Cents); err != nil {
		return core.LedgerItem{}, err
	}
	it.EventTime = time.Unix(event, 0)
	it.WriteTime = time.Unix(wrote, 0)
	it.Type = core.BillType(typ)
	return it, nil
}

// itemQuery is one predicate set shared by the count, sum and row queries.
// The WHERE clause holds only fixed fragments; every value is in args.
type itemQuery struct {
	where  string
	args   []interface{}
	order  string
	limit  *int
	offset *int
}

func newItemQuery(f core.ItemFilter, loc *time.Location) itemQuery {
	preds := []string{"user_id = ?"}
	args := []interface{}{f.UserID}

	if f.HasMonth() {
		start := time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, loc)
		end := start.AddDate(0, 1, 0)
		preds = append(preds, "event_time >= ?", "event_time < ?")
		args = append(args, start.Unix(), end.Unix())
	}

	switch f.Type {
	case core.IncomeOnly:
		preds = append(preds, "type = ?")
		args = append(args, int(core.Income))
	case core.OutgoingOnly:
		preds = append(preds, "type = ?")
		args = append(args, int(core.Outgoing))
	}

	if f.Category != "" {
		preds = append(preds, "category = ?")
		args = append(args, f.Category)
	}

	order := orderClauses[f.Order]
	if order == "" {
		order = orderClauses[core.DateDesc]
	}

	iq := itemQuery{
		where: strings.Join(preds, " AND "),
		args:  args,
		order: order,
	}
	if f.Paginated() {
		iq.limit, iq.offset = f.Limit, f.Offset
	}
	return iq
}

func (iq itemQuery) countSQL() string {
	return `SELECT count(*) AS total FROM ledger WHERE ` + iq.where
}

func (iq itemQuery) sumSQL() string {
	return `SELECT type, COALESCE(SUM(amount_cents), 0) FROM ledger WHERE ` + iq.where + ` GROUP BY type`
}

func (iq itemQuery) selectSQL() (string, []interface{}) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger WHERE ` + iq.where + ` ORDER BY ` + iq.order
	args := iq.args
	if iq.limit != nil && iq.offset != nil {
		query += ` LIMIT ? OFFSET ?`
		args = append(append([]interface{}{}, iq.args...), *iq.limit, *iq.offset)
	}
	return query, args
}

// SaveItem inserts one ledger row for userID. An unknown user or category
// fails with core.ErrForeignKeyViolation.
func (r *SQLiteRepository) SaveItem(ctx context.Context, userID int64, item core.NewItem) (int64, error) {
	if err := item.Validate(); err != nil {
		return 0, err
	}
	id, err := r.queries.CreateLedgerItem(ctx, CreateLedgerItemParams{
		UserID:      userID,
		EventTime:   item.Time,
		Type:        item.Input,
		Category:    item.Category,
		AmountCents: item.Amount.Cents,
	})
	if err != nil {
		return 0, fmt.Errorf("create ledger item: %w", classify(err))
	}

	slog.InfoContext(ctx, "Ledger item saved",
		"id", id,
		"user_id", userID,
		"type", item.Input.String(),
		"category", item.Category,
		"amount_cents", item.Amount.Cents)

	return id, nil
}

// GetItem returns a single ledger row by id.
func (r *SQLiteRepository) GetItem(ctx context.Context, id int64) (core.LedgerItem, error) {
	it, err := r.queries.GetLedgerItem(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerItem{}, fmt.Errorf("get ledger item %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.LedgerItem{}, fmt.Errorf("get ledger item %d: %w", id, err)
	}
	return r.localize(it), nil
}

// GetItems runs the filtered ledger query. With f.ID set the page holds that
// single row. Otherwise Total counts every row matching the predicates and
// Items holds the ordered, optionally paginated rows.
func (r *SQLiteRepository) GetItems(ctx context.Context, f core.ItemFilter) (core.ItemPage, error) {
	if err := f.Validate(); err != nil {
		return core.ItemPage{}, err
	}
	if f.ID != 0 {
		it, err := r.GetItem(ctx, f.ID)
		if err != nil {
			return core.ItemPage{}, err
		}
		return core.ItemPage{Total: 1, Items: []core.LedgerItem{it}}, nil
	}

	iq := newItemQuery(f, r.loc)
	total, err := r.queries.CountLedgerItems(ctx, iq)
	if err != nil {
		return core.ItemPage{}, fmt.Errorf("count ledger items: %w", err)
	}
	items, err := r.queries.ListLedgerItems(ctx, iq)
	if err != nil {
		return core.ItemPage{}, fmt.Errorf("list ledger items: %w", err)
	}
	for i := range items {
		items[i] = r.localize(items[i])
	}
	return core.ItemPage{Total: total, Items: items}, nil
}

// Overview sums income and outgoing amounts over the rows f selects.
// Order and pagination in f are ignored.
func (r *SQLiteRepository) Overview(ctx context.Context, f core.ItemFilter) (core.Overview, error) {
	f.ID, f.Offset, f.Limit = 0, nil, nil
	if err := f.Validate(); err != nil {
		return core.Overview{}, err
	}
	sums, err := r.queries.SumLedgerByType(ctx, newItemQuery(f, r.loc))
	if err != nil {
		return core.Overview{}, fmt.Errorf("sum ledger items: %w", err)
	}
	return core.Overview{
		Income:   core.Money{Cents: sums[core.Income]},
		Outgoing: core.Money{Cents: sums[core.Outgoing]},
	}, nil
}

func (r *SQLiteRepository) localize(it core.LedgerItem) core.LedgerItem {
	it.EventTime = it.EventTime.In(r.loc)
	it.WriteTime = it.WriteTime.In(r.loc)
	return it
}
