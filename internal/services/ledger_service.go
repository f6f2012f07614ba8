package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"bookkeeper/internal/amqp"
	"bookkeeper/internal/cache"
	"bookkeeper/internal/core"
	"bookkeeper/internal/importer"
	applog "bookkeeper/internal/log"
	"bookkeeper/internal/sheets"
	"bookkeeper/internal/storage"
	"bookkeeper/internal/trace"
)

// Store is the persistence the ledger service needs.
type Store interface {
	SaveItem(ctx context.Context, userID int64, item core.NewItem) (int64, error)
	GetItems(ctx context.Context, f core.ItemFilter) (core.ItemPage, error)
	SaveCategory(ctx context.Context, userID int64, c core.NewCategory) (string, error)
	FindCategories(ctx context.Context, f core.CategoryFilter) ([]core.Category, error)
	SaveImportBills(ctx context.Context, userID int64, bills []core.Bill) (storage.ImportResult, error)
	Overview(ctx context.Context, f core.ItemFilter) (core.Overview, error)
	Location() *time.Location
}

// Publisher announces committed ledger changes.
type Publisher interface {
	PublishBillsChanged(ctx context.Context, msg *amqp.BillsChangedMessage) error
}

// OverviewKey identifies a cached overview. Year and Month are zero for
// the all-time totals.
type OverviewKey struct {
	UserID      int64
	Year, Month int
}

// LedgerService orchestrates ledger operations across storage, the
// overview cache and change notifications.
type LedgerService struct {
	store     Store
	publisher Publisher
	overviews cache.Cache[OverviewKey, core.Overview]
	logger    *applog.Logger
}

type Option func(*LedgerService)

// WithPublisher enables bills-changed notifications.
func WithPublisher(p Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithOverviewCache caches Overview results until the user's next write.
func WithOverviewCache(c cache.Cache[OverviewKey, core.Overview]) Option {
	return func(s *LedgerService) { s.overviews = c }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

func NewLedgerService(store Store, opts ...Option) *LedgerService {
	s := &LedgerService{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applog.Default(applog.ComponentLedger)
	}
	return s
}

// AddItem stores one ledger entry for userID.
func (s *LedgerService) AddItem(ctx context.Context, userID int64, item core.NewItem) (int64, error) {
	id, err := s.store.SaveItem(ctx, userID, item)
	if err != nil {
		return 0, fmt.Errorf("save item: %w", err)
	}
	s.changed(ctx, userID, 1, amqp.ReasonItemAdded)
	return id, nil
}

// AddCategory creates a category for userID and returns its id.
func (s *LedgerService) AddCategory(ctx context.Context, userID int64, c core.NewCategory) (string, error) {
	id, err := s.store.SaveCategory(ctx, userID, c)
	if err != nil {
		return "", fmt.Errorf("save category: %w", err)
	}
	s.changed(ctx, userID, 0, amqp.ReasonCategoryAdded)
	return id, nil
}

func (s *LedgerService) Categories(ctx context.Context, f core.CategoryFilter) ([]core.Category, error) {
	return s.store.FindCategories(ctx, f)
}

func (s *LedgerService) Items(ctx context.Context, f core.ItemFilter) (core.ItemPage, error) {
	return s.store.GetItems(ctx, f)
}

// Import reads every row-set of src, parses them and stores the bills for
// userID as one batch. Nothing is written if reading or parsing fails.
func (s *LedgerService) Import(ctx context.Context, userID int64, src sheets.RowSetReader) (storage.ImportResult, error) {
	sets, err := src.ReadRowSets(ctx)
	if err != nil {
		return storage.ImportResult{}, fmt.Errorf("read import source: %w", err)
	}
	bills, err := importer.Parse(sets)
	if err != nil {
		return storage.ImportResult{}, fmt.Errorf("parse import: %w", err)
	}
	s.logger.DebugContext(ctx, "Import parsed", applog.FieldRunID, trace.GetRunID(ctx), applog.FieldUserID, userID, "row_sets", len(sets), applog.FieldItems, len(bills))
	return s.ImportBills(ctx, userID, bills)
}

// ImportBills stores already parsed bills for userID as one batch.
func (s *LedgerService) ImportBills(ctx context.Context, userID int64, bills []core.Bill) (storage.ImportResult, error) {
	start := time.Now()
	res, err := s.store.SaveImportBills(ctx, userID, bills)
	if err != nil {
		s.logger.WarnContext(ctx, "Import rolled back",
			applog.NewFields().WithUser(userID).WithOperation(applog.OpImport).WithRunID(trace.GetRunID(ctx)).WithError(err).ToSlice()...)
		return storage.ImportResult{}, err
	}

	s.logger.InfoContext(ctx, "Import committed",
		applog.FieldRunID, trace.GetRunID(ctx),
		applog.FieldUserID, userID,
		applog.FieldItems, res.Items,
		"categories_created", len(res.Created),
		applog.FieldDuration, time.Since(start).Milliseconds())

	if res.Items > 0 || len(res.Created) > 0 {
		s.changed(ctx, userID, res.Items, amqp.ReasonImport)
	}
	return res, nil
}

// Overview returns income and outgoing totals for userID, for one local
// month when year and month are both set, otherwise over all time.
func (s *LedgerService) Overview(ctx context.Context, userID int64, year, month int) (core.Overview, error) {
	if year == 0 || month == 0 {
		year, month = 0, 0
	}
	key := OverviewKey{UserID: userID, Year: year, Month: month}
	if s.overviews != nil {
		if ov, ok := s.overviews.Get(key); ok {
			return ov, nil
		}
	}

	ov, err := s.store.Overview(ctx, core.ItemFilter{UserID: userID, Year: year, Month: month})
	if err != nil {
		return core.Overview{}, err
	}
	if s.overviews != nil {
		s.overviews.Set(key, ov)
	}
	return ov, nil
}

// MonthList groups every ledger row of userID by local "YYYY-MM" and
// returns the per-month totals, newest month first.
func (s *LedgerService) MonthList(ctx context.Context, userID int64) ([]core.MonthSummary, error) {
	page, err := s.store.GetItems(ctx, core.ItemFilter{UserID: userID, Order: core.DateDesc})
	if err != nil {
		return nil, err
	}
	return groupByMonth(page.Items, s.store.Location()), nil
}

func groupByMonth(items []core.LedgerItem, loc *time.Location) []core.MonthSummary {
	byMonth := make(map[string]*core.MonthSummary)
	for _, it := range items {
		date := it.EventTime.In(loc).Format("2006-01")
		m, ok := byMonth[date]
		if !ok {
			m = &core.MonthSummary{Date: date}
			byMonth[date] = m
		}
		if it.Type == core.Income {
			m.Income.Cents += it.Amount.Cents
		} else {
			m.Outgoing.Cents += it.Amount.Cents
		}
	}

	out := make([]core.MonthSummary, 0, len(byMonth))
	for _, m := range byMonth {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// Invalidate drops every cached overview of userID. Writers in other
// processes reach this through their bills-changed notifications.
func (s *LedgerService) Invalidate(ctx context.Context, userID int64) {
	if s.overviews == nil {
		return
	}
	if n := s.overviews.DeleteFunc(func(k OverviewKey) bool { return k.UserID == userID }); n > 0 {
		s.logger.DebugContext(ctx, "Overview cache invalidated", applog.FieldUserID, userID, "entries", n)
	}
}

// changed drops the user's cached overviews and announces the write. The
// write has already committed, so a publish failure is only logged.
func (s *LedgerService) changed(ctx context.Context, userID int64, items int, reason string) {
	s.Invalidate(ctx, userID)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBillsChanged(ctx, amqp.NewBillsChangedMessage(userID, items, reason)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish bills changed message",
			applog.FieldUserID, userID,
			applog.FieldReason, reason,
			applog.FieldError, err)
	}
}

// Close closes the store and the publisher when they hold resources.
func (s *LedgerService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
