package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bookkeeper/internal/amqp"
	"bookkeeper/internal/core"
	applog "bookkeeper/internal/log"
	"bookkeeper/internal/trace"
)

// Ledger is the read side the worker recomputes from.
type Ledger interface {
	Invalidate(ctx context.Context, userID int64)
	Overview(ctx context.Context, userID int64, year, month int) (core.Overview, error)
	MonthList(ctx context.Context, userID int64) ([]core.MonthSummary, error)
}

// Snapshot is the latest recomputed summary of one user.
type Snapshot struct {
	UserID     int64
	Total      core.Overview
	Months     []core.MonthSummary
	ComputedAt time.Time
}

// SummaryWorker recomputes a user's month list whenever their bills change.
// Messages carry no data it trusts: every message triggers a fresh read, so
// duplicates and reordering are harmless.
type SummaryWorker struct {
	ledger Ledger
	logger *applog.Logger

	mu        sync.RWMutex
	snapshots map[int64]Snapshot
}

func NewSummaryWorker(ledger Ledger, logger *applog.Logger) *SummaryWorker {
	if logger == nil {
		logger = applog.Default(applog.ComponentWorker)
	}
	return &SummaryWorker{ledger: ledger, logger: logger, snapshots: make(map[int64]Snapshot)}
}

// HandleBillsChanged processes a single bills-changed message from AMQP.
// A returned error makes the consumer requeue the message.
func (w *SummaryWorker) HandleBillsChanged(ctx context.Context, msg *amqp.BillsChangedMessage) error {
	if msg.UserID < 1 {
		w.logger.WarnContext(ctx, "Ignoring bills changed message without user", applog.FieldReason, msg.Reason)
		return nil
	}
	// The write happened elsewhere, so cached totals are stale.
	w.ledger.Invalidate(ctx, msg.UserID)
	snap, err := w.Refresh(ctx, msg.UserID)
	if err != nil {
		return err
	}

	latest := "none"
	if len(snap.Months) > 0 {
		latest = snap.Months[0].Date
	}
	w.logger.InfoContext(ctx, "Ledger summary refreshed",
		applog.FieldRunID, trace.GetRunID(ctx),
		applog.FieldUserID, msg.UserID,
		applog.FieldReason, msg.Reason,
		"months", len(snap.Months),
		"latest_month", latest,
		"income", snap.Total.Income.String(),
		"outgoing", snap.Total.Outgoing.String(),
		"lag_ms", snap.ComputedAt.Sub(msg.Timestamp).Milliseconds())
	return nil
}

// Refresh recomputes and stores the summary of userID.
func (w *SummaryWorker) Refresh(ctx context.Context, userID int64) (Snapshot, error) {
	total, err := w.ledger.Overview(ctx, userID, 0, 0)
	if err != nil {
		return Snapshot{}, fmt.Errorf("overview of user %d: %w", userID, err)
	}
	months, err := w.ledger.MonthList(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("month list of user %d: %w", userID, err)
	}

	snap := Snapshot{UserID: userID, Total: total, Months: months, ComputedAt: time.Now()}
	w.mu.Lock()
	w.snapshots[userID] = snap
	w.mu.Unlock()
	return snap, nil
}

// Latest returns the last snapshot computed for userID.
func (w *SummaryWorker) Latest(userID int64) (Snapshot, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	snap, ok := w.snapshots[userID]
	return snap, ok
}
