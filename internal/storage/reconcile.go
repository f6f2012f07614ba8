package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"bookkeeper/internal/core"
)

// ImportResult describes a committed import batch.
type ImportResult struct {
	Items int
	// Created maps the name of every category created by the batch to its id.
	Created map[string]string
}

// SaveImportBills persists bills for userID in one transaction. Categories are
// resolved by name; a missing one is created with the bill's type and reused
// by every later bill of the batch with that name. An existing category keeps
// its recorded type. Any failure rolls back the whole batch and is reported
// as core.ErrTransactionAborted wrapping the cause.
func (r *SQLiteRepository) SaveImportBills(ctx context.Context, userID int64, bills []core.Bill) (ImportResult, error) {
	res := ImportResult{Created: map[string]string{}}

	err := r.withTx(ctx, func(q *Queries) error {
		ids := make(map[string]string) // category name -> id, this batch only
		for i, b := range bills {
			if err := b.Validate(); err != nil {
				return fmt.Errorf("bill %d: %w", i, err)
			}

			catID, created, err := r.resolveCategory(ctx, q, userID, b, ids)
			if err != nil {
				return fmt.Errorf("bill %d: %w", i, err)
			}
			if created {
				res.Created[b.Category] = catID
			}

			if _, err := q.CreateLedgerItem(ctx, CreateLedgerItemParams{
				UserID:      userID,
				EventTime:   b.Time.Unix(),
				Type:        b.Type,
				Category:    catID,
				AmountCents: b.Amount.Cents,
			}); err != nil {
				return fmt.Errorf("bill %d: create ledger item: %w", i, classify(err))
			}
			res.Items++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %w", core.ErrTransactionAborted, err)
	}

	slog.InfoContext(ctx, "Import batch saved",
		"user_id", userID,
		"items", res.Items,
		"categories_created", len(res.Created))

	return res, nil
}

// resolveCategory returns the id of the user's category named b.Category,
// creating it when absent. created is true only for a category this call made.
func (r *SQLiteRepository) resolveCategory(ctx context.Context, q *Queries, userID int64, b core.Bill, ids map[string]string) (string, bool, error) {
	if id, ok := ids[b.Category]; ok {
		return id, false, nil
	}

	existing, err := q.FindCategoryByName(ctx, userID, b.Category)
	switch {
	case err == nil:
		if existing.Type != b.Type {
			slog.DebugContext(ctx, "Import bill type differs from existing category, keeping category type",
				"category", b.Category, "category_type", existing.Type.String(), "bill_type", b.Type.String())
		}
		ids[b.Category] = existing.ID
		return existing.ID, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", false, fmt.Errorf("find category %q: %w", b.Category, err)
	}

	id, err := r.createCategory(ctx, q, userID, core.NewCategory{Type: b.Type, Name: b.Category})
	if errors.Is(err, core.ErrConstraintViolation) {
		// Another writer created the name first: reuse its row.
		existing, findErr := q.FindCategoryByName(ctx, userID, b.Category)
		if findErr != nil {
			return "", false, err
		}
		ids[b.Category] = existing.ID
		return existing.ID, false, nil
	}
	if err != nil {
		return "", false, err
	}

	slog.DebugContext(ctx, "Category created by import", "id", id, "name", b.Category, "type", b.Type.String())
	ids[b.Category] = id
	return id, true, nil
}
