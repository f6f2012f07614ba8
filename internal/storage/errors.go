package storage

import (
	"errors"
	"fmt"
	"strings"

	"bookkeeper/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func sqliteCode(err error) (int, bool) {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code(), true
	}
	return 0, false
}

// classify wraps a driver error with the matching core sentinel. The original
// error stays in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	code, ok := sqliteCode(err)
	if !ok || code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return err
	}
	if code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY || strings.Contains(err.Error(), "FOREIGN KEY") {
		return fmt.Errorf("%w: %w", core.ErrForeignKeyViolation, err)
	}
	return fmt.Errorf("%w: %w", core.ErrConstraintViolation, err)
}

// isPrimaryKeyConflict reports whether err is a duplicate generated category id
// rather than a duplicate (user_id, name).
func isPrimaryKeyConflict(err error) bool {
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	if code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), "category.id")
}
