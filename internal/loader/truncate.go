package loader

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"ddl-pump/internal/dialect"
	"ddl-pump/internal/schema"
)

// Truncate empties tables in reverse insertion order, children before
// parents, with foreign key checks relaxed for all of them. Per-table
// failures are logged and skipped.
func Truncate(ctx context.Context, db *sql.DB, d dialect.Dialect, tables []*schema.Table, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	order := storedNames(d, tables)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	logger.Debug("disabling foreign key checks", "tables", len(order))
	if err := d.BeforePump(tx, order); err != nil {
		logger.Warn("BeforePump hook failed, continuing", "err", err)
	}

	reseeder, reseed := d.(dialect.Reseeder)
	total := len(order)
	for i := total - 1; i >= 0; i-- {
		table := order[i]
		if _, err := tx.ExecContext(ctx, d.TruncateQuery(table)); err != nil {
			logger.Warn("failed to clean table, continuing", "table", table, "err", err)
		}
		if reseed {
			if _, err := tx.ExecContext(ctx, reseeder.ReseedQuery(table)); err != nil {
				logger.Warn("failed to reset identity, continuing", "table", table, "err", err)
			}
		}
		if done := total - i; done%5 == 0 || done == total {
			logger.Info("cleaned tables", "done", done, "total", total)
		}
	}

	logger.Debug("enabling foreign key checks")
	if err := d.AfterPump(tx, order); err != nil {
		logger.Warn("AfterPump hook failed", "err", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cleaning transaction: %w", err)
	}
	tx = nil
	return nil
}

func storedNames(d dialect.Dialect, tables []*schema.Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = dialect.TableName(d, t)
	}
	return names
}
