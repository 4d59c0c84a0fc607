package loader

import (
	"context"
	"database/sql"
	"fmt"

	"ddl-pump/internal/dialect"
	"ddl-pump/internal/engine"
)

const (
	StatusOK       = "OK"
	StatusVerified = "VERIFIED_OK"
	StatusMissing  = "MISSING DATA"
	StatusPartial  = "PARTIAL"
)

// Result is the outcome of loading one table.
type Result struct {
	Table    string
	Target   int // rows in the prepared batch
	Actual   int // rows the table grew by
	Total    int // rows in the table at Verify time
	Status   string
	ErrorMsg string

	stored string // table name as the database spells it
}

// Load inserts every prepared batch in plan order inside one transaction.
// Foreign key checks are relaxed for the plan's cyclic tables only. Batches
// that still carry unrepairable violations are loaded and marked PARTIAL.
// Row-level insert failures are reported per table; hook, count and commit
// failures abort the load.
func Load(ctx context.Context, db *sql.DB, d dialect.Dialect, plan *engine.Plan, onProgress func()) ([]Result, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	if err := d.BeforePump(tx, plan.Cyclic); err != nil {
		return nil, fmt.Errorf("failed to relax foreign key checks: %w", err)
	}

	results := make([]Result, 0, len(plan.Tables))
	for _, pt := range plan.Tables {
		res, err := loadTable(ctx, tx, d, pt, onProgress)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}

	if err := d.AfterPump(tx, plan.Cyclic); err != nil {
		return results, fmt.Errorf("failed to restore foreign key checks: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return results, fmt.Errorf("failed to commit load transaction: %w", err)
	}
	tx = nil
	return results, nil
}

func loadTable(ctx context.Context, tx *sql.Tx, d dialect.Dialect, pt engine.PreparedTable, onProgress func()) (Result, error) {
	name := dialect.TableName(d, pt.Table)
	res := Result{Table: pt.Table.Name, Target: pt.Batch.Len(), stored: name}

	// 기존 데이터 건수 확인
	before, err := countRows(ctx, tx, d, name)
	if err != nil {
		return res, err
	}

	identity := identityColumn(d, pt)
	if err := d.BeforeTable(tx, name, identity); err != nil {
		return res, fmt.Errorf("before loading %s: %w", name, err)
	}

	query := d.InsertQuery(name, dialect.ColumnNames(d, pt.Table, pt.Batch.Columns))
	var firstErr error
	failed := 0
	for _, row := range pt.Batch.Rows {
		rowErr, err := insertRow(ctx, tx, d, query, row)
		if err != nil {
			return res, fmt.Errorf("loading %s: %w", name, err)
		}
		if rowErr != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			failed++
			if firstErr == nil {
				firstErr = rowErr
			}
			continue
		}
		if onProgress != nil {
			onProgress()
		}
	}

	if err := d.AfterTable(tx, name, identity); err != nil {
		return res, fmt.Errorf("after loading %s: %w", name, err)
	}

	// 실제 들어간 개수 확인 (Verification)
	after, err := countRows(ctx, tx, d, name)
	if err != nil {
		if firstErr != nil {
			return res, fmt.Errorf("%w (first insert error: %v)", err, firstErr)
		}
		return res, err
	}
	res.Actual = after - before

	switch {
	case !pt.Clean():
		res.Status = StatusPartial
		res.ErrorMsg = fmt.Sprintf("%d unrepairable violations loaded as is", len(pt.Unrepairable))
	case res.Actual < res.Target:
		res.Status = StatusMissing
		if firstErr != nil {
			res.ErrorMsg = fmt.Sprintf("%d of %d inserts failed: %v", failed, res.Target, firstErr)
		} else {
			res.ErrorMsg = fmt.Sprintf("Only inserted %d out of %d. Rows skipped on conflict with existing data?", res.Actual, res.Target)
		}
	default:
		res.Status = StatusOK
	}
	return res, nil
}

const rowSavepoint = "pump_row"

// insertRow runs one insert. rowErr is the row's own rejection; err means
// the transaction itself can no longer be used.
func insertRow(ctx context.Context, tx *sql.Tx, d dialect.Dialect, query string, row []any) (rowErr, err error) {
	sp, guarded := d.(dialect.Savepointer)
	if !guarded {
		_, rowErr = tx.ExecContext(ctx, query, row...)
		return rowErr, nil
	}

	if _, err := tx.ExecContext(ctx, sp.SavepointQuery(rowSavepoint)); err != nil {
		return nil, err
	}
	if _, rowErr = tx.ExecContext(ctx, query, row...); rowErr != nil {
		if _, err := tx.ExecContext(ctx, sp.RollbackToQuery(rowSavepoint)); err != nil {
			return rowErr, err
		}
		return rowErr, nil
	}
	if _, err := tx.ExecContext(ctx, sp.ReleaseQuery(rowSavepoint)); err != nil {
		return nil, err
	}
	return nil, nil
}

// identityColumn returns the stored name of the batch's auto-increment
// column, written with explicit values, or "".
func identityColumn(d dialect.Dialect, pt engine.PreparedTable) string {
	for _, name := range pt.Batch.Columns {
		if c := pt.Table.Column(name); c != nil && c.AutoIncrement {
			return dialect.Name(d, c.Name, c.Quoted)
		}
	}
	return ""
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func countRows(ctx context.Context, q queryRower, d dialect.Dialect, table string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, d.CountQuery(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return n, nil
}

// Verify recounts every loaded table after commit.
func Verify(ctx context.Context, db *sql.DB, d dialect.Dialect, results []Result) []Result {
	verified := make([]Result, len(results))
	for i, res := range results {
		stored := res.stored
		if stored == "" {
			stored = res.Table
		}
		total, err := countRows(ctx, db, d, stored)
		res.Total = total
		switch {
		case err != nil:
			res.Status = fmt.Sprintf("VERIFY_FAIL: %v", err)
		case res.Status == StatusOK && total < res.Target:
			res.Status = fmt.Sprintf("%s: %d/%d", StatusPartial, total, res.Target)
		case res.Status == StatusOK:
			res.Status = StatusVerified
		}
		verified[i] = res
	}
	return verified
}
