package orm

import (
	"context"
	"fmt"
	"strings"
)

// UpdateOp identifies the entry point that issued an UpdateStatement.
type UpdateOp int

const (
	// OpUpdateAll updates every row matched by the query's WHERE clauses.
	OpUpdateAll UpdateOp = iota
	// OpUpdateColumn sets a single column on one record.
	OpUpdateColumn
	// OpUpdateColumns sets several columns on one record.
	OpUpdateColumns
)

func (op UpdateOp) String() string {
	switch op {
	case OpUpdateAll:
		return "update_all"
	case OpUpdateColumn:
		return "update_column"
	case OpUpdateColumns:
		return "update_columns"
	default:
		return fmt.Sprintf("UpdateOp(%d)", int(op))
	}
}

// UpdateStatement is what an UpdateMiddleware sees of a pending update.
// Middlewares may replace Payload; the rows targeted (WHERE clauses or
// primary key) are fixed by the query and cannot be changed.
type UpdateStatement struct {
	Op      UpdateOp
	Table   string
	Column  string // set for OpUpdateColumn only
	Payload Payload
}

// UpdateFunc executes an UpdateStatement and returns the number of rows
// affected.
type UpdateFunc func(ctx context.Context, stmt *UpdateStatement) (int64, error)

// UpdateMiddleware wraps an UpdateFunc.
//
//	func logUpdates(next orm.UpdateFunc) orm.UpdateFunc {
//	    return func(ctx context.Context, stmt *orm.UpdateStatement) (int64, error) {
//	        log.Println(stmt.Op, stmt.Table)
//	        return next(ctx, stmt)
//	    }
//	}
type UpdateMiddleware func(next UpdateFunc) UpdateFunc

// UpdateAll updates every row matching the accumulated WHERE clauses with
// the given payload and returns the number of rows affected.
// Timestamp setters registered with RegisterTimestamps are not applied.
func (q *Query[T]) UpdateAll(ctx context.Context, p Payload) (int64, error) {
	stmt := &UpdateStatement{Op: OpUpdateAll, Table: q.table, Payload: p}
	var b strings.Builder
	whereArgs := q.appendWhere(&b)
	return q.runUpdate(ctx, stmt, b.String(), whereArgs)
}

// UpdateColumns sets the given columns on the row identified by the
// primary key of t. Timestamp setters are not applied and t is not
// modified.
func (q *Query[T]) UpdateColumns(ctx context.Context, t *T, values map[string]any) error {
	stmt := &UpdateStatement{Op: OpUpdateColumns, Table: q.table, Payload: Values(values)}
	return q.updateRecord(ctx, t, stmt)
}

// UpdateColumn sets a single column on the row identified by the primary
// key of t. Timestamp setters are not applied and t is not modified.
func (q *Query[T]) UpdateColumn(ctx context.Context, t *T, column string, value any) error {
	stmt := &UpdateStatement{
		Op:      OpUpdateColumn,
		Table:   q.table,
		Column:  column,
		Payload: Values(map[string]any{column: value}),
	}
	return q.updateRecord(ctx, t, stmt)
}

func (q *Query[T]) updateRecord(ctx context.Context, t *T, stmt *UpdateStatement) error {
	pkVal := q.pkValue(t)
	if pkVal == nil {
		return fmt.Errorf("orm: primary key value is required for %s", stmt.Op)
	}
	where := " WHERE " + q.qi(q.pk) + " = ?"
	_, err := q.runUpdate(ctx, stmt, where, []any{pkVal})
	return err
}

func (q *Query[T]) pkValue(t *T) any {
	cols, vals := q.colValPairs(t, true)
	for i, col := range cols {
		if col == q.pk {
			return vals[i]
		}
	}
	return nil
}

// runUpdate passes stmt through the querier's middlewares, innermost of
// which renders and executes the statement. where uses ? placeholders;
// they are numbered after the SET arguments.
func (q *Query[T]) runUpdate(ctx context.Context, stmt *UpdateStatement, where string, whereArgs []any) (int64, error) {
	exec := func(ctx context.Context, stmt *UpdateStatement) (int64, error) {
		if stmt.Payload.IsZero() {
			return 0, ErrEmptyPayload
		}
		set, args := stmt.Payload.set(q.qi)
		// Raw fragments are opaque: a ? inside a literal is not a placeholder.
		if stmt.Payload.Kind() != PayloadRaw {
			set = q.rewriteFrom(set, 1)
		}
		query := "UPDATE " + q.qi(q.table) + " SET " + set + q.rewriteFrom(where, len(args)+1)
		args = append(args, whereArgs...)

		result, err := q.db.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err //nolint:wrapcheck // pass through
		}
		return result.RowsAffected() //nolint:wrapcheck // pass through
	}

	chain := q.db.updateChain()
	fn := UpdateFunc(exec)
	for i := len(chain) - 1; i >= 0; i-- {
		fn = chain[i](fn)
	}
	return fn(ctx, stmt)
}
