package orm_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/mickamy/ormtouch/orm"
)

func TestUpdateAll(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		d       orm.Dialect
		payload orm.Payload
		where   bool
		want    string
		args    []any
	}{
		{
			name:    "values sorted by column",
			d:       orm.MySQL,
			payload: orm.Values(map[string]any{"name": "changed", "age": 3}),
			want:    "UPDATE `users` SET `age` = ?, `name` = ?",
			args:    []any{3, "changed"},
		},
		{
			name:    "expr with where",
			d:       orm.MySQL,
			payload: orm.Expr("name = ?", "changed"),
			where:   true,
			want:    "UPDATE `users` SET name = ? WHERE id > ?",
			args:    []any{"changed", 10},
		},
		{
			name:    "raw",
			d:       orm.SQLite,
			payload: orm.Raw("name = 'changed'"),
			want:    `UPDATE "users" SET name = 'changed'`,
		},
		{
			name:    "postgres placeholders span set and where",
			d:       orm.PostgreSQL,
			payload: orm.Expr("name = ?, age = ?", "changed", 3),
			where:   true,
			want:    `UPDATE "users" SET name = $1, age = $2 WHERE id > $3`,
			args:    []any{"changed", 3, 10},
		},
		{
			name:    "postgres raw keeps literal question mark",
			d:       orm.PostgreSQL,
			payload: orm.Raw("note = 'why?'"),
			where:   true,
			want:    `UPDATE "users" SET note = 'why?' WHERE id > $1`,
			args:    []any{10},
		},
		{
			name:    "postgres values then where",
			d:       orm.PostgreSQL,
			payload: orm.Values(map[string]any{"name": "changed"}),
			where:   true,
			want:    `UPDATE "users" SET "name" = $1 WHERE id > $2`,
			args:    []any{"changed", 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tq := orm.NewTestQuerier(tt.d)
			q := newTestQuery(tq)
			if tt.where {
				q = q.Where("id > ?", 10)
			}
			if _, err := q.UpdateAll(t.Context(), tt.payload); err != nil {
				t.Fatalf("UpdateAll: %v", err)
			}

			got := tq.LastQuery()
			if got.SQL != tt.want {
				t.Errorf("SQL = %q, want %q", got.SQL, tt.want)
			}
			if !slices.Equal(got.Args, tt.args) {
				t.Errorf("Args = %v, want %v", got.Args, tt.args)
			}
		})
	}
}

func TestUpdateAllReturnsRowsAffected(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	tq.Affected = 4

	n, err := newTestQuery(tq).UpdateAll(t.Context(), orm.Raw("name = 'x'"))
	if err != nil {
		t.Fatalf("UpdateAll: %v", err)
	}
	if n != 4 {
		t.Errorf("rows affected = %d, want 4", n)
	}
}

func TestUpdateAllEmptyPayload(t *testing.T) {
	t.Parallel()

	for _, p := range []orm.Payload{{}, orm.Values(nil), orm.Expr(""), orm.Raw("")} {
		tq := orm.NewTestQuerier(orm.MySQL)
		_, err := newTestQuery(tq).UpdateAll(t.Context(), p)
		if !errors.Is(err, orm.ErrEmptyPayload) {
			t.Errorf("UpdateAll(%v) error = %v, want ErrEmptyPayload", p.Kind(), err)
		}
		if len(tq.Queries) != 0 {
			t.Errorf("Queries = %v, want none", tq.Queries)
		}
	}
}

func TestUpdateColumns(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.PostgreSQL)
	ctx := orm.WithClock(t.Context(), frozenClock())
	u := testUser{ID: 7, Name: "alice"}

	if err := newTestQuery(tq).UpdateColumns(ctx, &u, map[string]any{"name": "changed", "age": 3}); err != nil {
		t.Fatalf("UpdateColumns: %v", err)
	}

	got := tq.LastQuery()
	want := `UPDATE "users" SET "age" = $1, "name" = $2 WHERE "id" = $3`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if !slices.Equal(got.Args, []any{3, "changed", 7}) {
		t.Errorf("Args = %v", got.Args)
	}
	if !u.UpdatedAt.IsZero() || u.Name != "alice" {
		t.Errorf("record was modified: %+v", u)
	}
}

func TestUpdateColumn(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	u := testUser{ID: 7}

	if err := newTestQuery(tq).UpdateColumn(t.Context(), &u, "name", "changed"); err != nil {
		t.Fatalf("UpdateColumn: %v", err)
	}

	got := tq.LastQuery()
	want := "UPDATE `users` SET `name` = ? WHERE `id` = ?"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if !slices.Equal(got.Args, []any{"changed", 7}) {
		t.Errorf("Args = %v", got.Args)
	}
}

// --- Middleware ---

type recorded struct {
	op     orm.UpdateOp
	table  string
	column string
	kind   orm.PayloadKind
}

func recorder(name string, trace *[]string, seen *[]recorded) orm.UpdateMiddleware {
	return func(next orm.UpdateFunc) orm.UpdateFunc {
		return func(ctx context.Context, stmt *orm.UpdateStatement) (int64, error) {
			*trace = append(*trace, name)
			if seen != nil {
				*seen = append(*seen, recorded{stmt.Op, stmt.Table, stmt.Column, stmt.Payload.Kind()})
			}
			return next(ctx, stmt)
		}
	}
}

func TestMiddlewareOrderAndStatement(t *testing.T) {
	t.Parallel()

	var trace []string
	var seen []recorded
	tq := orm.NewTestQuerier(orm.MySQL,
		recorder("outer", &trace, &seen),
		recorder("inner", &trace, nil),
	)
	q := newTestQuery(tq)
	u := testUser{ID: 1}

	_, _ = q.UpdateAll(t.Context(), orm.Expr("name = ?", "x"))
	_ = q.UpdateColumn(t.Context(), &u, "name", "x")
	_ = q.UpdateColumns(t.Context(), &u, map[string]any{"name": "x"})

	wantTrace := []string{"outer", "inner", "outer", "inner", "outer", "inner"}
	if !slices.Equal(trace, wantTrace) {
		t.Errorf("trace = %v, want %v", trace, wantTrace)
	}
	wantSeen := []recorded{
		{orm.OpUpdateAll, "users", "", orm.PayloadExpr},
		{orm.OpUpdateColumn, "users", "name", orm.PayloadValues},
		{orm.OpUpdateColumns, "users", "", orm.PayloadValues},
	}
	if !slices.Equal(seen, wantSeen) {
		t.Errorf("seen = %v, want %v", seen, wantSeen)
	}
}

func TestMiddlewareReplacesPayload(t *testing.T) {
	t.Parallel()

	stamp := func(next orm.UpdateFunc) orm.UpdateFunc {
		return func(ctx context.Context, stmt *orm.UpdateStatement) (int64, error) {
			v := stmt.Payload.Values()
			v["updated_at"] = orm.Now(ctx)
			stmt.Payload = orm.Values(v)
			return next(ctx, stmt)
		}
	}
	tq := orm.NewTestQuerier(orm.MySQL, stamp)
	ctx := orm.WithClock(t.Context(), frozenClock())

	u := testUser{ID: 2}
	if err := newTestQuery(tq).UpdateColumn(ctx, &u, "name", "x"); err != nil {
		t.Fatalf("UpdateColumn: %v", err)
	}

	got := tq.LastQuery()
	want := "UPDATE `users` SET `name` = ?, `updated_at` = ? WHERE `id` = ?"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if ts, ok := got.Args[1].(time.Time); !ok || !ts.Equal(frozen) {
		t.Errorf("Args[1] = %v, want %v", got.Args[1], frozen)
	}
}

func TestUpdateErrorsPassThrough(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	tq := orm.NewTestQuerier(orm.MySQL)
	tq.ExecErr = errBoom
	q := newTestQuery(tq)
	u := testUser{ID: 1}

	if _, err := q.UpdateAll(t.Context(), orm.Raw("a = 1")); err != errBoom { //nolint:errorlint // identity check
		t.Errorf("UpdateAll error = %v, want %v", err, errBoom)
	}
	if err := q.UpdateColumns(t.Context(), &u, map[string]any{"a": 1}); err != errBoom { //nolint:errorlint // identity check
		t.Errorf("UpdateColumns error = %v, want %v", err, errBoom)
	}
}

func TestUpdateOpString(t *testing.T) {
	t.Parallel()

	tests := map[orm.UpdateOp]string{
		orm.OpUpdateAll:     "update_all",
		orm.OpUpdateColumn:  "update_column",
		orm.OpUpdateColumns: "update_columns",
		orm.UpdateOp(9):     "UpdateOp(9)",
	}
	for op, want := range tests {
		if got := op.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
