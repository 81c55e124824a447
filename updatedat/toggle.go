// Package updatedat keeps an updated-at column current on the update paths
// that skip model timestamps: orm's UpdateAll, UpdateColumn and
// UpdateColumns.
//
//	db := orm.New(sqlDB, orm.PostgreSQL).Use(updatedat.Middleware())
//	_, err := Users(db).Where("plan = ?", "trial").UpdateAll(ctx, orm.Values(map[string]any{"plan": "free"}))
//	// UPDATE "users" SET "plan" = $1, "updated_at" = $2 WHERE plan = $3
//
// Stamping is on by default and can be switched off for the duration of a
// call with Disable:
//
//	_, err := updatedat.Disable(ctx, func(ctx context.Context) (int64, error) {
//	    return Users(db).UpdateAll(ctx, orm.Raw("visits = visits + 1"))
//	})
package updatedat

import "context"

type toggleKey struct{}

// Enabled reports whether stamping is on for ctx. It is on unless ctx was
// derived from Disable or WithDisabled (and not re-enabled since).
func Enabled(ctx context.Context) bool {
	if on, ok := ctx.Value(toggleKey{}).(bool); ok {
		return on
	}
	return true
}

// WithDisabled returns a child context in which stamping is off.
func WithDisabled(ctx context.Context) context.Context {
	return context.WithValue(ctx, toggleKey{}, false)
}

// WithEnabled returns a child context in which stamping is on.
func WithEnabled(ctx context.Context) context.Context {
	return context.WithValue(ctx, toggleKey{}, true)
}

// Disable runs body with stamping off and returns its results.
// Only the context handed to body is affected; ctx keeps its state however
// body returns.
func Disable[R any](ctx context.Context, body func(ctx context.Context) (R, error)) (R, error) {
	return body(WithDisabled(ctx))
}

// Enable runs body with stamping on and returns its results.
// It is the inverse of Disable and nests the same way.
func Enable[R any](ctx context.Context, body func(ctx context.Context) (R, error)) (R, error) {
	return body(WithEnabled(ctx))
}
