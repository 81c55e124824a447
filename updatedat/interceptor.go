package updatedat

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mickamy/ormtouch/orm"
)

// DefaultColumn is the column stamped when no WithColumn option is given.
const DefaultColumn = "updated_at"

// RawTimeLayout is the ISO-8601 layout used when stamping a raw payload.
const RawTimeLayout = "2006-01-02T15:04:05.000000-07:00"

// Decision records what the interceptor did with one statement.
type Decision string

const (
	// Injected means the column was added to the payload.
	Injected Decision = "injected"
	// Explicit means the payload already assigned the column.
	Explicit Decision = "explicit"
	// Disabled means stamping was off for the statement's context.
	Disabled Decision = "disabled"
	// Empty means the payload assigned nothing; the executor rejects it.
	Empty Decision = "empty"
)

// Interceptor stamps the updated-at column on update statements.
// It is safe for concurrent use.
type Interceptor struct {
	column   string
	logger   *zap.Logger
	registry prometheus.Registerer
	metrics  *metrics
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithColumn sets the column to stamp. Empty names are ignored.
func WithColumn(name string) Option {
	return func(i *Interceptor) {
		if name != "" {
			i.column = name
		}
	}
}

// WithLogger logs every decision at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(i *Interceptor) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithRegisterer registers the decision counter with r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(i *Interceptor) { i.registry = r }
}

// New returns an Interceptor stamping DefaultColumn unless configured
// otherwise. It panics if the counter cannot be registered, like
// prometheus.MustRegister.
func New(opts ...Option) *Interceptor {
	i := &Interceptor{column: DefaultColumn, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(i)
	}
	i.metrics = newMetrics(i.registry)
	return i
}

// Middleware is shorthand for New(opts...).Middleware().
func Middleware(opts ...Option) orm.UpdateMiddleware {
	return New(opts...).Middleware()
}

// Column returns the stamped column name.
func (i *Interceptor) Column() string { return i.column }

// Middleware returns the orm.UpdateMiddleware that applies Stamp to every
// statement before passing it on. Errors from the rest of the chain are
// returned as is.
func (i *Interceptor) Middleware() orm.UpdateMiddleware {
	return func(next orm.UpdateFunc) orm.UpdateFunc {
		return func(ctx context.Context, stmt *orm.UpdateStatement) (int64, error) {
			i.Stamp(ctx, stmt)
			return next(ctx, stmt)
		}
	}
}

// Stamp adds the column to stmt's payload, set to orm.Now(ctx), unless
// stamping is disabled for ctx or the statement already assigns it.
func (i *Interceptor) Stamp(ctx context.Context, stmt *orm.UpdateStatement) Decision {
	d := i.decide(ctx, stmt)
	if d == Injected {
		stmt.Payload = Inject(stmt.Payload, i.column, orm.Now(ctx))
	}
	i.metrics.observe(stmt.Op, d)
	i.logger.Debug("updated_at decision",
		zap.String("op", stmt.Op.String()),
		zap.String("table", stmt.Table),
		zap.String("column", i.column),
		zap.String("decision", string(d)),
	)
	return d
}

func (i *Interceptor) decide(ctx context.Context, stmt *orm.UpdateStatement) Decision {
	if !Enabled(ctx) {
		return Disabled
	}
	if stmt.Payload.IsZero() {
		return Empty
	}
	if stmt.Op == orm.OpUpdateColumn && stmt.Column == i.column {
		return Explicit
	}
	if Assigns(stmt.Payload, i.column) {
		return Explicit
	}
	return Injected
}

// Assigns reports whether p already sets column. Values payloads are
// matched on the exact key. Expr and Raw payloads are matched on the
// literal text "<column> = ", so the check is case and whitespace
// sensitive: "UPDATED_AT = ?" or "updated_at=?" are not recognised.
func Assigns(p orm.Payload, column string) bool {
	switch p.Kind() {
	case orm.PayloadValues:
		_, ok := p.Values()[column]
		return ok
	case orm.PayloadExpr:
		return strings.Contains(p.Template(), column+" = ")
	case orm.PayloadRaw:
		return strings.Contains(p.Fragment(), column+" = ")
	default:
		return false
	}
}

// Inject returns p with column set to now:
//
//	Values: {..., column: now}
//	Expr:   "<template>, column = ?" with now appended to the args
//	Raw:    "<fragment>, column = '<now in RawTimeLayout>'"
//
// p itself is not modified.
func Inject(p orm.Payload, column string, now time.Time) orm.Payload {
	switch p.Kind() {
	case orm.PayloadExpr:
		return orm.Expr(p.Template()+", "+column+" = ?", append(p.Args(), now)...)
	case orm.PayloadRaw:
		return orm.Raw(p.Fragment() + ", " + column + " = '" + now.Format(RawTimeLayout) + "'")
	default:
		values := p.Values()
		if values == nil {
			values = make(map[string]any, 1)
		}
		values[column] = now
		return orm.Values(values)
	}
}
