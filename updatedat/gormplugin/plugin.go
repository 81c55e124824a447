// Package gormplugin applies the updatedat rules to GORM.
//
// GORM keeps UpdatedAt current for Save, Update and Updates, but
// UpdateColumn and UpdateColumns skip hooks and time tracking. The plugin
// stamps those statements unless the column is already assigned or
// updatedat.Disable is in effect for the statement context:
//
//	db, _ := gorm.Open(sqlite.Open("app.db"), &gorm.Config{})
//	_ = db.Use(gormplugin.New())
//	db.WithContext(ctx).Model(&user).UpdateColumn("name", "alice")
//	// UPDATE `users` SET `name`="alice",`updated_at`="..." WHERE `id` = 1
//
// Only map arguments are stamped. UpdateColumns(struct) keeps the stored
// timestamp; set the field on the struct or pass a map instead.
package gormplugin

import (
	"maps"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mickamy/ormtouch/orm"
	"github.com/mickamy/ormtouch/updatedat"
)

const callbackName = "ormtouch:updated_at"

// Plugin implements gorm.Plugin.
type Plugin struct {
	column string
	logger *zap.Logger
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithColumn sets the DB column to stamp. Empty names are ignored.
func WithColumn(name string) Option {
	return func(p *Plugin) {
		if name != "" {
			p.column = name
		}
	}
}

// WithLogger logs every decision at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(p *Plugin) {
		if l != nil {
			p.logger = l
		}
	}
}

// New returns a Plugin stamping updatedat.DefaultColumn unless configured
// otherwise.
func New(opts ...Option) *Plugin {
	p := &Plugin{column: updatedat.DefaultColumn, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) Name() string { return callbackName }

// Initialize registers the stamping callback ahead of gorm:update.
func (p *Plugin) Initialize(db *gorm.DB) error {
	return db.Callback().Update().Before("gorm:update").Register(callbackName, p.stamp) //nolint:wrapcheck // gorm error
}

// stamp only handles map destinations. Struct destinations passed to
// UpdateColumns are left alone.
func (p *Plugin) stamp(db *gorm.DB) {
	stmt := db.Statement
	if db.Error != nil || !stmt.SkipHooks {
		return
	}
	values, ok := stmt.Dest.(map[string]any)
	if !ok {
		return
	}

	d := p.decide(stmt, values)
	p.logger.Debug("updated_at decision",
		zap.String("table", stmt.Table),
		zap.String("column", p.column),
		zap.String("decision", string(d)),
	)
	if d != updatedat.Injected {
		return
	}

	stamped := maps.Clone(values)
	stamped[p.column] = p.now(db)
	stmt.Dest = stamped
}

func (p *Plugin) decide(stmt *gorm.Statement, values map[string]any) updatedat.Decision {
	if !updatedat.Enabled(stmt.Context) {
		return updatedat.Disabled
	}
	if len(values) == 0 {
		return updatedat.Empty
	}
	for key := range values {
		if p.assigns(stmt, key) {
			return updatedat.Explicit
		}
	}
	return updatedat.Injected
}

// assigns matches key against the column by DB name or, through the
// schema, by Go field name ("UpdatedAt").
func (p *Plugin) assigns(stmt *gorm.Statement, key string) bool {
	if key == p.column {
		return true
	}
	if stmt.Schema == nil {
		return false
	}
	field := stmt.Schema.LookUpField(key)
	return field != nil && field.DBName == p.column
}

func (p *Plugin) now(db *gorm.DB) time.Time {
	if c, ok := orm.ClockFrom(db.Statement.Context); ok {
		return c.Now()
	}
	return db.NowFunc()
}
