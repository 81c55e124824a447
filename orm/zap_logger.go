package orm

import (
	"context"

	"go.uber.org/zap"
)

type zapLogger struct {
	l *zap.Logger
}

// NewZapLogger returns a Logger that writes every statement to l at
// debug level.
//
//	db = db.Debug(orm.NewZapLogger(logger.Named("sql")))
func NewZapLogger(l *zap.Logger) Logger {
	return zapLogger{l: l}
}

func (z zapLogger) Log(_ context.Context, query string, args ...any) {
	z.l.Debug("query", zap.String("sql", query), zap.Any("args", args))
}
