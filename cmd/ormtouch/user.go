package main

import (
	"database/sql"
	"time"

	"github.com/mickamy/ormtouch/orm"
)

// user is the demo model. Its timestamp column name comes from Config.
type user struct {
	ID        int64
	Name      string
	UpdatedAt time.Time
}

func users(db orm.Querier, cfg Config) *orm.Query[user] {
	columns := []string{"id", "name", cfg.Column}
	q := orm.NewQuery[user](db, cfg.Table, columns, "id",
		scanUser,
		func(r *user, includesPK bool) ([]string, []any) {
			if includesPK {
				return columns, []any{r.ID, r.Name, r.UpdatedAt}
			}
			return columns[1:], []any{r.Name, r.UpdatedAt}
		},
		func(r *user, id int64) { r.ID = id },
	)
	q.RegisterTimestamps(nil, func(r *user, now time.Time) { r.UpdatedAt = now })
	return q
}

func scanUser(rs *sql.Rows) (user, error) {
	var r user
	err := rs.Scan(&r.ID, &r.Name, &r.UpdatedAt)
	return r, err //nolint:wrapcheck // scan error
}
