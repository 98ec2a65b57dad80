package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
)

const dateLayout = "2006-01-02"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	dateLayout,
}

// timeValue converts what drivers hand back for timestamp and date columns.
// SQLite returns text, postgres returns time.Time.
func timeValue(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case []byte:
		return parseTime(string(t))
	case string:
		return parseTime(t)
	}
	return time.Time{}, fmt.Errorf("unsupported time value %T", v)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// dateOnly strips the clock so a purchase date renders the same in every dialect.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// query runs a built SELECT and hands each row to scan.
func query(ctx context.Context, q dialect.ExecQuerier, sel *entsql.Selector, scan func(*entsql.Rows) error) error {
	stmt, args := sel.Query()
	rows := &entsql.Rows{}
	if err := q.Query(ctx, stmt, args, rows); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("%w: scan: %v", common.ErrDatabase, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return nil
}

// exec runs a built statement.
func exec(ctx context.Context, q dialect.ExecQuerier, b entsql.Querier) error {
	stmt, args := b.Query()
	if err := q.Exec(ctx, stmt, args, nil); err != nil {
		return fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	return nil
}

func notFound(what string, key any) error {
	return fmt.Errorf("%s %v: %w", what, key, common.ErrNotFound)
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
