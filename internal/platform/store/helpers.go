package store

import (
	"context"

	perr "vqamerge/internal/platform/errors"
)

// Exec runs a write and returns the raw CommandTag
func Exec(ctx context.Context, q RowQuerier, sql string, args ...any) (CommandTag, error) {
	return q.Exec(ctx, sql, args...)
}

// Scalar queries the first row, first column into T
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (T, error) {
	var v T
	if err := q.QueryRow(ctx, sql, args...).Scan(&v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// CHScalar queries the first row, first column of a clickhouse result into T.
// An empty result is perr.ErrNotFound
func CHScalar[T any](ctx context.Context, c Clickhouse, sql string, args ...any) (v T, err error) {
	rs, err := c.Query(ctx, sql, args...)
	if err != nil {
		return v, err
	}
	defer rs.Close()

	if !rs.Next() {
		if err := rs.Err(); err != nil {
			return v, err
		}
		return v, perr.ErrNotFound
	}
	if err := rs.Scan(&v); err != nil {
		var zero T
		return zero, err
	}
	return v, rs.Err()
}
