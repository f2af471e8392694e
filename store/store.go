// Package store runs parameterised SQL against the conversation warehouse.
//
// Two executors are provided: SQLExecutor speaks the Postgres wire protocol
// through database/sql and lib/pq, DataAPIExecutor goes through the Redshift
// Data API. Both take $1-style placeholders and return rows keyed by column name.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Executor is the read/write surface the rest of the service depends on.
type Executor interface {
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// ErrTimeout marks a statement that was cut off by its context deadline.
var ErrTimeout = errors.New("query timed out")

// Error wraps an infrastructure failure with the operation that hit it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable is always true: a store failure says nothing about the request itself.
func (e *Error) Retryable() bool {
	return true
}

// IsTimeout reports whether err came from a query deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func wrapErr(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Op: op, Err: fmt.Errorf("%w: %v", ErrTimeout, err)}
	}
	return &Error{Op: op, Err: err}
}
