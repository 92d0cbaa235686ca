package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// txExecer is the slice of pgx.Tx used by helpers that write inside an
// already-open transaction.
type txExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
