package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxFromContext retrieves an in-flight transaction from context, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// WithTx begins a transaction on the lab-scoped connection and returns it
// together with a derived context carrying the transaction, so that repository
// calls made with that context join the same unit of work. The caller owns
// Commit/Rollback.
func WithTx(ctx context.Context) (pgx.Tx, context.Context, error) {
	if tx := TxFromContext(ctx); tx != nil {
		// Already inside a transaction; join it.
		return tx, ctx, nil
	}

	conn := ConnFromContext(ctx)
	if conn == nil {
		return nil, ctx, fmt.Errorf("no database connection in context")
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, ctx, fmt.Errorf("begin transaction: %w", err)
	}

	return tx, context.WithValue(ctx, DBTxKey, tx), nil
}
