package database

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned by Commit and Rollback outside Begin.
var ErrNoTransaction = errors.New("no transaction in context")

type txKey struct{}

// scopedTx is the transaction carried in a context. Only the unit that
// began it commits or rolls it back.
type scopedTx struct {
	tx    Transaction
	owner bool
}

func txFrom(ctx context.Context) (scopedTx, bool) {
	s, ok := ctx.Value(txKey{}).(scopedTx)
	return s, ok && s.tx != nil
}

// ExecutorFromContext returns the transaction begun by a UnitOfWork on ctx,
// or conn when there is none. Repositories call it for every statement so
// writes made inside Do share one transaction.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if s, ok := txFrom(ctx); ok {
		return s.tx
	}
	return conn
}

// UnitOfWork scopes a group of writes to one transaction carried in the context.
type UnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work on conn.
func NewUnitOfWork(conn Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Begin starts a transaction and stores it in the context. A transaction
// already in the context is joined instead.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if s, ok := txFrom(ctx); ok {
		return context.WithValue(ctx, txKey{}, scopedTx{tx: s.tx}), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, txKey{}, scopedTx{tx: tx, owner: true}), nil
}

// Commit commits the transaction if this unit began it.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	return u.finish(ctx, Transaction.Commit)
}

// Rollback rolls back the transaction if this unit began it.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	return u.finish(ctx, Transaction.Rollback)
}

func (u *UnitOfWork) finish(ctx context.Context, end func(Transaction, context.Context) error) error {
	s, ok := txFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !s.owner {
		return nil
	}
	return end(s.tx, ctx)
}

// Do runs fn inside a unit of work, committing when fn succeeds.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	txCtx, err := u.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(txCtx); err != nil {
		_ = u.Rollback(txCtx)
		return err
	}
	return u.Commit(txCtx)
}
