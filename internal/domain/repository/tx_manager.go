package repository

import "context"

// TxManager runs fn inside a single database transaction.
// Repositories called with the ctx passed to fn join that transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
