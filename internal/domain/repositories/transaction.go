package repositories

import "context"

// TxFn is a function that runs within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions.
type TransactionManager interface {
	// ExecTx executes fn within a transaction. The transaction is stored in
	// the context passed to fn so repositories automatically join it.
	ExecTx(ctx context.Context, fn TxFn) error
}
