package mocks

import (
	"context"
	"sync"

	"github.com/musaabMD/expoiosweb/internal/store"
)

// Transactor runs transaction functions without a database. The callback
// receives a nil *sqlx.Tx, which the store mocks ignore in WithTx.
type Transactor struct {
	// Err, when set, is returned instead of running the function.
	Err error

	mu    sync.Mutex
	calls int
}

var _ store.Transactor = (*Transactor)(nil)

// WithinTx implements store.Transactor.
func (t *Transactor) WithinTx(ctx context.Context, fn store.TxFn) error {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()

	if t.Err != nil {
		return t.Err
	}
	return fn(ctx, nil)
}

// Calls returns how many transactions were started.
func (t *Transactor) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
