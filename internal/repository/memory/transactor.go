package memory

import (
	"context"
	"sync"
)

type txKey struct{}

type undoLog struct {
	mu    sync.Mutex
	steps []func()
}

// Transactor gives the memory stores rollback on error. Writes are visible
// to other callers before commit; only atomicity is modelled.
type Transactor struct{}

func NewTransactor() *Transactor {
	return &Transactor{}
}

func (*Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	log := &undoLog{}
	if err := fn(context.WithValue(ctx, txKey{}, log)); err != nil {
		log.mu.Lock()
		steps := log.steps
		log.mu.Unlock()
		for i := len(steps) - 1; i >= 0; i-- {
			steps[i]()
		}
		return err
	}
	return nil
}

// onRollback registers undo when ctx belongs to a transaction. undo runs
// without any store lock held.
func onRollback(ctx context.Context, undo func()) {
	log, ok := ctx.Value(txKey{}).(*undoLog)
	if !ok {
		return
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	log.steps = append(log.steps, undo)
}
