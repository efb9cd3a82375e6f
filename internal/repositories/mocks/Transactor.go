package mocks

import (
	context "context"
)

// Transactor runs the unit of work inline and reports whether the last
// unit committed. It stands in for a real database transaction.
type Transactor struct {
	Calls     int
	Committed bool
	// RolledBackSavepoints lists the savepoints whose unit failed.
	RolledBackSavepoints []string
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++

	err := fn(ctx)
	t.Committed = err == nil

	return err
}

func (t *Transactor) WithinSavepoint(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err != nil {
		t.RolledBackSavepoints = append(t.RolledBackSavepoints, name)
	}

	return err
}
