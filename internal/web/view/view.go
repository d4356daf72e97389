// Package view is the load state of a dashboard table.
//
// A List moves idle -> loading -> ready | error on every load. Rows are only ever replaced by
// a complete server read; a mutation never patches them. Each load is stamped with a
// generation, and a result that arrives after a newer load started, or after its context is
// done, is dropped with ErrStale.
package view

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

type State string

const (
	Idle    State = "idle"
	Loading State = "loading"
	Ready   State = "ready"
	Failed  State = "error"
)

// ErrStale reports a result that was dropped because its view moved on.
var ErrStale = errors.New("view: stale result dropped")

type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Snapshot is a consistent copy for rendering.
type Snapshot[T any] struct {
	State State
	Rows  []T
	Err   error
}

type List[T any] struct {
	mu         sync.Mutex
	fetch      Fetcher[T]
	state      State
	rows       []T
	err        error
	generation uint64
}

func NewList[T any](fetch Fetcher[T]) *List[T] {
	return &List[T]{fetch: fetch, state: Idle}
}

// Load issues one list request. It returns the fetch error when the list lands in error, and
// ErrStale when the result was dropped.
func (l *List[T]) Load(ctx context.Context) error {
	gen := l.begin()
	rows, err := l.fetch(ctx)
	return l.complete(ctx, gen, rows, err)
}

// Mutate runs op and, only if it succeeds, reloads the whole list. A failed op leaves the
// state and rows exactly as they were and returns op's error.
func (l *List[T]) Mutate(ctx context.Context, op func(ctx context.Context) error) error {
	if err := op(ctx); err != nil {
		return err
	}
	return l.Load(ctx)
}

func (l *List[T]) Snapshot() Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := make([]T, len(l.rows))
	copy(rows, l.rows)
	return Snapshot[T]{State: l.state, Rows: rows, Err: l.err}
}

func (l *List[T]) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *List[T]) begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	l.state = Loading
	return l.generation
}

func (l *List[T]) complete(ctx context.Context, gen uint64, rows []T, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation || ctx.Err() != nil {
		return ErrStale
	}
	if err != nil {
		l.state = Failed
		l.err = err
		l.rows = nil
		return err
	}
	if rows == nil {
		rows = []T{}
	}
	l.state = Ready
	l.err = nil
	l.rows = rows
	return nil
}

// Gather runs the list load next to the loads that fill other parts of the page (facets,
// select options). They race freely since each fills its own state. Only the list's error is
// returned; the others are expected to degrade on their own.
func Gather(ctx context.Context, list func(ctx context.Context) error, others ...func(ctx context.Context) error) error {
	var (
		g       errgroup.Group
		listErr error
	)
	g.Go(func() error {
		listErr = list(ctx)
		return nil
	})
	for _, load := range others {
		load := load
		g.Go(func() error {
			_ = load(ctx)
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		return ErrStale
	}
	return listErr
}
