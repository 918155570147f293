package flver

import (
	"fmt"
	"slices"
)

// pool holds records read from a shared table until an owner claims them.
// Claiming moves a record out of the pool, so each record ends up with
// exactly one owner.
type pool[T any] struct {
	kind  string
	items map[int]T
}

func newPool[T any](kind string, items []T) *pool[T] {
	p := &pool[T]{kind: kind, items: make(map[int]T, len(items))}
	for i, item := range items {
		p.items[i] = item
	}
	return p
}

// take removes and returns the record at index.
func (p *pool[T]) take(owner string, index int32) (T, error) {
	item, ok := p.items[int(index)]
	if !ok {
		var zero T
		return zero, &ClaimError{Kind: p.kind, Index: int(index), Owner: owner}
	}
	delete(p.items, int(index))
	return item, nil
}

// claim takes every index in order.
func (p *pool[T]) claim(owner string, indices []int32) ([]T, error) {
	out := make([]T, 0, len(indices))
	for _, index := range indices {
		item, err := p.take(owner, index)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// remaining returns the unclaimed indices in ascending order.
func (p *pool[T]) remaining() []int {
	var out []int
	for i := range p.items {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// drained fails with ErrOrphaned if any record was never claimed.
func (p *pool[T]) drained() error {
	if left := p.remaining(); len(left) > 0 {
		return fmt.Errorf("%w: %s %v", ErrOrphaned, p.kind, left)
	}
	return nil
}
