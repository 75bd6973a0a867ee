package audit

import "errors"

var (
	// ErrDone is returned by Next once every item has been visited.
	ErrDone = errors.New("audit: no more items")
	// ErrExhausted is returned when a back-step would move before the first
	// item. It is a navigation signal, not a fault.
	ErrExhausted = errors.New("audit: cannot step back any further")
)

// Iterator walks a fixed slice forwards, one step back at a time on request.
//
// The cursor starts before the first item. Each call to Next moves it one
// position forward, unless StepBack was called since the previous Next, in
// which case it moves one position back and the request is cleared.
type Iterator[T any] struct {
	items []T
	index int
	back  bool
}

// NewIterator returns an iterator positioned before items[0].
func NewIterator[T any](items []T) *Iterator[T] {
	return &Iterator[T]{items: items, index: -1}
}

// Next returns the item under the cursor after moving it.
func (it *Iterator[T]) Next() (T, error) {
	var zero T
	if it.back {
		it.back = false
		it.index--
		if it.index < 0 {
			it.index = -1
			return zero, ErrExhausted
		}
		return it.items[it.index], nil
	}
	if it.index < len(it.items) {
		it.index++
	}
	if it.index >= len(it.items) {
		return zero, ErrDone
	}
	return it.items[it.index], nil
}

// StepBack makes the next call to Next return the previous item.
func (it *Iterator[T]) StepBack() { it.back = true }

// CanStepBack reports whether there is an earlier item to return to.
func (it *Iterator[T]) CanStepBack() bool { return it.index > 0 }

// Index is the cursor position: -1 before the first Next, Len() when done.
func (it *Iterator[T]) Index() int { return it.index }

func (it *Iterator[T]) Len() int { return len(it.items) }
