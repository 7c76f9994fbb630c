// Package worklist provides the FIFO queues driving the fixpoint loops.
package worklist

// Worklist is a FIFO queue of work items. The zero value is ready for
// use.
type Worklist[T any] struct {
	items []T
	head  int
}

func Empty[T any]() Worklist[T] {
	return Worklist[T]{}
}

// Add appends an item at the back of the queue.
func (w *Worklist[T]) Add(item T) {
	w.items = append(w.items, item)
}

// GetNext removes and returns the item at the front of the queue, or
// the zero value when the queue is empty. The vacated slot is cleared
// so that processed items can be collected.
func (w *Worklist[T]) GetNext() (next T) {
	if w.IsEmpty() {
		return
	}

	var zero T
	next = w.items[w.head]
	w.items[w.head] = zero
	w.head++

	if w.head == len(w.items) {
		w.items = w.items[:0]
		w.head = 0
	}
	return
}

func (w *Worklist[T]) IsEmpty() bool {
	return w.head == len(w.items)
}

// Process drains the queue, handing each item to do together with a
// function that enqueues further items.
func (w *Worklist[T]) Process(do func(next T, add func(item T))) {
	for !w.IsEmpty() {
		do(w.GetNext(), w.Add)
	}
}

// StartV drains a queue preloaded with the given items.
func StartV[T any](items []T, do func(next T, add func(item T))) {
	w := Empty[T]()
	for _, item := range items {
		w.Add(item)
	}

	w.Process(do)
}
