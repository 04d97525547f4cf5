package expander

// Queue is the FIFO work list driving iterative traversal of nested
// archives. Successful extractions append to the back of the same queue the
// driver is draining from the front, so growth during iteration is the
// normal case, not an edge case. Not safe for concurrent use; the driver is
// single-threaded by design.
type Queue struct {
	items []WorkItem
	head  int
}

// NewQueue creates a queue pre-populated with the given items.
func NewQueue(items ...WorkItem) *Queue {
	q := &Queue{items: make([]WorkItem, 0, max(len(items), 64))}
	q.items = append(q.items, items...)
	return q
}

// PushBack appends an item to the back of the queue.
func (q *Queue) PushBack(item WorkItem) {
	q.items = append(q.items, item)
}

// PopFront removes and returns the front item. The second return value is
// false when the queue is empty.
func (q *Queue) PopFront() (WorkItem, bool) {
	if q.head >= len(q.items) {
		return WorkItem{}, false
	}
	item := q.items[q.head]
	q.items[q.head] = WorkItem{} // release the path string
	q.head++
	// Compact once the dead prefix dominates, keeping push/pop O(1) amortized
	// without unbounded memory growth on long runs.
	if q.head > 1024 && q.head*2 >= len(q.items) {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}
	return item, true
}

// Len reports the number of items still pending.
func (q *Queue) Len() int {
	return len(q.items) - q.head
}
