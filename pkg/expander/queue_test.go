package expander_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynacylabs/airganizer-sub001/pkg/expander"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q := expander.NewQueue(
		expander.WorkItem{Path: "a"},
		expander.WorkItem{Path: "b"},
		expander.WorkItem{Path: "c"},
	)
	require.Equal(t, 3, q.Len())

	item, ok := q.PopFront()
	require.True(t, ok)
	assert.Equal(t, "a", item.Path)

	item, ok = q.PopFront()
	require.True(t, ok)
	assert.Equal(t, "b", item.Path)

	item, ok = q.PopFront()
	require.True(t, ok)
	assert.Equal(t, "c", item.Path)
	assert.Equal(t, 0, q.Len())

	_, ok = q.PopFront()
	assert.False(t, ok, "popping an empty queue should report not-ok")
}

func TestQueue_PopEmpty(t *testing.T) {
	q := expander.NewQueue()
	item, ok := q.PopFront()
	assert.False(t, ok)
	assert.Zero(t, item)
	assert.Equal(t, 0, q.Len())
}

// Items pushed while draining must come out after everything already queued,
// mirroring how extraction outputs join behind the remaining scan results.
func TestQueue_ExtendDuringDrain(t *testing.T) {
	q := expander.NewQueue(
		expander.WorkItem{Path: "first"},
		expander.WorkItem{Path: "second"},
	)

	var order []string
	for {
		item, ok := q.PopFront()
		if !ok {
			break
		}
		order = append(order, item.Path)
		if item.Path == "first" {
			q.PushBack(expander.WorkItem{Path: "child-of-first", Depth: 1})
		}
	}

	assert.Equal(t, []string{"first", "second", "child-of-first"}, order)
}

func TestQueue_DepthPreserved(t *testing.T) {
	q := expander.NewQueue()
	q.PushBack(expander.WorkItem{Path: "deep", Depth: 7})
	item, ok := q.PopFront()
	require.True(t, ok)
	assert.Equal(t, 7, item.Depth)
}

// Long drains with interleaved pushes exercise the internal compaction path.
func TestQueue_LargeChurn(t *testing.T) {
	q := expander.NewQueue()
	const total = 10000
	for i := 0; i < total; i++ {
		q.PushBack(expander.WorkItem{Path: fmt.Sprintf("item-%05d", i)})
	}

	popped := 0
	for {
		item, ok := q.PopFront()
		if !ok {
			break
		}
		assert.Equal(t, fmt.Sprintf("item-%05d", popped), item.Path)
		popped++
		// Interleave occasional growth like nested extractions would.
		if popped%1000 == 0 && popped <= total {
			q.PushBack(expander.WorkItem{Path: fmt.Sprintf("item-%05d", total+popped/1000-1)})
		}
	}
	assert.Equal(t, total+total/1000, popped)
	assert.Equal(t, 0, q.Len())
}
