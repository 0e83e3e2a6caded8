package eventqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopOrdersByTimeThenFIFO(t *testing.T) {
	q := New()
	var order []string

	q.Push(5.0, func() { order = append(order, "b-at-5") })
	q.Push(1.0, func() { order = append(order, "a-at-1") })
	q.Push(5.0, func() { order = append(order, "c-at-5-second") })

	require.Equal(t, 3, q.Len())

	for q.Len() > 0 {
		e := q.Pop()
		e.Action()
	}

	assert.Equal(t, []string{"a-at-1", "b-at-5", "c-at-5-second"}, order)
}

func TestPopEmptiesQueue(t *testing.T) {
	q := New()
	q.Push(0, func() {})
	q.Pop()
	assert.Equal(t, 0, q.Len())
}
