package task_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/km-arc/go-planteuf/framework/task"
)

func TestQueue_EnqueueRejectsDuplicates(t *testing.T) {
	q := task.NewQueue()
	assert.True(t, q.Enqueue("a"))
	assert.True(t, q.Enqueue("b"))
	assert.False(t, q.Enqueue("a"))
	assert.Equal(t, []string{"a", "b"}, q.List())
}

func TestQueue_Dequeue(t *testing.T) {
	q := task.NewQueue()
	q.Enqueue("a")
	q.Enqueue("b")
	q.Enqueue("c")

	assert.True(t, q.Dequeue("b"))
	assert.False(t, q.Dequeue("b"))
	assert.False(t, q.Dequeue("missing"))
	assert.Equal(t, []string{"a", "c"}, q.List())
	assert.Equal(t, 2, q.Len())
}

func TestQueue_ListIsSnapshot(t *testing.T) {
	q := task.NewQueue()
	q.Enqueue("a")
	list := q.List()
	list[0] = "changed"
	assert.Equal(t, []string{"a"}, q.List())
}

func TestQueue_Concurrent(t *testing.T) {
	q := task.NewQueue()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue("same")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, q.Len())
}

func TestParseStatusAndEvent(t *testing.T) {
	s, err := task.ParseStatus("in_progress")
	assert.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, s)
	assert.False(t, s.Terminal())
	assert.True(t, task.StatusFailed.Terminal())

	_, err = task.ParseStatus("done")
	assert.ErrorIs(t, err, task.ErrInvalidStatus)

	e, err := task.ParseEvent("test")
	assert.NoError(t, err)
	assert.Equal(t, task.EventTest, e)

	_, err = task.ParseEvent("deploy")
	assert.ErrorIs(t, err, task.ErrInvalidEvent)
}
