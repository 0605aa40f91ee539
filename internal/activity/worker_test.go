package activity

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkin/internal/queue"
	"checkin/internal/student"
)

type memLog struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (m *memLog) Append(_ context.Context, e Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Entry{}, m.err
	}
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memLog) Recent(context.Context, int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...), nil
}

type countingCache struct{ n int }

func (c *countingCache) Invalidate(context.Context) error {
	c.n++
	return nil
}

func changeMessage(t *testing.T, c student.Change) queue.Message {
	t.Helper()
	body, err := json.Marshal(c)
	require.NoError(t, err)
	return queue.Message{Type: c.Kind, Body: body}
}

func TestWorkerHandle(t *testing.T) {
	l := &memLog{}
	cache := &countingCache{}
	w := NewWorker(l, cache)
	at := time.Date(2024, 5, 18, 8, 0, 0, 0, time.UTC)

	err := w.Handle(context.Background(), changeMessage(t, student.Change{
		Kind: student.ChangeCheckedIn, StudentID: "s1", Name: "A", Class: "1A", Actor: "staff", At: at,
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.n)
	require.Len(t, l.entries, 1)
	assert.Equal(t, Entry{
		Kind: student.ChangeCheckedIn, StudentID: "s1", StudentName: "A", Class: "1A", Actor: "staff", OccurredAt: at,
	}, l.entries[0])

	require.NoError(t, w.Handle(context.Background(), queue.Message{Type: "checkin"}))
	assert.Len(t, l.entries, 1)
	assert.Equal(t, 1, cache.n)

	assert.Error(t, w.Handle(context.Background(), queue.Message{Type: student.ChangeCreated, Body: []byte("{")}))
}

func TestWorkerRun(t *testing.T) {
	l := &memLog{}
	w := NewWorker(l, nil)
	ch := make(chan queue.Message, 3)
	ch <- changeMessage(t, student.Change{Kind: student.ChangeCreated, StudentID: "a"})
	ch <- changeMessage(t, student.Change{Kind: student.ChangeDeleted, StudentID: "a"})
	close(ch)

	w.Run(context.Background(), ch)
	entries, _ := l.Recent(context.Background(), 0)
	assert.Len(t, entries, 2)
}

func TestWorkerRunSurvivesLogErrors(t *testing.T) {
	l := &memLog{err: errors.New("db down")}
	ch := make(chan queue.Message, 1)
	ch <- changeMessage(t, student.Change{Kind: student.ChangeCreated})
	close(ch)
	NewWorker(l, &countingCache{}).Run(context.Background(), ch)
}
