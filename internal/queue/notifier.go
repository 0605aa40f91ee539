package queue

import (
	"context"
	"encoding/json"

	"checkin/internal/student"
)

// Notifier publishes committed student changes onto a queue.
type Notifier struct {
	q Queue
}

// NewNotifier wraps q.
func NewNotifier(q Queue) *Notifier { return &Notifier{q: q} }

// Notify implements student.Notifier.
func (n *Notifier) Notify(ctx context.Context, c student.Change) error {
	body, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return n.q.Publish(ctx, Message{Type: c.Kind, Body: body})
}

// DecodeChange reads a change published by Notifier.
func DecodeChange(msg Message) (student.Change, error) {
	var c student.Change
	err := json.Unmarshal(msg.Body, &c)
	return c, err
}
