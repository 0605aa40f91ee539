package activity

import (
	"context"
	"time"

	"checkin/internal/student"
)

// Entry is one line of the kiosk activity feed.
type Entry struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	Class       string    `json:"class"`
	Actor       string    `json:"actor"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// FromChange converts a lifecycle change into a feed entry.
func FromChange(c student.Change) Entry {
	return Entry{
		Kind:        c.Kind,
		StudentID:   c.StudentID,
		StudentName: c.Name,
		Class:       c.Class,
		Actor:       c.Actor,
		OccurredAt:  c.At,
	}
}

// Feed page sizes.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Limit clamps a requested page size to 1..MaxLimit, using DefaultLimit
// when none was given.
func Limit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}

// Log stores feed entries.
type Log interface {
	Append(ctx context.Context, e Entry) (Entry, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
}
