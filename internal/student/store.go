package student

import (
	"context"
	"time"
)

// Store persists students. Implementations return ErrRecordNotFound for a
// missing id or token, ErrDuplicateQRCode on a token collision and
// ErrInvalidTransition when a Patch precondition no longer holds.
type Store interface {
	Create(ctx context.Context, s Student) (Student, error)
	Get(ctx context.Context, id string) (Student, error)
	FindByQRCode(ctx context.Context, qrCode string) (Student, error)
	List(ctx context.Context) ([]Student, error)
	// Update applies p atomically, appending p.Append to the fee history.
	Update(ctx context.Context, id string, p Patch) (Student, error)
	Delete(ctx context.Context, id string) error
}

// PhotoSink stores an evidence photo and returns its public URL.
type PhotoSink interface {
	Upload(ctx context.Context, name string, image []byte) (string, error)
}

// Change kinds published after a successful write.
const (
	ChangeCreated         = "student.created"
	ChangeDeleted         = "student.deleted"
	ChangeFeeUpdated      = "student.fee_updated"
	ChangeCheckedIn       = "student.checked_in"
	ChangeCheckedOut      = "student.checked_out"
	ChangeCheckInDeleted  = "student.checkin_deleted"
	ChangeCheckOutDeleted = "student.checkout_deleted"
)

// Change describes a committed lifecycle event.
type Change struct {
	Kind      string    `json:"kind"`
	StudentID string    `json:"studentId"`
	Name      string    `json:"name"`
	Class     string    `json:"class"`
	Actor     string    `json:"actor"`
	At        time.Time `json:"at"`
}

// Notifier receives committed changes. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, c Change) error
}

// Notifiers fans a change out to several notifiers, returning the first error.
func Notifiers(ns ...Notifier) Notifier { return multiNotifier(ns) }

type multiNotifier []Notifier

func (m multiNotifier) Notify(ctx context.Context, c Change) error {
	var first error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, c); err != nil && first == nil {
			first = err
		}
	}
	return first
}
