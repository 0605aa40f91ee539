package student

import "time"

// Status is the attendance state of a student.
type Status string

const (
	StatusNotArrived Status = "not-arrived"
	StatusCheckedIn  Status = "checked-in"
	StatusCheckedOut Status = "checked-out"
)

// Valid reports whether s is one of the known attendance states.
func (s Status) Valid() bool {
	switch s {
	case StatusNotArrived, StatusCheckedIn, StatusCheckedOut:
		return true
	}
	return false
}

// FeeStatus is the payment state of the event fee.
type FeeStatus string

const (
	FeePaid   FeeStatus = "paid"
	FeeUnpaid FeeStatus = "unpaid"
)

func (f FeeStatus) Valid() bool { return f == FeePaid || f == FeeUnpaid }

// PaidBy records which channel took the payment.
type PaidBy string

const (
	PaidBeforeEvent  PaidBy = "before_event"
	PaidAdmin        PaidBy = "admin"
	PaidStaffCheckIn PaidBy = "staff_checkin"
)

// FeeAction labels a fee ledger entry.
type FeeAction string

const (
	ActionMarkedPaid FeeAction = "marked_paid"
	ActionUpdated    FeeAction = "updated"
	ActionCollected  FeeAction = "collected"
)

// Alone is the accompaniedBy sentinel for a student attending without parents.
const Alone = "Không"

// CheckRecord is the evidence attached to a check-in or check-out.
type CheckRecord struct {
	Time         time.Time `json:"time" firestore:"time"`
	PhotoURL     string    `json:"photoUrl" firestore:"photoUrl"`
	FeeCollected *bool     `json:"feeCollected,omitempty" firestore:"feeCollected,omitempty"`
}

// FeeEntry is one line of the append-only fee ledger.
type FeeEntry struct {
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
	ChangedBy string    `json:"changedBy" firestore:"changedBy"`
	Action    FeeAction `json:"action" firestore:"action"`
	OldStatus FeeStatus `json:"oldStatus" firestore:"oldStatus"`
	NewStatus FeeStatus `json:"newStatus" firestore:"newStatus"`
	Amount    int64     `json:"amount" firestore:"amount"`
	Note      string    `json:"note" firestore:"note"`
}

// Student is one registered attendee.
type Student struct {
	ID            string       `json:"id" firestore:"-"`
	Name          string       `json:"name" firestore:"name"`
	Class         string       `json:"class" firestore:"class"`
	AccompaniedBy string       `json:"accompaniedBy" firestore:"accompaniedBy"`
	Coupons       int64        `json:"coupons" firestore:"coupons"`
	QRCode        string       `json:"qrCode" firestore:"qrCode"`
	Status        Status       `json:"status" firestore:"status"`
	CheckIn       *CheckRecord `json:"checkIn" firestore:"checkIn"`
	CheckOut      *CheckRecord `json:"checkOut" firestore:"checkOut"`
	FeeAmount     int64        `json:"feeAmount" firestore:"feeAmount"`
	FeeStatus     FeeStatus    `json:"feeStatus" firestore:"feeStatus"`
	FeePaidAt     *time.Time   `json:"feePaidAt" firestore:"feePaidAt"`
	FeePaidBy     PaidBy       `json:"feePaidBy,omitempty" firestore:"feePaidBy"`
	FeeNote       string       `json:"feeNote" firestore:"feeNote"`
	FeeHistory    []FeeEntry   `json:"feeHistory" firestore:"feeHistory"`
	CreatedAt     time.Time    `json:"createdAt" firestore:"createdAt"`
}

// IsAlone reports whether the student attends without a parent.
func (s Student) IsAlone() bool { return s.AccompaniedBy == Alone }
