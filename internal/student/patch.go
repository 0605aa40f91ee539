package student

import "time"

// Expect is the precondition a store checks before applying a Patch.
// Zero fields are not checked.
type Expect struct {
	Status    Status
	FeeStatus FeeStatus
}

// FeeFields replaces the fee columns of a student.
type FeeFields struct {
	Amount int64
	Status FeeStatus
	Note   string
	// PaidAt and PaidBy are written only when set; a regression to unpaid
	// keeps the last payment stamp.
	PaidAt *time.Time
	PaidBy PaidBy
}

// Patch is a partial update computed by a lifecycle operation. Stores apply
// it in a single write.
type Patch struct {
	Expect Expect

	Status *Status

	SetCheckIn bool
	CheckIn    *CheckRecord

	SetCheckOut bool
	CheckOut    *CheckRecord

	Fee    *FeeFields
	Append []FeeEntry
}

// Empty reports whether the patch writes nothing.
func (p Patch) Empty() bool {
	return p.Status == nil && !p.SetCheckIn && !p.SetCheckOut && p.Fee == nil && len(p.Append) == 0
}

// Satisfied reports whether s meets the patch precondition.
func (p Patch) Satisfied(s Student) bool {
	if p.Expect.Status != "" && s.Status != p.Expect.Status {
		return false
	}
	if p.Expect.FeeStatus != "" && s.FeeStatus != p.Expect.FeeStatus {
		return false
	}
	return true
}

// ApplyTo returns s with the patch applied. The history slice is copied so
// the caller's record is never mutated.
func (p Patch) ApplyTo(s Student) Student {
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.SetCheckIn {
		s.CheckIn = p.CheckIn
	}
	if p.SetCheckOut {
		s.CheckOut = p.CheckOut
	}
	if p.Fee != nil {
		s.FeeAmount = p.Fee.Amount
		s.FeeStatus = p.Fee.Status
		s.FeeNote = p.Fee.Note
		if p.Fee.PaidAt != nil {
			at := *p.Fee.PaidAt
			s.FeePaidAt = &at
		}
		if p.Fee.PaidBy != "" {
			s.FeePaidBy = p.Fee.PaidBy
		}
	}
	if len(p.Append) > 0 {
		history := make([]FeeEntry, 0, len(s.FeeHistory)+len(p.Append))
		history = append(history, s.FeeHistory...)
		s.FeeHistory = append(history, p.Append...)
	}
	return s
}

func statusPtr(s Status) *Status { return &s }
