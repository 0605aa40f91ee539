package student

import "time"

const noteAdminUpdate = "Admin cập nhật"

// FeeChange is a proposed fee edit.
type FeeChange struct {
	Amount int64
	Status FeeStatus
	Note   string
	Actor  string
	PaidBy PaidBy
	Action FeeAction
	// Reason is the ledger note used when Note is empty.
	Reason string
}

// ChangeFee computes the patch for a fee edit. The amount and note are always
// written; a ledger entry is appended only when the status actually changes.
func ChangeFee(s Student, c FeeChange, now time.Time) (Patch, error) {
	if !c.Status.Valid() {
		return Patch{}, invalid("unknown fee status %q", c.Status)
	}
	if c.Amount < 0 {
		return Patch{}, invalid("fee amount must not be negative")
	}
	if c.Actor == "" {
		return Patch{}, invalid("actor required")
	}
	if c.Action == "" {
		c.Action = ActionUpdated
	}
	if c.PaidBy == "" {
		c.PaidBy = PaidAdmin
	}
	if c.Reason == "" {
		c.Reason = noteAdminUpdate
	}

	fee, entry := changeFee(s, c, now)
	p := Patch{Expect: Expect{FeeStatus: s.FeeStatus}, Fee: &fee}
	if entry != nil {
		p.Append = []FeeEntry{*entry}
	}
	return p, nil
}

func changeFee(s Student, c FeeChange, now time.Time) (FeeFields, *FeeEntry) {
	fee := FeeFields{Amount: c.Amount, Status: c.Status, Note: c.Note}
	if c.Status == s.FeeStatus {
		return fee, nil
	}
	note := c.Note
	if note == "" {
		note = c.Reason
	}
	entry := &FeeEntry{
		Timestamp: now,
		ChangedBy: c.Actor,
		Action:    c.Action,
		OldStatus: s.FeeStatus,
		NewStatus: c.Status,
		Amount:    c.Amount,
		Note:      note,
	}
	if c.Status == FeePaid {
		at := now
		fee.PaidAt = &at
		fee.PaidBy = c.PaidBy
	}
	return fee, entry
}
