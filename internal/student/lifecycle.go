package student

import "time"

const noteCollectedAtCheckIn = "Thu phí tại check-in"

// CheckInInput carries what the scan station supplies at check-in.
type CheckInInput struct {
	At           time.Time
	PhotoURL     string
	FeeCollected bool
	Actor        string
}

// CheckIn validates the not-arrived → checked-in transition and computes the
// patch. An unpaid student can only be checked in once staff confirm the fee
// was collected; the fee then flips to paid with a "collected" ledger entry.
func CheckIn(s Student, in CheckInInput) (Patch, error) {
	if s.Status != StatusNotArrived {
		return Patch{}, invalidTransition("check-in from %s", s.Status)
	}
	if s.FeeStatus == FeeUnpaid && !in.FeeCollected {
		return Patch{}, invalid("fee collection must be confirmed for unpaid student")
	}
	if in.Actor == "" {
		return Patch{}, invalid("actor required")
	}

	collected := s.FeeStatus == FeeUnpaid
	p := Patch{
		Expect:     Expect{Status: StatusNotArrived, FeeStatus: s.FeeStatus},
		Status:     statusPtr(StatusCheckedIn),
		SetCheckIn: true,
		CheckIn: &CheckRecord{
			Time:         in.At,
			PhotoURL:     in.PhotoURL,
			FeeCollected: &collected,
		},
	}
	if collected {
		fee, entry := changeFee(s, FeeChange{
			Amount: s.FeeAmount,
			Status: FeePaid,
			Actor:  in.Actor,
			PaidBy: PaidStaffCheckIn,
			Action: ActionCollected,
			Reason: noteCollectedAtCheckIn,
		}, in.At)
		fee.Note = s.FeeNote
		p.Fee = &fee
		p.Append = []FeeEntry{*entry}
	}
	return p, nil
}

// CheckOut validates the checked-in → checked-out transition.
func CheckOut(s Student, at time.Time, photoURL string) (Patch, error) {
	if s.Status != StatusCheckedIn {
		return Patch{}, invalidTransition("check-out from %s", s.Status)
	}
	return Patch{
		Expect:      Expect{Status: StatusCheckedIn},
		Status:      statusPtr(StatusCheckedOut),
		SetCheckOut: true,
		CheckOut:    &CheckRecord{Time: at, PhotoURL: photoURL},
	}, nil
}

// DeleteCheckIn reverts checked-in → not-arrived, discarding the check-in
// record. A checked-out student must have the check-out removed first.
func DeleteCheckIn(s Student) (Patch, error) {
	if s.CheckIn == nil {
		return Patch{}, notFound("student %s has no check-in", s.ID)
	}
	if s.Status != StatusCheckedIn {
		return Patch{}, invalidTransition("delete check-in from %s", s.Status)
	}
	return Patch{
		Expect:     Expect{Status: StatusCheckedIn},
		Status:     statusPtr(StatusNotArrived),
		SetCheckIn: true,
	}, nil
}

// DeleteCheckOut reverts checked-out → checked-in.
func DeleteCheckOut(s Student) (Patch, error) {
	if s.CheckOut == nil {
		return Patch{}, notFound("student %s has no check-out", s.ID)
	}
	if s.Status != StatusCheckedOut {
		return Patch{}, invalidTransition("delete check-out from %s", s.Status)
	}
	return Patch{
		Expect:      Expect{Status: StatusCheckedOut},
		Status:      statusPtr(StatusCheckedIn),
		SetCheckOut: true,
	}, nil
}

// NextAction is the scan action available for the student's current status.
func NextAction(s Student) string {
	switch s.Status {
	case StatusNotArrived:
		return "check-in"
	case StatusCheckedIn:
		return "check-out"
	}
	return "none"
}
