package student

import (
	"fmt"
	"time"
)

// Stats is the dashboard summary of a roster.
type Stats struct {
	Total      int   `json:"total"`
	NotArrived int   `json:"notArrived"`
	CheckedIn  int   `json:"checkedIn"`
	CheckedOut int   `json:"checkedOut"`
	FeePaid    int   `json:"feePaid"`
	FeeUnpaid  int   `json:"feeUnpaid"`
	TotalMoney int64 `json:"totalMoney"`
}

// Summarize counts students by status and fee status and sums the fees
// actually paid.
func Summarize(students []Student) Stats {
	st := Stats{Total: len(students)}
	for _, s := range students {
		switch s.Status {
		case StatusNotArrived:
			st.NotArrived++
		case StatusCheckedIn:
			st.CheckedIn++
		case StatusCheckedOut:
			st.CheckedOut++
		}
		switch s.FeeStatus {
		case FeePaid:
			st.FeePaid++
			st.TotalMoney += s.FeeAmount
		case FeeUnpaid:
			st.FeeUnpaid++
		}
	}
	return st
}

// Badge is a labelled status chip for the kiosk UI.
type Badge struct {
	Label string `json:"label"`
	Tone  string `json:"tone"`
}

var statusBadges = map[Status]Badge{
	StatusNotArrived: {Label: "Chưa đến", Tone: "gray"},
	StatusCheckedIn:  {Label: "Đã check-in", Tone: "blue"},
	StatusCheckedOut: {Label: "Đã check-out", Tone: "green"},
}

// StatusBadge returns the badge for an attendance status.
func StatusBadge(s Status) Badge { return statusBadges[s] }

// FeeBadge returns the badge for a fee status.
func FeeBadge(f FeeStatus) Badge {
	if f == FeePaid {
		return Badge{Label: "Đã đóng phí", Tone: "success"}
	}
	return Badge{Label: "Chưa đóng phí", Tone: "warning"}
}

// FeeText is the short fee label used in exports.
func FeeText(f FeeStatus) string {
	if f == FeePaid {
		return "Đã đóng"
	}
	return "Chưa đóng"
}

// Card is the list projection of a student.
type Card struct {
	Student
	StatusBadge Badge  `json:"statusBadge"`
	FeeBadge    Badge  `json:"feeBadge"`
	Action      string `json:"action"`
	Elapsed     string `json:"elapsed,omitempty"`
}

// Project builds the card for s as seen at now.
func Project(s Student, now time.Time) Card {
	c := Card{
		Student:     s,
		StatusBadge: StatusBadge(s.Status),
		FeeBadge:    FeeBadge(s.FeeStatus),
		Action:      NextAction(s),
	}
	if s.Status == StatusCheckedIn && s.CheckIn != nil {
		c.Elapsed = Elapsed(s.CheckIn.Time, now)
	}
	return c
}

// Elapsed formats the time since a check-in as "H giờ M phút".
func Elapsed(since, now time.Time) string {
	d := now.Sub(since)
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%d giờ %d phút", hours, minutes)
}
