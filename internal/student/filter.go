package student

import (
	"fmt"
	"strings"
)

// Predicate selects students.
type Predicate func(Student) bool

// All combines predicates with AND semantics; no predicates match everything.
func All(ps ...Predicate) Predicate {
	return func(s Student) bool {
		for _, p := range ps {
			if !p(s) {
				return false
			}
		}
		return true
	}
}

// NameContains matches a case-insensitive substring of the name.
func NameContains(q string) Predicate {
	q = fold(strings.TrimSpace(q))
	return func(s Student) bool { return strings.Contains(fold(s.Name), q) }
}

func HasStatus(st Status) Predicate {
	return func(s Student) bool { return s.Status == st }
}

func HasFeeStatus(f FeeStatus) Predicate {
	return func(s Student) bool { return s.FeeStatus == f }
}

// AttendsAlone matches students whose accompaniment equals alone.
func AttendsAlone(alone bool) Predicate {
	return func(s Student) bool { return s.IsAlone() == alone }
}

// Accompaniment values for Filter.
const (
	AccompaniedAny     = ""
	AccompaniedAlone   = "alone"
	AccompaniedParents = "with-parents"
)

// Filter is the search state of a roster view. Zero fields are inactive.
type Filter struct {
	Query       string    `form:"q" json:"q"`
	Status      Status    `form:"status" json:"status"`
	FeeStatus   FeeStatus `form:"fee" json:"fee"`
	Accompanied string    `form:"accompanied" json:"accompanied"`
}

// Predicate returns the AND of all active filter fields.
func (f Filter) Predicate() Predicate {
	var ps []Predicate
	if strings.TrimSpace(f.Query) != "" {
		ps = append(ps, NameContains(f.Query))
	}
	if f.Status != "" {
		ps = append(ps, HasStatus(f.Status))
	}
	if f.FeeStatus != "" {
		ps = append(ps, HasFeeStatus(f.FeeStatus))
	}
	switch f.Accompanied {
	case AccompaniedAlone:
		ps = append(ps, AttendsAlone(true))
	case AccompaniedParents:
		ps = append(ps, AttendsAlone(false))
	}
	return All(ps...)
}

// Validate rejects unknown enum values.
func (f Filter) Validate() error {
	if f.Status != "" && !f.Status.Valid() {
		return invalid("unknown status %q", f.Status)
	}
	if f.FeeStatus != "" && !f.FeeStatus.Valid() {
		return invalid("unknown fee status %q", f.FeeStatus)
	}
	switch f.Accompanied {
	case AccompaniedAny, AccompaniedAlone, AccompaniedParents:
	default:
		return invalid("unknown accompaniment %q", f.Accompanied)
	}
	return nil
}

// WithPreset overlays one of the admin filter buttons onto f.
func (f Filter) WithPreset(name string) (Filter, error) {
	switch name {
	case "", "all":
	case string(StatusNotArrived), string(StatusCheckedIn), string(StatusCheckedOut):
		f.Status = Status(name)
	case "fee-paid":
		f.FeeStatus = FeePaid
	case "fee-unpaid":
		f.FeeStatus = FeeUnpaid
	case AccompaniedParents, AccompaniedAlone:
		f.Accompanied = name
	default:
		return f, fmt.Errorf("%w: unknown filter %q", ErrValidation, name)
	}
	return f, nil
}

// Select returns the students matching p, preserving order.
func Select(students []Student, p Predicate) []Student {
	out := make([]Student, 0, len(students))
	for _, s := range students {
		if p(s) {
			out = append(out, s)
		}
	}
	return out
}
