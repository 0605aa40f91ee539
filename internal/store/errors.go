package store

import (
	"fmt"

	"checkin/internal/student"
)

// staleRecord explains which precondition of p the current record fails.
func staleRecord(current student.Student, p student.Patch) error {
	if p.Expect.Status != "" && current.Status != p.Expect.Status {
		return fmt.Errorf("%w: status is %s, expected %s", student.ErrInvalidTransition, current.Status, p.Expect.Status)
	}
	return fmt.Errorf("%w: fee status is %s, expected %s", student.ErrInvalidTransition, current.FeeStatus, p.Expect.FeeStatus)
}
