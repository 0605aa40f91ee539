package student

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// NewStudent is a creation request, from the admin form or an import row.
type NewStudent struct {
	Name          string    `json:"name" validate:"required"`
	Class         string    `json:"class" validate:"required"`
	AccompaniedBy string    `json:"accompaniedBy"`
	Coupons       int64     `json:"coupons" validate:"gte=0"`
	FeeAmount     int64     `json:"feeAmount" validate:"gte=0"`
	FeeStatus     FeeStatus `json:"feeStatus" validate:"omitempty,oneof=paid unpaid"`
	FeeNote       string    `json:"feeNote"`

	// PaidBy and LedgerNote describe the seed ledger entry of a pre-paid
	// student. LedgerNote wins over FeeNote.
	PaidBy     PaidBy `json:"-"`
	LedgerNote string `json:"-"`
}

// Validate checks required identity fields and numeric ranges.
func (n NewStudent) Validate() error {
	n.Name = strings.TrimSpace(n.Name)
	n.Class = strings.TrimSpace(n.Class)
	if err := validate.Struct(n); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" "+fe.Tag())
			}
		} else {
			fields = append(fields, err.Error())
		}
		return invalid("%s", strings.Join(fields, ", "))
	}
	return nil
}

// Build turns a validated request into a fresh not-arrived student. A
// pre-paid student starts with one marked_paid ledger entry.
func Build(n NewStudent, qrCode, actor string, now time.Time) (Student, error) {
	if err := n.Validate(); err != nil {
		return Student{}, err
	}
	if n.FeeStatus == "" {
		n.FeeStatus = FeeUnpaid
	}
	s := Student{
		Name:          strings.TrimSpace(n.Name),
		Class:         strings.TrimSpace(n.Class),
		AccompaniedBy: n.AccompaniedBy,
		Coupons:       n.Coupons,
		QRCode:        qrCode,
		Status:        StatusNotArrived,
		FeeAmount:     n.FeeAmount,
		FeeStatus:     n.FeeStatus,
		FeeNote:       n.FeeNote,
		FeeHistory:    []FeeEntry{},
		CreatedAt:     now,
	}
	if n.FeeStatus != FeePaid {
		return s, nil
	}

	paidBy := n.PaidBy
	if paidBy == "" {
		paidBy = PaidAdmin
	}
	ledgerNote := n.LedgerNote
	if ledgerNote == "" {
		ledgerNote = n.FeeNote
	}
	if ledgerNote == "" {
		ledgerNote = noteAddPrepaid
	}
	if s.FeeNote == "" {
		s.FeeNote = notePrepaid
	}
	paidAt := now
	s.FeePaidAt = &paidAt
	s.FeePaidBy = paidBy
	s.FeeHistory = []FeeEntry{{
		Timestamp: now,
		ChangedBy: actor,
		Action:    ActionMarkedPaid,
		OldStatus: FeeUnpaid,
		NewStatus: FeePaid,
		Amount:    n.FeeAmount,
		Note:      ledgerNote,
	}}
	return s, nil
}
