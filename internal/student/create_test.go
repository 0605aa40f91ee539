package student

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUnpaid(t *testing.T) {
	s, err := Build(NewStudent{Name: "  Trần Thị B ", Class: "1B", Coupons: 2, FeeAmount: 200000}, "QR_000000001", "admin@x", t0)
	require.NoError(t, err)
	assert.Equal(t, "Trần Thị B", s.Name)
	assert.Equal(t, StatusNotArrived, s.Status)
	assert.Equal(t, FeeUnpaid, s.FeeStatus)
	assert.Nil(t, s.FeePaidAt)
	assert.NotNil(t, s.FeeHistory)
	assert.Empty(t, s.FeeHistory)
	assert.Equal(t, "QR_000000001", s.QRCode)
	assert.Equal(t, t0, s.CreatedAt)
}

func TestBuildPrepaidSeedsLedger(t *testing.T) {
	s, err := Build(NewStudent{Name: "A", Class: "1A", FeeAmount: 200000, FeeStatus: FeePaid}, "QR_1", "admin@x", t0)
	require.NoError(t, err)
	assert.Equal(t, PaidAdmin, s.FeePaidBy)
	assert.Equal(t, "Đã đóng trước sự kiện", s.FeeNote)
	require.Len(t, s.FeeHistory, 1)
	assert.Equal(t, ActionMarkedPaid, s.FeeHistory[0].Action)
	assert.Equal(t, "Thêm mới - Đã đóng trước", s.FeeHistory[0].Note)
	assert.Equal(t, "admin@x", s.FeeHistory[0].ChangedBy)
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name string
		in   NewStudent
	}{
		{"missing name", NewStudent{Class: "1A"}},
		{"blank name", NewStudent{Name: "   ", Class: "1A"}},
		{"missing class", NewStudent{Name: "A"}},
		{"negative coupons", NewStudent{Name: "A", Class: "1A", Coupons: -1}},
		{"negative fee", NewStudent{Name: "A", Class: "1A", FeeAmount: -5}},
		{"bad fee status", NewStudent{Name: "A", Class: "1A", FeeStatus: "later"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.in, "QR_1", "a", t0)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestFromRow(t *testing.T) {
	in := FromRow(Row{
		ColName:        " Nguyễn Văn A ",
		ColClass:       "1A",
		ColAccompanied: "Không",
		ColCoupons:     "3",
		ColFeePaid:     "Rồi",
		ColFeeAmount:   "200000",
	})
	assert.Equal(t, "Nguyễn Văn A", in.Name)
	assert.Equal(t, Alone, in.AccompaniedBy)
	assert.Equal(t, int64(3), in.Coupons)
	assert.Equal(t, FeePaid, in.FeeStatus)

	s, err := Build(in, "QR_1", "admin@x", t0)
	require.NoError(t, err)
	assert.Equal(t, PaidBeforeEvent, s.FeePaidBy)
	assert.Equal(t, "Đã đóng trước sự kiện", s.FeeNote)
	require.Len(t, s.FeeHistory, 1)
	assert.Equal(t, "Import từ Excel - Đã đóng trước", s.FeeHistory[0].Note)

	unpaid := FromRow(Row{ColName: "B", ColClass: "1B", ColFeePaid: "Chưa", ColCoupons: "abc"})
	assert.Equal(t, FeeUnpaid, unpaid.FeeStatus)
	assert.Zero(t, unpaid.Coupons)
	assert.Empty(t, unpaid.FeeNote)
}

func TestExportRow(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	s := fixture(StatusCheckedIn, FeePaid)
	s.AccompaniedBy = "Có (2 người)"
	row := ExportRow(s, loc)
	assert.Equal(t, "18/05/2024 15:00", row[ColCheckIn])
	assert.Equal(t, "-", row[ColCheckOut])
	assert.Equal(t, "-", row[ColNote])
	assert.Equal(t, "Đã đóng", row[ColFeeLabel])
	assert.Equal(t, "Rồi", row[ColFeePaid])

	back := FromRow(row)
	assert.Equal(t, s.Name, back.Name)
	assert.Equal(t, s.Class, back.Class)
	assert.Equal(t, s.AccompaniedBy, back.AccompaniedBy)
	assert.Equal(t, s.FeeAmount, back.FeeAmount)
	assert.Equal(t, s.FeeStatus, back.FeeStatus)
}

func TestTemplateRowsImport(t *testing.T) {
	for i, row := range TemplateRows() {
		_, err := Build(FromRow(row), "QR_1", "a", t0)
		assert.NoError(t, err, "template row %d", i)
		for col := range row {
			assert.Contains(t, ImportColumns, col)
		}
	}
	assert.True(t, strings.Contains(TemplateInstructions[0], ColName))
}

func TestNewQRCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := NewQRCode()
		require.NoError(t, err)
		require.Len(t, code, 12)
		assert.True(t, strings.HasPrefix(code, "QR_"))
		for _, r := range code[3:] {
			assert.Contains(t, qrAlphabet, string(r))
		}
		assert.False(t, seen[code], "duplicate %s", code)
		seen[code] = true
	}
}
