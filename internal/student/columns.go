package student

import (
	"strconv"
	"strings"
	"time"
)

// Row is one spreadsheet line keyed by column header.
type Row map[string]string

// SheetRow is an import row with its 1-based line number in the sheet.
type SheetRow struct {
	Line  int
	Cells Row
}

// Import columns.
const (
	ColName        = "Họ tên"
	ColClass       = "Lớp"
	ColAccompanied = "Đi cùng bố mẹ"
	ColCoupons     = "Số coupon"
	ColFeePaid     = "Đã đóng phí"
	ColFeeAmount   = "Số tiền phí"
)

// Export-only columns.
const (
	ColWith     = "Đi cùng"
	ColFee      = "Phí"
	ColFeeLabel = "Trạng thái phí"
	ColCheckIn  = "Check-in"
	ColCheckOut = "Check-out"
	ColNote     = "Ghi chú"
)

const exportTimeFormat = "02/01/2006 15:04"

// ImportColumns is the header of the import template.
var ImportColumns = []string{ColName, ColClass, ColAccompanied, ColCoupons, ColFeePaid, ColFeeAmount}

// ExportColumns is the header of the roster export. The trailing import
// columns let an exported sheet be imported again unchanged.
var ExportColumns = []string{
	ColName, ColClass, ColWith, ColCoupons, ColFee, ColFeeLabel, ColCheckIn, ColCheckOut, ColNote,
	ColAccompanied, ColFeePaid, ColFeeAmount,
}

const (
	notePrepaid       = "Đã đóng trước sự kiện"
	noteImportPrepaid = "Import từ Excel - Đã đóng trước"
	noteAddPrepaid    = "Thêm mới - Đã đóng trước"
)

// FromRow converts an import row to a creation request.
func FromRow(r Row) NewStudent {
	fee := ParseFeeStatus(r[ColFeePaid])
	in := NewStudent{
		Name:          strings.TrimSpace(r[ColName]),
		Class:         strings.TrimSpace(r[ColClass]),
		AccompaniedBy: ParseAccompanied(r[ColAccompanied]),
		Coupons:       ParseCount(r[ColCoupons]),
		FeeAmount:     ParseCount(r[ColFeeAmount]),
		FeeStatus:     fee,
		PaidBy:        PaidBeforeEvent,
		LedgerNote:    noteImportPrepaid,
	}
	if fee == FeePaid {
		in.FeeNote = notePrepaid
	}
	return in
}

// ExportRow renders a student for the roster export. Timestamps are
// formatted in loc.
func ExportRow(s Student, loc *time.Location) Row {
	if loc == nil {
		loc = time.UTC
	}
	paidText := "Chưa"
	if s.FeeStatus == FeePaid {
		paidText = "Rồi"
	}
	note := s.FeeNote
	if note == "" {
		note = "-"
	}
	amount := strconv.FormatInt(s.FeeAmount, 10)
	return Row{
		ColName:        s.Name,
		ColClass:       s.Class,
		ColWith:        s.AccompaniedBy,
		ColCoupons:     strconv.FormatInt(s.Coupons, 10),
		ColFee:         amount,
		ColFeeLabel:    FeeText(s.FeeStatus),
		ColCheckIn:     formatCheck(s.CheckIn, loc),
		ColCheckOut:    formatCheck(s.CheckOut, loc),
		ColNote:        note,
		ColAccompanied: s.AccompaniedBy,
		ColFeePaid:     paidText,
		ColFeeAmount:   amount,
	}
}

func formatCheck(r *CheckRecord, loc *time.Location) string {
	if r == nil || r.Time.IsZero() {
		return "-"
	}
	return r.Time.In(loc).Format(exportTimeFormat)
}

// TemplateRows are the sample lines shipped in the import template.
func TemplateRows() []Row {
	return []Row{
		{ColName: "Nguyễn Văn A", ColClass: "1A", ColAccompanied: "Có (2 người)", ColCoupons: "3", ColFeePaid: "Rồi", ColFeeAmount: "200000"},
		{ColName: "Trần Thị B", ColClass: "1B", ColAccompanied: "Không", ColCoupons: "2", ColFeePaid: "Chưa", ColFeeAmount: "200000"},
		{ColName: "Lê Văn C", ColClass: "2A", ColAccompanied: "Có (1 người)", ColCoupons: "5", ColFeePaid: "Rồi", ColFeeAmount: "200000"},
	}
}

// TemplateInstructions is the help sheet of the import template.
var TemplateInstructions = []string{
	`Cột "Họ tên": Nhập họ tên đầy đủ của học sinh`,
	`Cột "Lớp": Nhập lớp (VD: 1A, 2B, 3C...)`,
	`Cột "Đi cùng bố mẹ": Nhập "Không" nếu đi một mình, hoặc "Có (2 người)" nếu đi cùng`,
	`Cột "Số coupon": Nhập số lượng coupon (số nguyên)`,
	`Cột "Đã đóng phí": Nhập "Rồi" hoặc "Đã" nếu đã đóng, "Chưa" nếu chưa đóng`,
	`Cột "Số tiền phí": Nhập số tiền (VD: 200000) - không có dấu phẩy`,
}
