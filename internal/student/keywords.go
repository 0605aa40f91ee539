package student

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Import keyword table. Roster sheets are filled in by hand, so the fee and
// accompaniment columns are free text. Matching is a case-insensitive
// substring test on the NFC form of the cell.
//
//	column          keyword   result
//	Đã đóng phí     "rồi"     paid
//	Đã đóng phí     "đã"      paid
//	Đã đóng phí     other     unpaid
//	Đi cùng bố mẹ   "không"   Alone sentinel
//	Đi cùng bố mẹ   other     raw text
var (
	paidKeywords = []string{"rồi", "đã"}
	aloneKeyword = "không"
)

func fold(s string) string {
	return norm.NFC.String(strings.ToLower(norm.NFC.String(s)))
}

// ParseFeeStatus derives a fee status from a free-text cell.
func ParseFeeStatus(text string) FeeStatus {
	folded := fold(text)
	for _, kw := range paidKeywords {
		if strings.Contains(folded, kw) {
			return FeePaid
		}
	}
	return FeeUnpaid
}

// ParseAccompanied normalises the accompaniment cell; any negation collapses
// to the Alone sentinel, everything else passes through untouched.
func ParseAccompanied(text string) string {
	if strings.Contains(fold(text), aloneKeyword) {
		return Alone
	}
	return text
}

// ParseCount reads the leading integer of a cell, like a spreadsheet user
// would expect: "200000", " 3 ", "2 người" all parse; anything without a
// leading number, and negative values, yield 0.
func ParseCount(text string) int64 {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "+") {
		text = text[1:]
	}
	var n int64
	digits := 0
	for _, r := range text {
		if r < '0' || r > '9' {
			break
		}
		d := int64(r - '0')
		if n > (1<<62)/10 {
			return 0
		}
		n = n*10 + d
		digits++
	}
	if digits == 0 {
		return 0
	}
	return n
}
