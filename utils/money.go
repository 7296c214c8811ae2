package utils

import (
	"fmt"
	"strings"
)

// All monetary values move through the system as int64 paise. The helpers
// below are the only place rounding happens.

// RoundDownToRupee floors a paise amount to the nearest whole rupee.
// Always favours the customer.
func RoundDownToRupee(paise int64) int64 {
	return paise - paise%100
}

// RoundToNearestRupee rounds a paise amount half-up to the nearest rupee.
func RoundToNearestRupee(paise int64) int64 {
	return (paise + 50) / 100 * 100
}

// RoundingAdjustment is the signed correction applied to reach the rounded
// amount: rounded - original.
func RoundingAdjustment(original, rounded int64) int64 {
	return rounded - original
}

// GSTAmount computes the tax on a paise subtotal. The rate is expressed in
// basis points (18% = 1800) so the computation stays integral; the result is
// floored.
func GSTAmount(subtotal int64, rateBasisPoints int64) int64 {
	return subtotal * rateBasisPoints / 10000
}

// SplitGST splits a tax amount into its CGST and SGST halves for display.
// The first half is floored and the second takes the remainder, so the two
// always sum to the input exactly.
func SplitGST(gst int64) (cgst, sgst int64) {
	cgst = gst / 2
	sgst = gst - cgst
	return cgst, sgst
}

// FormatRupees renders a paise amount with Indian digit grouping,
// e.g. 12345678 -> "Rs 1,23,456.78".
func FormatRupees(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	rupees := paise / 100
	fraction := paise % 100

	digits := fmt.Sprintf("%d", rupees)
	var groups []string
	// Last group of three, then groups of two.
	if len(digits) > 3 {
		groups = append(groups, digits[len(digits)-3:])
		digits = digits[:len(digits)-3]
		for len(digits) > 2 {
			groups = append([]string{digits[len(digits)-2:]}, groups...)
			digits = digits[:len(digits)-2]
		}
		groups = append([]string{digits}, groups...)
	} else {
		groups = []string{digits}
	}

	return fmt.Sprintf("%sRs %s.%02d", sign, strings.Join(groups, ","), fraction)
}
