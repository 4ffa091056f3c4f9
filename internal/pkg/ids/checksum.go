package ids

import "strings"

// ValidOrderNumber reports whether s is an order number with a valid Luhn
// check digit. Mistyped numbers are rejected without a storage lookup.
func ValidOrderNumber(s string) bool {
	digits, ok := strings.CutPrefix(s, OrderNumberPrefix)
	if !ok || len(digits) < 2 {
		return false
	}
	return luhnValid(digits)
}

func luhnValid(number string) bool {
	var sum int
	var alt bool
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')
		if alt {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		alt = !alt
	}
	return sum%10 == 0
}

// checkDigit returns the digit that makes number+digit pass luhnValid.
func checkDigit(number string) byte {
	for d := byte('0'); d <= '9'; d++ {
		if luhnValid(number + string(d)) {
			return d
		}
	}
	return '0'
}
