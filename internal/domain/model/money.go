package model

import "github.com/shopspring/decimal"

// MoneyScale is the number of fractional digits kept for every amount.
const MoneyScale = 2

// RoundMoney rounds to MoneyScale digits, half away from zero (half-up for non-negative amounts).
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// ParseMoney parses a decimal string and rounds it.
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return RoundMoney(d), nil
}

// OrderTotal computes subtotal - discount + delivery + additional charges.
func OrderTotal(subtotal, discount, delivery, additional decimal.Decimal) decimal.Decimal {
	return RoundMoney(subtotal.Sub(discount).Add(delivery).Add(additional))
}
