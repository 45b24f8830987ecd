// Package chain holds the chain-agnostic helpers scout's contract and
// discovery code share: decimal amounts, retries and rate limits.
package chain

import (
	"math/big"
	"strings"

	scouterr "github.com/talentscout/scout/pkg/errors"
)

// WeiDecimals is the number of decimals of a native 18-decimal currency.
const WeiDecimals = 18

// ParseAmount parses a non-negative decimal string into base units.
// "1.5" with 18 decimals is 1500000000000000000. Digits beyond the
// precision are truncated.
func ParseAmount(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" || strings.HasPrefix(amount, "-") || strings.HasPrefix(amount, "+") {
		return nil, invalidAmount(amount)
	}

	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" && frac == "" {
		return nil, invalidAmount(amount)
	}
	if whole == "" {
		whole = "0"
	}
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return nil, invalidAmount(amount)
	}

	if len(frac) > decimals {
		frac = frac[:decimals]
	}
	frac += strings.Repeat("0", decimals-len(frac))

	value, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, invalidAmount(amount)
	}
	return value, nil
}

// ParseEther parses a decimal amount of an 18-decimal currency.
func ParseEther(amount string) (*big.Int, error) {
	return ParseAmount(amount, WeiDecimals)
}

// FormatAmount renders base units as a decimal string without trailing
// zeros. 1500000000000000000 with 18 decimals is "1.5"; whole values keep
// one decimal place ("2.0").
func FormatAmount(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if amount.Sign() < 0 {
		return "-" + FormatAmount(new(big.Int).Abs(amount), decimals)
	}
	if decimals == 0 {
		return amount.String()
	}

	digits := amount.String()
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}

	point := len(digits) - decimals
	frac := strings.TrimRight(digits[point:], "0")
	if frac == "" {
		frac = "0"
	}
	return digits[:point] + "." + frac
}

// FormatEther renders wei as a decimal amount.
func FormatEther(wei *big.Int) string {
	return FormatAmount(wei, WeiDecimals)
}

func digitsOnly(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func invalidAmount(amount string) error {
	return scouterr.WithDetails(scouterr.ErrInvalidAmount, map[string]string{"amount": amount})
}
