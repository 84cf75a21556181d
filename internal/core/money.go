// Package core holds the report domain types and the pure submission logic:
// month normalization, amount parsing and ledger construction.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in integer cents. All arithmetic happens on cents;
// floats only appear at the display boundary.
type Money struct {
	Cents int64
}

// MarshalJSON encodes the amount as a bare cent count.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.Cents, 10)), nil
}

// UnmarshalJSON decodes a bare cent count.
func (m *Money) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return ErrInvalidAmount
	}
	m.Cents = v
	return nil
}

// ParseAmountToCents converts a submitted decimal string to cents with
// half-up rounding on the third decimal place. Both dot and comma decimal
// separators are accepted. An empty string parses as zero, matching how
// the submission form sends unfilled amount inputs. Negative amounts are
// rejected with ErrNegativeAmount.
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeAmount
	}
	if strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// Rupiah returns the whole-rupiah value for display. Reports deal in
// whole rupiah; cents exist only to keep parsing exact.
func (m Money) Rupiah() int64 {
	return m.Cents / 100
}

// FormatRupiah renders the amount with id-ID digit grouping, e.g.
// 150000000 cents -> "Rp 1.500.000".
func (m Money) FormatRupiah() string {
	n := m.Rupiah()
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	b.WriteString("Rp ")
	pre := len(s) % 3
	if pre == 0 {
		pre = 3
	}
	b.WriteString(s[:pre])
	for i := pre; i < len(s); i += 3 {
		b.WriteByte('.')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
