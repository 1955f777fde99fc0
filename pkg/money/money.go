// Package money renders decimal amounts for display using a fixed
// locale/currency pair.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

type Formatter struct {
	symbol  string
	group   string
	decimal string
}

func NewFormatter(locale string, code string) (Formatter, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return Formatter{}, fmt.Errorf("money: invalid locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return Formatter{}, fmt.Errorf("money: invalid currency %q: %w", code, err)
	}
	p := message.NewPrinter(tag)
	f := Formatter{symbol: strings.TrimSpace(p.Sprint(currency.Symbol(unit)))}
	f.group, f.decimal = separators(p.Sprint(number.Decimal(1234.5, number.Scale(2))))
	return f, nil
}

// MustFormatter panics on an invalid locale or currency code.
func MustFormatter(locale string, code string) Formatter {
	f, err := NewFormatter(locale, code)
	if err != nil {
		panic(err)
	}
	return f
}

// IsZero reports whether f was never built by NewFormatter.
func (f Formatter) IsZero() bool { return f.symbol == "" }

// Format always renders two decimal places, rounding half away from zero.
// Digits come from the decimal itself, so there is no range limit.
func (f Formatter) Format(amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	sign := ""
	if rest, neg := strings.CutPrefix(s, "-"); neg {
		sign, s = "-", rest
	}
	whole, frac, _ := strings.Cut(s, ".")
	return f.symbol + " " + sign + groupDigits(whole, f.group) + f.decimal + frac
}

func groupDigits(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// separators reads the group and decimal marks off a rendering of 1234.50.
// Unexpected shapes fall back to "," and ".".
func separators(sample string) (group, dec string) {
	var digits, marks []string
	var cur strings.Builder
	inDigits := false
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		if inDigits {
			digits = append(digits, cur.String())
		} else {
			marks = append(marks, cur.String())
		}
		cur.Reset()
	}
	for _, r := range strings.TrimSpace(sample) {
		isDigit := r >= '0' && r <= '9'
		if isDigit != inDigits {
			flush()
			inDigits = isDigit
		}
		cur.WriteRune(r)
	}
	flush()

	switch {
	case len(digits) == 3 && len(marks) == 2 && digits[0] == "1" && digits[1] == "234" && digits[2] == "50":
		return marks[0], marks[1]
	case len(digits) == 2 && len(marks) == 1 && digits[0] == "1234" && digits[1] == "50":
		return "", marks[0]
	}
	return ",", "."
}
