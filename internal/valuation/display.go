package valuation

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the single currency every amount of the dashboard is quoted in.
const Currency = money.INR

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// Display formats amount in Currency, rounded to its minor unit.
func Display(amount float64) string {
	cur := money.GetCurrency(Currency)
	minor := decimal.NewFromFloat(Round(amount)).Shift(int32(cur.Fraction)).Round(0)
	if minor.Abs().GreaterThan(maxMinorUnits) {
		return formatMinor(minor, cur)
	}
	return money.New(minor.IntPart(), Currency).Display()
}

// formatMinor renders minor units that do not fit an int64, using the
// currency's own template and separators.
func formatMinor(minor decimal.Decimal, cur *money.Currency) string {
	digits := minor.Abs().String()
	if len(digits) <= cur.Fraction {
		digits = strings.Repeat("0", cur.Fraction-len(digits)+1) + digits
	}
	if cur.Thousand != "" {
		for i := len(digits) - cur.Fraction - 3; i > 0; i -= 3 {
			digits = digits[:i] + cur.Thousand + digits[i:]
		}
	}
	if cur.Fraction > 0 {
		digits = digits[:len(digits)-cur.Fraction] + cur.Decimal + digits[len(digits)-cur.Fraction:]
	}

	s := strings.Replace(cur.Template, "1", digits, 1)
	s = strings.Replace(s, "$", cur.Grapheme, 1)
	if minor.IsNegative() {
		s = "-" + s
	}
	return s
}
