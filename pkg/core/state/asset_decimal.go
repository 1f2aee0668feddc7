package state

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FromString converts the decimal representation of some amount of this asset
// into the number of shares. Extra fractional digits beyond the precision are
// truncated, so "100.500019" is 10050001 for the precision of 100000.
//
// Parsing is lenient: integer and fractional parts are read up to the first
// non-digit character and anything unparseable counts as zero. No errors are
// ever returned.
func (a *Asset) FromString(amount string) Amount {
	var res = Amount{AssetID: a.ID}

	intPart, fracPart, hasFraction := strings.Cut(amount, ".")
	res.Amount = atoll(intPart) * a.Precision
	if !hasFraction || a.Precision < 1 {
		return res
	}

	fraction := atoll(fracPart)
	if len(fracPart) == 0 || fraction <= 0 {
		return res
	}
	for fraction < a.Precision && fraction <= math.MaxInt64/10 {
		fraction *= 10
	}
	for fraction >= a.Precision {
		fraction /= 10
	}
	// Leading zeroes are lost by atoll, restore the scale.
	for i := 0; i < len(fracPart) && fracPart[i] == '0'; i++ {
		fraction /= 10
	}

	if res.Amount >= 0 {
		res.Amount += fraction
	} else {
		res.Amount -= fraction
	}
	return res
}

// AmountToString returns the decimal representation of the given number of
// shares with all Precision digits kept after the point, optionally followed
// by a space and the asset symbol.
func (a *Asset) AmountToString(amount int64, appendSymbol bool) string {
	integral, fractional := a.splitAmount(amount)
	return a.decorate(strconv.FormatUint(integral, 10)+fractional, amount < 0, appendSymbol)
}

// AmountToPrettyString is similar to AmountToString, but the integral part is
// grouped by thousands. It's meant for humans and can't be parsed back with
// FromString.
func (a *Asset) AmountToPrettyString(amount int64, appendSymbol bool) string {
	integral, fractional := a.splitAmount(amount)
	p := message.NewPrinter(language.English)
	return a.decorate(p.Sprintf("%d", integral)+fractional, amount < 0, appendSymbol)
}

// splitAmount returns the integral part of the absolute amount value and the
// fractional part with the leading point.
func (a *Asset) splitAmount(amount int64) (uint64, string) {
	var (
		shares = uint64(amount)
		prec   = uint64(1)
	)
	if amount < 0 {
		shares = -shares
	}
	if a.Precision > 1 {
		prec = uint64(a.Precision)
	}
	// Leading 1 keeps fractional zeroes, it's replaced by the point.
	decimal := []byte(strconv.FormatUint(prec+shares%prec, 10))
	decimal[0] = '.'
	return shares / prec, string(decimal)
}

func (a *Asset) decorate(s string, negative bool, appendSymbol bool) string {
	if appendSymbol {
		s += " " + a.Symbol
	}
	if negative {
		return "-" + s
	}
	return s
}

// atoll parses the leading decimal integer of s the way C atoll does: leading
// whitespace and a single sign are accepted, parsing stops at the first
// non-digit and the result saturates on overflow.
func atoll(s string) int64 {
	var i int
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	var neg bool
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	var (
		acc   uint64
		limit uint64 = math.MaxInt64
	)
	if neg {
		limit++
	}
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		d := uint64(s[i] - '0')
		if acc > (limit-d)/10 {
			acc = limit
			break
		}
		acc = acc*10 + d
	}
	if neg {
		return -int64(acc)
	}
	return int64(acc)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
