package i18n

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/goliatone/go-formbind/pkg/forms"
)

// ErrInvalidNumber reports input that is not a number in the requested
// locale.
var ErrInvalidNumber = errors.New("i18n: invalid number")

type symbols struct {
	group   string
	decimal string
}

var latinSymbols = symbols{group: ",", decimal: "."}

// NumberLocalizer parses and formats decimals with the grouping and decimal
// separators of a CLDR locale. Separators are derived once per locale from
// x/text number formatting and cached.
type NumberLocalizer struct {
	mu    sync.RWMutex
	cache map[language.Tag]symbols

	// Fallback is used when a locale is empty or does not parse.
	Fallback language.Tag
}

// NewNumberLocalizer returns a localizer that falls back to English.
func NewNumberLocalizer() *NumberLocalizer {
	return &NumberLocalizer{
		cache:    make(map[language.Tag]symbols),
		Fallback: language.English,
	}
}

var _ forms.NumberLocalizer = (*NumberLocalizer)(nil)

func (l *NumberLocalizer) tag(locale string) language.Tag {
	if tag, err := language.Parse(strings.TrimSpace(locale)); err == nil && locale != "" {
		return tag
	}
	return l.Fallback
}

func (l *NumberLocalizer) symbols(tag language.Tag) symbols {
	l.mu.RLock()
	sym, ok := l.cache[tag]
	l.mu.RUnlock()
	if ok {
		return sym
	}

	sym = deriveSymbols(tag)

	l.mu.Lock()
	if l.cache == nil {
		l.cache = make(map[language.Tag]symbols)
	}
	l.cache[tag] = sym
	l.mu.Unlock()
	return sym
}

// deriveSymbols formats a probe number and reads the separators back out of
// it. Locales with non-Latin digits fall back to Latin separators.
func deriveSymbols(tag language.Tag) symbols {
	probe := message.NewPrinter(tag).Sprint(number.Decimal(12345.6, number.Scale(1)))
	rest, ok := strings.CutPrefix(probe, "12")
	if !ok {
		return latinSymbols
	}
	group, rest, ok := strings.Cut(rest, "345")
	if !ok {
		return latinSymbols
	}
	dec, _, ok := strings.Cut(rest, "6")
	if !ok || dec == "" {
		return latinSymbols
	}
	return symbols{group: group, decimal: dec}
}

// ParseDecimal implements forms.NumberLocalizer. Group separators are only
// accepted in the integer part; a locale whose group separator is a space
// also accepts plain and non-breaking spaces.
func (l *NumberLocalizer) ParseDecimal(value, locale string) (decimal.Decimal, error) {
	sym := l.symbols(l.tag(locale))
	text := strings.TrimSpace(value)
	if text == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty input", ErrInvalidNumber)
	}

	intPart, fracPart, hasFrac := strings.Cut(text, sym.decimal)
	if hasFrac && strings.Contains(fracPart, sym.decimal) {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidNumber, value)
	}
	if sym.group != "" {
		intPart = strings.ReplaceAll(intPart, sym.group, "")
		if isSpaceSeparator(sym.group) {
			intPart = strings.Map(func(r rune) rune {
				if unicode.IsSpace(r) {
					return -1
				}
				return r
			}, intPart)
		}
	}

	normalized := intPart
	if hasFrac {
		normalized += "." + fracPart
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidNumber, value)
	}
	return d, nil
}

// FormatDecimal implements forms.NumberLocalizer. format is a pattern such
// as "#,##0.00": a "," in the integer part enables grouping, zeros after the
// "." are required fraction digits and "#" are optional ones. An empty
// format keeps the value's own scale with grouping.
func (l *NumberLocalizer) FormatDecimal(value decimal.Decimal, format, locale string) string {
	sym := l.symbols(l.tag(locale))

	grouping := true
	text := value.String()
	if format != "" {
		intPattern, fracPattern, _ := strings.Cut(format, ".")
		grouping = strings.Contains(intPattern, ",")
		minFrac := strings.Count(fracPattern, "0")
		maxFrac := minFrac + strings.Count(fracPattern, "#")
		text = trimFraction(value.StringFixedBank(int32(maxFrac)), minFrac)
	}

	negative := strings.HasPrefix(text, "-")
	text = strings.TrimPrefix(text, "-")
	intPart, fracPart, hasFrac := strings.Cut(text, ".")
	if grouping {
		intPart = groupDigits(intPart, sym.group)
	}

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteString(intPart)
	if hasFrac {
		b.WriteString(sym.decimal)
		b.WriteString(fracPart)
	}
	return b.String()
}

func trimFraction(text string, minFrac int) string {
	intPart, fracPart, ok := strings.Cut(text, ".")
	if !ok {
		return text
	}
	for len(fracPart) > minFrac && strings.HasSuffix(fracPart, "0") {
		fracPart = fracPart[:len(fracPart)-1]
	}
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}

func groupDigits(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
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

func isSpaceSeparator(sep string) bool {
	for _, r := range sep {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
