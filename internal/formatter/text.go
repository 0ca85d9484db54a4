// internal/formatter/text.go
package formatter

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// WordWrap greedily packs space-separated words onto lines of at most
// maxChars runes. A word longer than maxChars is hard-split into chunks.
func WordWrap(text string, maxChars int) []string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return []string{text}
	}

	var lines []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			lines = append(lines, strings.TrimSpace(current.String()))
			current.Reset()
			currentLen = 0
		}
	}

	for _, word := range strings.Split(text, " ") {
		wordLen := utf8.RuneCountInString(word)

		if wordLen > maxChars {
			flush()
			lines = append(lines, chunk(word, maxChars)...)
			continue
		}

		if currentLen == 0 {
			current.WriteString(word)
			currentLen = wordLen
			continue
		}

		if currentLen+1+wordLen <= maxChars {
			current.WriteByte(' ')
			current.WriteString(word)
			currentLen += 1 + wordLen
			continue
		}

		flush()
		current.WriteString(word)
		currentLen = wordLen
	}
	flush()

	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// chunk splits s into pieces of at most size runes
func chunk(s string, size int) []string {
	runes := []rune(s)
	out := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// FormatCurrency renders whole amounts as "$1,000" and anything with a
// fractional part with exactly two decimals, "$1,000.50".
func FormatCurrency(amount decimal.Decimal) string {
	if amount.IsInteger() {
		return "$" + groupThousands(amount.StringFixed(0))
	}
	return "$" + groupThousands(amount.StringFixed(2))
}

// formatCurrencySimple always rounds to whole units, for item columns
func formatCurrencySimple(amount decimal.Decimal) string {
	return "$" + groupThousands(amount.StringFixed(0))
}

func groupThousands(number string) string {
	sign := ""
	if strings.HasPrefix(number, "-") {
		sign, number = "-", number[1:]
	}

	intPart, fracPart := number, ""
	if dot := strings.IndexByte(number, '.'); dot >= 0 {
		intPart, fracPart = number[:dot], number[dot:]
	}

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + b.String() + fracPart
}

// wrapFixed breaks an identifier into fixed-width lines joined by newlines
func wrapFixed(s string, width int) string {
	return strings.Join(chunk(s, width), "\n")
}
