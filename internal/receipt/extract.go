package receipt

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/diviso/diviso/pkg/arabic"
)

// Fields are the values pulled out of receipt text. Missing values stay
// empty or invalid.
type Fields struct {
	Merchant string
	Total    decimal.NullDecimal
	VAT      decimal.NullDecimal
	Date     string // YYYY-MM-DD
}

var (
	amountRe   = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+\.\d{1,2}|\d+`)
	percentRe  = regexp.MustCompile(`\d+(?:\.\d+)?\s*%`)
	totalRe    = regexp.MustCompile(`(?i)\btotal\b|\bamount due\b|\bnet amount\b|الإجمالي|الاجمالي|المجموع|المبلغ المستحق`)
	subtotalRe = regexp.MustCompile(`(?i)sub[\s-]?total|before vat|excl|قبل الضريبة`)
	vatRe      = regexp.MustCompile(`(?i)\bvat\b|\btax\b|ضريبة|الضريبة`)
	vatIDRe    = regexp.MustCompile(`(?i)\b(?:no|number|reg|id|#)\b|رقم|التسجيل`)
	ymdRe      = regexp.MustCompile(`\b(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\b`)
	dmyRe      = regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})\b`)
	headerRe   = regexp.MustCompile(`(?i)invoice|receipt|فاتورة|إيصال|ايصال`)
)

// Extract pulls merchant, total, VAT and date out of OCR text. Arabic-Indic
// digits are normalized first.
func Extract(text string) Fields {
	text = arabic.NormalizeDigits(text)
	lines := splitLines(text)

	var f Fields
	f.Merchant = merchant(lines)
	f.Date = date(text)

	for _, line := range lines {
		isVAT := vatRe.MatchString(line)
		switch {
		case isVAT && !totalRe.MatchString(line):
			if vatIDRe.MatchString(line) {
				continue
			}
			if v, ok := lineAmount(line); ok {
				f.VAT = decimal.NewNullDecimal(v)
			}
		case totalRe.MatchString(line) && !subtotalRe.MatchString(line):
			// "Total incl. VAT" is the grand total; later lines win.
			if v, ok := lineAmount(line); ok {
				f.Total = decimal.NewNullDecimal(v)
			}
		}
	}

	if !f.Total.Valid {
		f.Total = largestAmount(lines)
	}
	return f
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// lineAmount returns the last amount on the line, preferring values with a
// decimal part and ignoring percentages.
func lineAmount(line string) (decimal.Decimal, bool) {
	line = percentRe.ReplaceAllString(line, "")
	matches := amountRe.FindAllString(line, -1)
	if len(matches) == 0 {
		return decimal.Decimal{}, false
	}
	pick := matches[len(matches)-1]
	for i := len(matches) - 1; i >= 0; i-- {
		if strings.Contains(matches[i], ".") {
			pick = matches[i]
			break
		}
	}
	v, err := decimal.NewFromString(strings.ReplaceAll(pick, ",", ""))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return v, true
}

// largestAmount is the fallback total: the biggest decimal amount anywhere.
func largestAmount(lines []string) decimal.NullDecimal {
	var best decimal.NullDecimal
	for _, line := range lines {
		if vatIDRe.MatchString(line) {
			continue
		}
		for _, m := range amountRe.FindAllString(line, -1) {
			if !strings.Contains(m, ".") {
				continue
			}
			v, err := decimal.NewFromString(strings.ReplaceAll(m, ",", ""))
			if err != nil {
				continue
			}
			if !best.Valid || v.GreaterThan(best.Decimal) {
				best = decimal.NewNullDecimal(v)
			}
		}
	}
	return best
}

func date(text string) string {
	if m := ymdRe.FindStringSubmatch(text); m != nil {
		if d, ok := validDate(m[1], m[2], m[3]); ok {
			return d
		}
	}
	if m := dmyRe.FindStringSubmatch(text); m != nil {
		if d, ok := validDate(m[3], m[2], m[1]); ok {
			return d
		}
	}
	return ""
}

func validDate(y, m, d string) (string, bool) {
	if len(m) == 1 {
		m = "0" + m
	}
	if len(d) == 1 {
		d = "0" + d
	}
	s := y + "-" + m + "-" + d
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", false
	}
	return s, true
}

// merchant is the first line that reads like a name: it has letters, is not
// a document title, and carries no amount keyword.
func merchant(lines []string) string {
	for _, line := range lines {
		if headerRe.MatchString(line) || totalRe.MatchString(line) || vatRe.MatchString(line) {
			continue
		}
		letters, digits := 0, 0
		for _, r := range line {
			switch {
			case unicode.IsLetter(r):
				letters++
			case unicode.IsDigit(r):
				digits++
			}
		}
		if letters >= 2 && letters > digits {
			return line
		}
	}
	return ""
}
