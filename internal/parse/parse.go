// Package parse provides pure text-to-value parsers for guided-entry input:
// monetary amounts, calendar dates, clock times, hashtag extraction, and the
// quick-entry shorthands. Parsers signal failure with a models.ValidationError.
package parse

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oybekjon/hisobot/internal/models"
)

// DateLayout is the canonical stored form of all dates.
const DateLayout = "2006-01-02"

var amountKeep = regexp.MustCompile(`[^\d.,-]`)

// Amount parses free text into a decimal amount. It is locale tolerant:
// currency symbols and letters are stripped, both "." and "," are accepted
// as the decimal separator, and embedded thousands separators are removed.
func Amount(text string) (decimal.Decimal, error) {
	cleaned := amountKeep.ReplaceAllString(text, "")
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, models.Validationf("not a number: %q", strings.TrimSpace(text))
	}

	cleaned = normalizeSeparators(cleaned)

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, models.Validationf("not a number: %q", strings.TrimSpace(text))
	}
	return amount, nil
}

// PositiveAmount parses an amount and rejects zero or negative values.
func PositiveAmount(text string) (decimal.Decimal, error) {
	amount, err := Amount(text)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, models.Validationf("amount must be greater than zero")
	}
	return amount, nil
}

// normalizeSeparators reduces mixed "."/"," usage to a single dot decimal
// point. When both appear, the last separator is the decimal point and the
// rest are thousands separators. A single separator kind occurring more than
// once is a thousands separator.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		decimalAt := lastDot
		if lastComma > lastDot {
			decimalAt = lastComma
		}
		var b strings.Builder
		for i := 0; i < len(s); i++ {
			switch s[i] {
			case '.', ',':
				if i == decimalAt {
					b.WriteByte('.')
				}
			default:
				b.WriteByte(s[i])
			}
		}
		return b.String()
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.ReplaceAll(s, ",", ".")
	case lastDot >= 0 && strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// dateLayouts are tried in order, mirroring the accepted input formats:
// ISO, D.M.Y, D/M/Y, D-M-Y, Y/M/D.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
}

// relaxedLayouts are a best-effort fallback for natural-ish date text.
var relaxedLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2 2006",
}

// Date parses date text against the explicit format list, then the relaxed
// fallbacks, and returns the date normalized to YYYY-MM-DD.
func Date(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", models.Validationf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(DateLayout), nil
		}
	}
	for _, layout := range relaxedLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(DateLayout), nil
		}
	}
	return "", models.Validationf("invalid date format, use YYYY-MM-DD or DD.MM.YYYY")
}

// DueShorthand resolves the relative due-date codes offered on the debt
// keyboard. It returns the resolved date (empty for "none") and whether the
// code was recognized.
func DueShorthand(code string, now time.Time) (string, bool) {
	switch code {
	case "1w":
		return now.AddDate(0, 0, 7).Format(DateLayout), true
	case "2w":
		return now.AddDate(0, 0, 14).Format(DateLayout), true
	case "1m":
		return now.AddDate(0, 1, 0).Format(DateLayout), true
	case "3m":
		return now.AddDate(0, 3, 0).Format(DateLayout), true
	case "none":
		return "", true
	}
	return "", false
}

var clockPattern = regexp.MustCompile(`^(\d{1,2}):?(\d{2})?$`)

// ClockTime parses "9", "9:30", "0930" style input into "HH:MM".
func ClockTime(text string) (string, error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", models.Validationf("invalid time, use HH:MM")
	}
	hour := m[1]
	minute := m[2]
	if minute == "" {
		minute = "00"
	}
	if len(hour) == 1 {
		hour = "0" + hour
	}
	if hour > "23" || minute > "59" {
		return "", models.Validationf("invalid time, use HH:MM")
	}
	return hour + ":" + minute, nil
}

var tagPattern = regexp.MustCompile(`#(\w+)`)

// TitleTags extracts "#word" tokens from a title into a tag list and returns
// the title with the tokens stripped.
func TitleTags(text string) (title string, tags []string) {
	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		tags = append(tags, m[1])
	}
	title = tagPattern.ReplaceAllString(text, "")
	title = strings.Join(strings.Fields(title), " ")
	return title, tags
}
