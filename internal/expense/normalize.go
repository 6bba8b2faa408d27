package expense

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultProvider is used when the model could not read a merchant name.
const DefaultProvider = "Ticket"

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	nonAmountChars = regexp.MustCompile(`[^0-9.\-]`)
)

// dateLayouts are tried in order for dates the model did not return in ISO
// form. Receipts in the wild mix all of these.
var dateLayouts = []string{
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"02/01/2006",
	time.RFC3339,
}

// NormalizeAmount converts a model-reported amount into a usable float.
// Currency glyphs and whitespace are stripped, a decimal comma becomes a
// decimal point, and anything unparsable collapses to 0. The sign is
// preserved; callers that consider negative amounts invalid must clamp.
// Never fails.
func NormalizeAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.Join(strings.Fields(s), "")
	s = strings.Replace(s, ",", ".", 1)
	s = nonAmountChars.ReplaceAllString(s, "")

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// NormalizeDate converts a model-reported date into a calendar date. Exact
// YYYY-MM-DD input parses at local midnight; other common layouts are tried
// next; anything else defaults to now. Never fails.
func NormalizeDate(raw string) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Now()
	}

	if isoDatePattern.MatchString(s) {
		if d, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
			return d
		}
	}

	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return d
		}
	}

	return time.Now()
}

// NormalizeProvider trims and length-bounds a merchant name, defaulting to
// DefaultProvider when the model found nothing.
func NormalizeProvider(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultProvider
	}

	if r := []rune(s); len(r) > 80 {
		s = string(r[:80])
	}
	return s
}
