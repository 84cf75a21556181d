package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var canonicalMonthRE = regexp.MustCompile(`^\d{4}-\d{2}$`)

// indoMonths maps Indonesian month names to their two-digit codes.
// Scan order matters: substitution walks all twelve names in calendar order,
// the same way the submission form historically did.
var indoMonths = []struct {
	name string
	code string
}{
	{"januari", "01"},
	{"februari", "02"},
	{"maret", "03"},
	{"april", "04"},
	{"mei", "05"},
	{"juni", "06"},
	{"juli", "07"},
	{"agustus", "08"},
	{"september", "09"},
	{"oktober", "10"},
	{"november", "11"},
	{"desember", "12"},
}

var monthNamesID = []string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var digitRunRE = regexp.MustCompile(`\d+`)

// fallbackLayouts are the only layouts the last-resort parser accepts.
// Deliberately day-free: a stray number must not pass as a month.
var fallbackLayouts = []string{
	"January 2006",
	"2006 January",
	"Jan 2006",
	"2006 Jan",
	"2006/01",
	"01/2006",
}

// NormalizeMonth converts a free-form month string into the canonical
// YYYY-MM key. Strategies are tried in order, first match wins:
//
//  1. Already canonical (^\d{4}-\d{2}$): returned unchanged. Semantically
//     invalid keys like "2024-13" pass through here; the future-month check
//     downstream compares them against the current key and rejects them.
//  2. Lower-case and substitute every Indonesian month name with its
//     two-digit code.
//  3. Extract maximal digit runs; a 4-digit run is the year, a 1-2-digit
//     run is the month. Two 4-digit runs with no short run fail.
//  4. Parse against a fixed set of day-free year+month layouts.
func NormalizeMonth(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrMonthUnparseable
	}

	if canonicalMonthRE.MatchString(s) {
		return s, nil
	}

	normalized := strings.ToLower(s)
	for _, m := range indoMonths {
		normalized = strings.ReplaceAll(normalized, m.name, m.code)
	}

	runs := digitRunRE.FindAllString(normalized, -1)
	year, month := "", ""
	for _, r := range runs {
		switch {
		case len(r) == 4 && year == "":
			year = r
		case len(r) <= 2 && month == "":
			month = r
		}
	}
	if year != "" && month != "" {
		if len(month) == 1 {
			month = "0" + month
		}
		return year + "-" + month, nil
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01"), nil
		}
	}

	return "", ErrMonthUnparseable
}

// CurrentMonthKey returns the canonical key for t's calendar month.
func CurrentMonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthAfter reports whether key a is chronologically after key b.
// Canonical keys are zero-padded, so plain string comparison orders them.
func MonthAfter(a, b string) bool {
	return a > b
}

// FormatMonthID renders a canonical key as an Indonesian long month,
// e.g. "2024-01" -> "Januari 2024". Keys with an out-of-range month
// component are returned unchanged.
func FormatMonthID(key string) string {
	var year, month int
	if _, err := fmt.Sscanf(key, "%d-%d", &year, &month); err != nil {
		return key
	}
	if month < 1 || month > 12 {
		return key
	}
	return fmt.Sprintf("%s %d", monthNamesID[month-1], year)
}
