package engine

import (
	"strconv"
	"strings"
	"time"

	"ddl-pump/internal/schema"
)

// Layouts accepted for date-like columns, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

const (
	placeholderDate      = "1970-01-01"
	placeholderTimestamp = "1970-01-01 00:00:00"
)

type dateProblem int

const (
	dateOK dateProblem = iota
	dateUnparseable
	dateFeb29 // February 29 in a non-leap year
)

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// checkDate classifies a cell of a date-like column. time.Time values are
// always valid; other non-string values are not dates.
func checkDate(v any) dateProblem {
	var s string
	switch val := v.(type) {
	case time.Time:
		return dateOK
	case string:
		s = strings.TrimSpace(val)
	case []byte:
		s = strings.TrimSpace(string(val))
	default:
		return dateUnparseable
	}

	if year, ok := leadingFeb29(s); ok && !isLeapYear(year) {
		return dateFeb29
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return dateOK
		}
	}
	return dateUnparseable
}

// leadingFeb29 reports whether s starts with YYYY-02-29 and returns the year.
func leadingFeb29(s string) (int, bool) {
	if len(s) < 10 || s[4] != '-' || s[7] != '-' || s[5:10] != "02-29" {
		return 0, false
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0, false
	}
	return year, true
}

// fixFeb29 rewrites the day of a YYYY-02-29... value to the 28th, keeping
// any time part as written.
func fixFeb29(s string) string {
	s = strings.TrimSpace(s)
	return s[:8] + "28" + s[10:]
}

func placeholderFor(t schema.DataType) string {
	if t == schema.Date {
		return placeholderDate
	}
	return placeholderTimestamp
}
