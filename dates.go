package tcmb

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// WireDateLayout is the date format EVDS expects in requests.
const WireDateLayout = "02-01-2006"

// DefaultStartDate is sent when no start date is given.
const DefaultStartDate = "01-01-1970"

var (
	dayFirst  = regexp.MustCompile(`^(\d{1,2})([-.])(\d{1,2})([-.])(\d{4})$`)
	yearFirst = regexp.MustCompile(`^(\d{4})([-.])(\d{1,2})([-.])(\d{1,2})$`)
)

// NormalizeDate converts a date string to the EVDS wire format DD-MM-YYYY.
// Accepted inputs are YYYY-MM-DD and DD-MM-YYYY, with "-" or "." as the
// separator used consistently. Anything else, including impossible calendar
// dates, returns an error matching ErrInvalidDate.
func NormalizeDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(WireDateLayout), nil
}

// ParseDate parses a date string in one of the formats NormalizeDate accepts.
func ParseDate(s string) (time.Time, error) {
	in := strings.TrimSpace(s)

	var year, month, day string
	if m := yearFirst.FindStringSubmatch(in); m != nil && m[2] == m[4] {
		year, month, day = m[1], m[3], m[5]
	} else if m := dayFirst.FindStringSubmatch(in); m != nil && m[2] == m[4] {
		day, month, year = m[1], m[3], m[5]
	} else {
		return time.Time{}, configError(CodeInvalidDate, fmt.Sprintf("%q: want YYYY-MM-DD or DD-MM-YYYY", s))
	}

	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return time.Time{}, configError(CodeInvalidDate, fmt.Sprintf("%q: no such calendar date", s))
	}
	return t, nil
}

// Observation date layouts, tried in order. EVDS formats the date column by
// series frequency.
var observationLayouts = []string{
	"2-1-2006", // daily, weekly
	"1-2006",   // monthly
	"2006-1",   // monthly
	"2006",     // annual
}

var quarterly = regexp.MustCompile(`^(\d{4})-Q([1-4])$`)

// parseObservationDate parses the "Tarih" column of a data response.
func parseObservationDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if m := quarterly.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		q, _ := strconv.Atoi(m[2])
		return time.Date(y, time.Month(3*(q-1)+1), 1, 0, 0, 0, 0, time.UTC), nil
	}
	for _, layout := range observationLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
