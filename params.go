package tcmb

import (
	"fmt"
	"strconv"
	"strings"
)

// Frequency is an EVDS observation frequency.
type Frequency int

// Frequencies accepted by the data endpoint.
const (
	FrequencyNone Frequency = 0
	Daily         Frequency = 1
	BusinessDay   Frequency = 2
	Weekly        Frequency = 3
	Monthly       Frequency = 5
	Quarterly     Frequency = 6
	SemiAnnual    Frequency = 7
	Annual        Frequency = 8
)

var frequencyAliases = map[string]Frequency{
	"D":     Daily,
	"B":     BusinessDay,
	"W":     Weekly,
	"W-FRI": Weekly,
	"M":     Monthly,
	"Q":     Quarterly,
	"2Q":    SemiAnnual,
	"A":     Annual,
	"Y":     Annual,
}

// ParseFrequency converts a frequency alias (D, B, W, W-FRI, M, Q, 2Q, A, Y)
// or its numeric code to a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if f, ok := frequencyAliases[s]; ok {
		return f, nil
	}
	if n, err := strconv.Atoi(s); err == nil && Frequency(n).Valid() && n != 0 {
		return Frequency(n), nil
	}
	return FrequencyNone, configError(CodeInvalidArgument, fmt.Sprintf("unknown frequency %q", s))
}

// Valid reports whether f is a known frequency code.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyNone, Daily, BusinessDay, Weekly, Monthly, Quarterly, SemiAnnual, Annual:
		return true
	}
	return false
}

func (f Frequency) String() string {
	switch f {
	case Daily:
		return "daily"
	case BusinessDay:
		return "business"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case SemiAnnual:
		return "semiannual"
	case Annual:
		return "annual"
	case FrequencyNone:
		return "none"
	}
	return "Frequency(" + strconv.Itoa(int(f)) + ")"
}

// Aggregation is the method used to collapse observations when converting to
// a lower frequency.
type Aggregation string

// Aggregation methods.
const (
	Average Aggregation = "avg"
	Minimum Aggregation = "min"
	Maximum Aggregation = "max"
	First   Aggregation = "first"
	Last    Aggregation = "last"
	Sum     Aggregation = "sum"
)

// Valid reports whether a is a known aggregation method.
func (a Aggregation) Valid() bool {
	switch a {
	case Average, Minimum, Maximum, First, Last, Sum:
		return true
	}
	return false
}

// Formula is a server-side transformation applied to a series.
type Formula int

// Formulas.
const (
	Level                  Formula = 0
	PercentChange          Formula = 1
	Difference             Formula = 2
	YearOverYearPercent    Formula = 3
	YearOverYearDifference Formula = 4
	YearToDatePercent      Formula = 5
	YearToDateDifference   Formula = 6
	MovingAverage          Formula = 7
	MovingSum              Formula = 8
)

// Valid reports whether f is a known formula code.
func (f Formula) Valid() bool {
	return f >= Level && f <= MovingSum
}

// joinParam renders per-series parameter values. A single value is repeated
// for every series; otherwise there must be exactly one value per series.
func joinParam[T any](name string, values []T, n int, format func(T) string) (string, error) {
	switch len(values) {
	case 0:
		return "", nil
	case 1:
		parts := make([]string, n)
		for i := range parts {
			parts[i] = format(values[0])
		}
		return strings.Join(parts, "-"), nil
	case n:
		parts := make([]string, n)
		for i, v := range values {
			parts[i] = format(v)
		}
		return strings.Join(parts, "-"), nil
	}
	return "", configError(CodeInvalidArgument,
		fmt.Sprintf("%s: got %d values for %d series", name, len(values), n))
}
