package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/samber/lo"
)

var intervalPattern = regexp.MustCompile(`^(-)?P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?$`)

// Interval is a calendar interval in years, months, weeks and days.
// All components share one sign; it serializes as an ISO 8601 style
// duration such as P1Y2M or -P3W.
type Interval struct {
	Years  int
	Months int
	Weeks  int
	Days   int
}

// NewInterval creates an interval from its components.
// At least one component must be non-zero and all must share a sign.
func NewInterval(years, months, weeks, days int) (Interval, error) {
	i := Interval{Years: years, Months: months, Weeks: weeks, Days: days}
	parts := i.components()

	if lo.EveryBy(parts, func(p int) bool { return p == 0 }) {
		return Interval{}, ierr.NewError("interval has no non-zero component").
			WithHint("Interval must span at least one day").
			Mark(ierr.ErrInvalidArgument)
	}

	if lo.SomeBy(parts, func(p int) bool { return p > 0 }) && lo.SomeBy(parts, func(p int) bool { return p < 0 }) {
		return Interval{}, ierr.NewError("interval components have mixed signs").
			WithHint("Interval components must all be positive or all be negative").
			WithReportableDetails(map[string]any{
				"years":  years,
				"months": months,
				"weeks":  weeks,
				"days":   days,
			}).
			Mark(ierr.ErrInvalidArgument)
	}

	return i, nil
}

// ParseInterval parses a P[n]Y[n]M[n]W[n]D specification, optionally prefixed by '-'
func ParseInterval(spec string) (Interval, error) {
	m := intervalPattern.FindStringSubmatch(strings.TrimSpace(spec))
	if m == nil || (m[2] == "" && m[3] == "" && m[4] == "" && m[5] == "") {
		return Interval{}, ierr.NewErrorf("invalid interval specification %q", spec).
			WithHint("Interval must look like P1Y, P1M, P2W, P30D or a combination such as P1Y2M").
			Mark(ierr.ErrParse)
	}

	sign := 1
	if m[1] == "-" {
		sign = -1
	}

	values := make([]int, 4)
	for idx, raw := range m[2:] {
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Interval{}, ierr.WithError(err).
				WithHintf("interval component %q is out of range", raw).
				Mark(ierr.ErrParse)
		}
		values[idx] = sign * n
	}

	i, err := NewInterval(values[0], values[1], values[2], values[3])
	if err != nil {
		return Interval{}, ierr.WithError(err).
			WithHintf("invalid interval specification %q", spec).
			Mark(ierr.ErrParse)
	}
	return i, nil
}

// MustParseInterval is like ParseInterval but panics on error.
// Meant for constants and tests.
func MustParseInterval(spec string) Interval {
	i, err := ParseInterval(spec)
	if err != nil {
		panic(err)
	}
	return i
}

func (i Interval) components() []int {
	return []int{i.Years, i.Months, i.Weeks, i.Days}
}

// IsZero reports whether all components are zero
func (i Interval) IsZero() bool {
	return i == Interval{}
}

// IsPositive reports whether the interval moves dates forward
func (i Interval) IsPositive() bool {
	return !i.IsZero() && lo.EveryBy(i.components(), func(p int) bool { return p >= 0 })
}

// Multiply scales every component by n
func (i Interval) Multiply(n int) Interval {
	return Interval{Years: i.Years * n, Months: i.Months * n, Weeks: i.Weeks * n, Days: i.Days * n}
}

// AddTo applies the interval to t: years and months first with the day of
// month clamped to the target month, then weeks and days.
func (i Interval) AddTo(t time.Time) time.Time {
	return AddClampedDate(t, i.Years, i.Months, i.Weeks*7+i.Days)
}

// String returns the canonical specification, e.g. P1Y2M
func (i Interval) String() string {
	if i.IsZero() {
		return "P0D"
	}

	var b strings.Builder
	if !i.IsPositive() {
		b.WriteByte('-')
	}
	b.WriteByte('P')
	for _, part := range []struct {
		n      int
		design byte
	}{
		{i.Years, 'Y'},
		{i.Months, 'M'},
		{i.Weeks, 'W'},
		{i.Days, 'D'},
	} {
		if part.n == 0 {
			continue
		}
		b.WriteString(strconv.Itoa(abs(part.n)))
		b.WriteByte(part.design)
	}
	return b.String()
}

// Describe returns a human readable form such as "1 year 2 months"
func (i Interval) Describe() string {
	var parts []string
	for _, part := range []struct {
		n    int
		unit string
	}{
		{i.Years, "year"},
		{i.Months, "month"},
		{i.Weeks, "week"},
		{i.Days, "day"},
	} {
		if part.n == 0 {
			continue
		}
		n := abs(part.n)
		if n == 1 {
			parts = append(parts, fmt.Sprintf("%d %s", n, part.unit))
		} else {
			parts = append(parts, fmt.Sprintf("%d %ss", n, part.unit))
		}
	}

	if len(parts) == 0 {
		return "0 days"
	}
	desc := strings.Join(parts, " ")
	if !i.IsPositive() {
		return "minus " + desc
	}
	return desc
}

func (i Interval) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Interval) UnmarshalText(text []byte) error {
	parsed, err := ParseInterval(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
