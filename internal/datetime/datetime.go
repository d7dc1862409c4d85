// Package datetime implements the partial-precision calendar value used by
// timelines: a year, optionally refined down to month, day, hour and minute,
// with an optional UTC-offset timezone. A value holding only a year is valid
// and means "some time in that year".
package datetime

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TZRe matches UTC offsets: a signed or unsigned single digit, or a two-digit
// hour 00-14 with an optional :MM part restricted to the offsets that exist.
var TZRe = regexp.MustCompile(`^([+-]?\d|[+-]?(0\d|1[0-4])(:[0234][05])?)$`)

// Form-input grammars for the individual fields.
var (
	YearRe   = regexp.MustCompile(`^\d{1,4}$`)
	MonthRe  = regexp.MustCompile(`^(0?\d|1[0-2])$`)
	DayRe    = regexp.MustCompile(`^([0-2]?\d|3[0-1])$`)
	HourRe   = regexp.MustCompile(`^([0-1]?\d|2[0-3])$`)
	MinuteRe = regexp.MustCompile(`^([0-5]?\d)$`)
)

var months = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// DateTime is a partial-precision point in time. Nil pointer fields are
// absent. Precision is hierarchical by convention (a day without a month is
// never produced by the constructors) but not enforced here, so half-edited
// form input can be held without failing.
//
// Values are treated as immutable: updates construct a new value.
type DateTime struct {
	// Year is required and zero-based (year 0 is allowed).
	Year int `json:"year"`
	// Month is 1-12.
	Month  *int `json:"month,omitempty"`
	Day    *int `json:"day,omitempty"`
	Hour   *int `json:"hour,omitempty"`
	Minute *int `json:"minute,omitempty"`
	// TimeZone is a UTC offset matching TZRe, e.g. "+09" or "-05:30".
	TimeZone string `json:"timeZone,omitempty"`
}

// New returns a year-precision value.
func New(year int) DateTime {
	return DateTime{Year: year}
}

// Validate reports whether the value's fields are individually in range.
// Construction never validates; this is the explicit check.
func (d DateTime) Validate() error {
	if d.Year < 0 {
		return fmt.Errorf("year %d is negative", d.Year)
	}
	if d.Month != nil && (*d.Month < 1 || *d.Month > 12) {
		return fmt.Errorf("month %d out of range 1-12", *d.Month)
	}
	if d.Day != nil && (*d.Day < 1 || *d.Day > 31) {
		return fmt.Errorf("day %d out of range 1-31", *d.Day)
	}
	if d.Hour != nil && (*d.Hour < 0 || *d.Hour > 23) {
		return fmt.Errorf("hour %d out of range 0-23", *d.Hour)
	}
	if d.Minute != nil && (*d.Minute < 0 || *d.Minute > 59) {
		return fmt.Errorf("minute %d out of range 0-59", *d.Minute)
	}
	if d.TimeZone != "" && !TZRe.MatchString(d.TimeZone) {
		return fmt.Errorf("timezone %q does not match the offset grammar", d.TimeZone)
	}
	return nil
}

// FromStrings builds a value from raw form input. A year that does not parse
// aborts the whole construction; any other field that does not parse is
// treated as absent. The result is returned only if it validates.
func FromStrings(year, month, day, hour, minute, timeZone string) (DateTime, bool) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return DateTime{}, false
	}

	d := DateTime{Year: y, TimeZone: strings.TrimSpace(timeZone)}
	d.Month = parseOptional(month)
	d.Day = parseOptional(day)
	d.Hour = parseOptional(hour)
	d.Minute = parseOptional(minute)

	if d.Validate() != nil {
		return DateTime{}, false
	}
	return d, true
}

func parseOptional(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

// Equal reports whether two values have identical precision and fields.
func (d DateTime) Equal(o DateTime) bool {
	return d.Year == o.Year &&
		intPtrEqual(d.Month, o.Month) &&
		intPtrEqual(d.Day, o.Day) &&
		intPtrEqual(d.Hour, o.Hour) &&
		intPtrEqual(d.Minute, o.Minute) &&
		d.TimeZone == o.TimeZone
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Time projects the value onto a conventional instant, substituting January,
// the 1st and midnight for absent fields. Coarse comparisons only; the
// projection loses the value's precision and ignores the timezone.
func (d DateTime) Time() time.Time {
	month := time.January
	if d.Month != nil {
		month = time.Month(*d.Month)
	}
	day, hour, minute := 1, 0, 0
	if d.Day != nil {
		day = *d.Day
	}
	if d.Hour != nil {
		hour = *d.Hour
	}
	if d.Minute != nil {
		minute = *d.Minute
	}
	return time.Date(d.Year, month, day, hour, minute, 0, 0, time.Local)
}

// String renders the value at its own precision, e.g. "1987", "1987, June 3"
// or "1987, June 3, 09:30". The timezone is left out; it is too noisy for
// list rendering.
func (d DateTime) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(d.Year))

	if d.Month != nil && *d.Month >= 1 && *d.Month <= 12 {
		b.WriteString(", ")
		b.WriteString(months[*d.Month-1])
	}
	if d.Day != nil {
		fmt.Fprintf(&b, " %d", *d.Day)
	}
	if d.Hour != nil {
		fmt.Fprintf(&b, ", %02d", *d.Hour)
		if d.Minute != nil {
			fmt.Fprintf(&b, ":%02d", *d.Minute)
		} else {
			b.WriteString(":00")
		}
	}
	return b.String()
}

// UnmarshalJSON decodes the six-field object form. Input without a numeric
// year is rejected; everything else is optional.
func (d *DateTime) UnmarshalJSON(data []byte) error {
	var raw struct {
		Year     *int   `json:"year"`
		Month    *int   `json:"month"`
		Day      *int   `json:"day"`
		Hour     *int   `json:"hour"`
		Minute   *int   `json:"minute"`
		TimeZone string `json:"timeZone"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode datetime: %w", err)
	}
	if raw.Year == nil {
		return fmt.Errorf("decode datetime: missing numeric year")
	}
	*d = DateTime{
		Year:     *raw.Year,
		Month:    raw.Month,
		Day:      raw.Day,
		Hour:     raw.Hour,
		Minute:   raw.Minute,
		TimeZone: raw.TimeZone,
	}
	return nil
}

// Range pairs a required start with an optional end. An absent end means a
// point in time, or "ongoing".
type Range struct {
	Start DateTime  `json:"start"`
	End   *DateTime `json:"end,omitempty"`
}

// Validate checks both endpoints; it does not require start <= end, matching
// the deferred-validation philosophy of DateTime itself.
func (r Range) Validate() error {
	if err := r.Start.Validate(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if r.End != nil {
		if err := r.End.Validate(); err != nil {
			return fmt.Errorf("end: %w", err)
		}
	}
	return nil
}

// UnmarshalJSON requires the start field to be present.
func (r *Range) UnmarshalJSON(data []byte) error {
	var raw struct {
		Start *DateTime `json:"start"`
		End   *DateTime `json:"end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode range: %w", err)
	}
	if raw.Start == nil {
		return fmt.Errorf("decode range: missing start")
	}
	r.Start = *raw.Start
	r.End = raw.End
	return nil
}

// Ptr is a convenience for building optional fields in literals and tests.
func Ptr(n int) *int { return &n }
