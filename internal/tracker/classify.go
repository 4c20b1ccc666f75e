package tracker

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Category is an urgency bucket for an ETA relative to a reference day.
type Category int

const (
	Late Category = iota
	DueToday
	DueTomorrow
	DueThisWeek
	Upcoming
)

var categorySlugs = map[Category]string{
	Late:        "late",
	DueToday:    "due-today",
	DueTomorrow: "due-tomorrow",
	DueThisWeek: "due-this-week",
	Upcoming:    "upcoming",
}

var categoryNames = map[Category]string{
	Late:        "Late",
	DueToday:    "Due Today",
	DueTomorrow: "Due Tomorrow",
	DueThisWeek: "Due This Week",
	Upcoming:    "Upcoming",
}

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{Late, DueToday, DueTomorrow, DueThisWeek, Upcoming}
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Slug is the stable identifier used on the wire and in section ids.
func (c Category) Slug() string {
	return categorySlugs[c]
}

func (c Category) MarshalText() ([]byte, error) {
	slug, ok := categorySlugs[c]
	if !ok {
		return nil, fmt.Errorf("unknown category %d", int(c))
	}
	return []byte(slug), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory maps a slug back to its category.
func ParseCategory(slug string) (Category, error) {
	for category, s := range categorySlugs {
		if s == slug {
			return category, nil
		}
	}
	return 0, &ValidationError{Field: "category", Value: slug, Reason: "unknown category"}
}

// Matches reports whether etaISO falls in the category for the calendar day
// of today, read in today's own location. Dates with fewer than three parts
// or a non-numeric part match nothing; blank parts count as zero. Month and
// day overflow roll forward the way a calendar constructor does, so
// 2024-02-31 is treated as 2 March 2024.
//
// On a Saturday the day after today satisfies both DueTomorrow and Upcoming,
// because the week ends on today.
func (c Category) Matches(etaISO string, today time.Time) bool {
	eta, ok := parseCanonical(etaISO)
	if !ok {
		return false
	}
	start := civilDay(today)
	offset := daysBetween(start, eta)
	endOfWeek := 6 - int(start.Weekday())

	switch c {
	case Late:
		return offset < 0
	case DueToday:
		return offset == 0
	case DueTomorrow:
		return offset == 1
	case DueThisWeek:
		return offset > 1 && offset <= endOfWeek
	case Upcoming:
		return offset > endOfWeek
	default:
		return false
	}
}

// Classify returns every category etaISO matches, in display order. The
// result holds one category, except on the Saturday boundary where it holds
// DueTomorrow and Upcoming, and for unparseable dates where it is empty.
func Classify(etaISO string, today time.Time) []Category {
	var matched []Category
	for _, category := range Categories() {
		if category.Matches(etaISO, today) {
			matched = append(matched, category)
		}
	}
	return matched
}

// Filter returns a record predicate for use with GroupRecords.
func (c Category) Filter(today time.Time) func(Record) bool {
	return func(r Record) bool {
		return c.Matches(r.ETAISO, today)
	}
}

// parseCanonical reads the first three dash-separated parts as year, month
// and day the way a JavaScript Date constructor coerces them: blank parts
// count as zero, extra parts are ignored and years 0-99 mean 1900-1999.
func parseCanonical(iso string) (time.Time, bool) {
	parts := strings.Split(iso, "-")
	if len(parts) < 3 {
		return time.Time{}, false
	}
	var fields [3]int
	for i := range fields {
		value := strings.TrimSpace(parts[i])
		if value == "" {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return time.Time{}, false
		}
		fields[i] = n
	}
	year, month, day := fields[0], fields[1], fields[2]
	if year >= 0 && year <= 99 {
		year += 1900
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// civilDay maps t to midnight UTC of its local calendar date so day
// differences are exact regardless of DST.
func civilDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}
