package tracker

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 9, 30, 0, 0, time.Local)
}

func TestClassifyMondayScenario(t *testing.T) {
	today := day(2024, time.June, 10)
	require.Equal(t, time.Monday, today.Weekday())

	tests := []struct {
		eta  string
		want Category
	}{
		{"2024-06-09", Late},
		{"2024-06-10", DueToday},
		{"2024-06-11", DueTomorrow},
		{"2024-06-13", DueThisWeek},
		{"2024-06-15", DueThisWeek},
		{"2024-06-16", Upcoming},
		{"2024-06-20", Upcoming},
		{"2023-12-31", Late},
	}
	for _, tt := range tests {
		t.Run(tt.eta, func(t *testing.T) {
			assert.Equal(t, []Category{tt.want}, Classify(tt.eta, today))
		})
	}
}

func TestClassifySaturdayBoundaryMatchesTomorrowAndUpcoming(t *testing.T) {
	saturday := day(2024, time.June, 15)
	require.Equal(t, time.Saturday, saturday.Weekday())

	assert.Equal(t, []Category{DueTomorrow, Upcoming}, Classify("2024-06-16", saturday))
	assert.Equal(t, []Category{DueToday}, Classify("2024-06-15", saturday))
	assert.Equal(t, []Category{Upcoming}, Classify("2024-06-17", saturday))
	assert.False(t, DueThisWeek.Matches("2024-06-16", saturday))
}

func TestClassifyFridayTomorrowIsNotThisWeek(t *testing.T) {
	friday := day(2024, time.June, 14)
	assert.Equal(t, []Category{DueTomorrow}, Classify("2024-06-15", friday))
	assert.Equal(t, []Category{Upcoming}, Classify("2024-06-16", friday))
}

func TestClassifySundayWeekRunsToSaturday(t *testing.T) {
	sunday := day(2024, time.June, 9)
	assert.Equal(t, []Category{DueThisWeek}, Classify("2024-06-15", sunday))
	assert.Equal(t, []Category{Upcoming}, Classify("2024-06-16", sunday))
}

func TestClassifyExactlyOneCategoryOffBoundary(t *testing.T) {
	start := day(2024, time.January, 1)
	for d := 0; d < 28; d++ {
		today := start.AddDate(0, 0, d)
		for offset := -10; offset <= 21; offset++ {
			eta := today.AddDate(0, 0, offset).Format("2006-01-02")
			got := Classify(eta, today)
			if today.Weekday() == time.Saturday && offset == 1 {
				assert.Equal(t, []Category{DueTomorrow, Upcoming}, got, "today=%s eta=%s", today.Format("2006-01-02"), eta)
				continue
			}
			assert.Len(t, got, 1, "today=%s eta=%s", today.Format("2006-01-02"), eta)
		}
	}
}

func TestClassifyUsesLocalCalendarDayOfToday(t *testing.T) {
	zone := time.FixedZone("AEST", 10*60*60)
	lateEvening := time.Date(2024, time.June, 10, 23, 59, 0, 0, zone)
	earlyMorning := time.Date(2024, time.June, 10, 0, 1, 0, 0, zone)

	assert.Equal(t, []Category{DueToday}, Classify("2024-06-10", lateEvening))
	assert.Equal(t, []Category{DueToday}, Classify("2024-06-10", earlyMorning))
}

func TestClassifyImpossibleDateRollsForward(t *testing.T) {
	record := NewRecord("MSCU1234567", "J1", "31/02/2024")
	require.Equal(t, "2024-02-31", record.ETAISO)

	assert.Equal(t, []Category{DueToday}, Classify(record.ETAISO, day(2024, time.March, 2)))
}

func TestClassifyUnparseableDateMatchesNothing(t *testing.T) {
	today := day(2024, time.June, 10)
	for _, eta := range []string{"", "2024-06", "abcd-ef-gh", "2024-x6-10"} {
		assert.Empty(t, Classify(eta, today), "eta=%q", eta)
	}
}

func TestClassifyBlankPartsCountAsZero(t *testing.T) {
	today := day(2023, time.December, 10)

	// month 0 of 2024 is December 2023
	assert.Equal(t, []Category{DueToday}, Classify("2024--10", today))
	assert.Equal(t, []Category{DueToday}, Classify("2024-00-10-extra", today))

	// blank year and month fall back to the 1899 calendar
	assert.Equal(t, []Category{Late}, Classify("--", today))
	assert.Equal(t, []Category{Late}, Classify(CanonicalDate("13-06-2024"), today))
}

func TestClassifyTwoDigitYearsMeanNineteenHundreds(t *testing.T) {
	assert.Equal(t, []Category{DueToday}, Classify("0099-06-10", day(1999, time.June, 10)))
}

func TestCategorySlugRoundTrip(t *testing.T) {
	for _, category := range Categories() {
		parsed, err := ParseCategory(category.Slug())
		require.NoError(t, err)
		assert.Equal(t, category, parsed)
	}
	_, err := ParseCategory("overdue")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Category(9)", fmt.Sprint(Category(9)))
}
