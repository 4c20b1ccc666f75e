package tracker

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRecordsSharesHoldAcrossKey(t *testing.T) {
	records := []Record{
		NewRecord("C1", "J1", "13/06/2024"),
		NewRecord("C2", "J1", "13/06/2024"),
	}
	records[1].OnHold = true

	groups := GroupRecords(records, nil)

	require.Len(t, groups, 1)
	assert.True(t, groups[0].OnHold)
	assert.Len(t, groups[0].Items, 2)
	assert.Equal(t, "2024-06-13", groups[0].ETAISO)
}

func TestGroupRecordsOrdering(t *testing.T) {
	records := []Record{
		NewRecord("C1", "J2", "13/06/2024"),
		NewRecord("C2", "J1", "13/06/2024"),
		NewRecord("C3", "J2", "13/06/2024"),
		NewRecord("C4", "J2", "14/06/2024"),
		NewRecord("C5", "J1", "13/06/2024"),
	}

	groups := GroupRecords(records, nil)

	want := []Group{
		{JobRef: "J2", ETAISO: "2024-06-13", ETADisplay: "13/06/2024", Items: []Item{{records[0], 0}, {records[2], 2}}},
		{JobRef: "J1", ETAISO: "2024-06-13", ETADisplay: "13/06/2024", Items: []Item{{records[1], 1}, {records[4], 4}}},
		{JobRef: "J2", ETAISO: "2024-06-14", ETADisplay: "14/06/2024", Items: []Item{{records[3], 3}}},
	}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Fatalf("GroupRecords() mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupRecordsHoldIsNeverDemotedByLaterMember(t *testing.T) {
	records := []Record{
		NewRecord("C1", "J1", "13/06/2024"),
		NewRecord("C2", "J1", "13/06/2024"),
		NewRecord("C3", "J1", "13/06/2024"),
	}
	records[0].OnHold = true

	groups := GroupRecords(records, nil)

	require.Len(t, groups, 1)
	assert.True(t, groups[0].OnHold)
}

func TestGroupRecordsSeedsDisplayFromFirstMember(t *testing.T) {
	// same canonical date, different display spelling is impossible via the
	// parse rule, but a loaded blob can carry one
	records := []Record{
		{ContainerNumber: "C1", JobRef: "J1", ETADisplay: "13/06/2024", ETAISO: "2024-06-13"},
		{ContainerNumber: "C2", JobRef: "J1", ETADisplay: "13/6/2024", ETAISO: "2024-06-13"},
	}
	groups := GroupRecords(records, nil)
	require.Len(t, groups, 1)
	assert.Equal(t, "13/06/2024", groups[0].ETADisplay)
}

func TestGroupRecordsFilterCountsMatch(t *testing.T) {
	today := day(2024, time.June, 10)
	records := []Record{
		NewRecord("C1", "J1", "09/06/2024"),
		NewRecord("C2", "J1", "10/06/2024"),
		NewRecord("C3", "J2", "10/06/2024"),
		NewRecord("C4", "J3", "11/06/2024"),
		NewRecord("C5", "J3", "13/06/2024"),
		NewRecord("C6", "J4", "20/06/2024"),
		NewRecord("C7", "J4", "bad"),
	}

	for _, category := range Categories() {
		filter := category.Filter(today)
		want := 0
		for _, record := range records {
			if filter(record) {
				want++
			}
		}
		got := 0
		for _, group := range GroupRecords(records, filter) {
			got += len(group.Items)
		}
		assert.Equal(t, want, got, "category %s", category)
	}
}

func TestGroupRecordsDoesNotMutateInput(t *testing.T) {
	records := []Record{NewRecord("C1", "J1", "13/06/2024"), NewRecord("C2", "J1", "13/06/2024")}
	records[1].OnHold = true
	before := append([]Record(nil), records...)

	_ = GroupRecords(records, nil)

	if diff := cmp.Diff(before, records); diff != "" {
		t.Fatalf("input mutated (-before +after):\n%s", diff)
	}
}

func TestBoardSectionsInDisplayOrder(t *testing.T) {
	today := day(2024, time.June, 15)
	records := []Record{
		NewRecord("C1", "J1", "16/06/2024"),
		NewRecord("C2", "J2", "14/06/2024"),
	}

	sections := Board(records, today)

	require.Len(t, sections, len(Categories()))
	for i, category := range Categories() {
		assert.Equal(t, category, sections[i].Category)
	}
	assert.Len(t, sections[Late].Groups, 1)
	assert.True(t, sections[DueToday].Empty())
	assert.Len(t, sections[DueTomorrow].Groups, 1)
	assert.True(t, sections[DueThisWeek].Empty())
	assert.Len(t, sections[Upcoming].Groups, 1)
}
