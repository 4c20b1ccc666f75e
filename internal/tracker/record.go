// Package tracker holds the container record model and the pure logic that
// classifies, groups and mutates an in-memory collection of records.
package tracker

import (
	"regexp"
	"strings"
)

// Record is one tracked container. Field names match the persisted schema.
type Record struct {
	ContainerNumber string `json:"containerNumber"`
	JobRef          string `json:"jobRef"`
	ETADisplay      string `json:"etaDisplay"`
	ETAISO          string `json:"etaISO"`
	Claimed         bool   `json:"claimed"`
	OnHold          bool   `json:"onHold"`
}

var displayPattern = regexp.MustCompile(`^[0-9]{2}/[0-9]{2}/[0-9]{4}$`)

// ValidDisplay reports whether s is in strict DD/MM/YYYY form.
func ValidDisplay(s string) bool {
	return displayPattern.MatchString(s)
}

// CanonicalDate reorders a DD/MM/YYYY string into YYYY-MM-DD. No calendar
// check is made, so 31/02/2024 becomes 2024-02-31. Missing parts are left
// empty and parts past the third are ignored.
func CanonicalDate(display string) string {
	parts := strings.Split(display, "/")
	var day, month, year string
	if len(parts) > 0 {
		day = parts[0]
	}
	if len(parts) > 1 {
		month = parts[1]
	}
	if len(parts) > 2 {
		year = parts[2]
	}
	return year + "-" + month + "-" + day
}

// NewRecord builds an unclaimed, not-held record with both ETA fields
// derived from display.
func NewRecord(containerNumber, jobRef, display string) Record {
	return Record{
		ContainerNumber: containerNumber,
		JobRef:          jobRef,
		ETADisplay:      display,
		ETAISO:          CanonicalDate(display),
	}
}

// Key returns the grouping key of the record.
func (r Record) Key() GroupKey {
	return GroupKey{JobRef: r.JobRef, ETAISO: r.ETAISO}
}

func (r *Record) setETA(display string) {
	r.ETADisplay = display
	r.ETAISO = CanonicalDate(display)
}
