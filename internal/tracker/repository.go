package tracker

import (
	"fmt"
	"strconv"
)

// ClaimScope selects whether a claim toggle affects one record or every
// record of its group.
type ClaimScope string

const (
	ClaimPerRecord ClaimScope = "record"
	ClaimPerGroup  ClaimScope = "group"
)

// ParseClaimScope validates a configured claim scope. Empty means per record.
func ParseClaimScope(value string) (ClaimScope, error) {
	switch ClaimScope(value) {
	case "", ClaimPerRecord:
		return ClaimPerRecord, nil
	case ClaimPerGroup:
		return ClaimPerGroup, nil
	default:
		return "", &ValidationError{Field: "claim scope", Value: value, Reason: "must be record or group"}
	}
}

// Repository is an ordered in-memory collection of records addressed by
// position. It is not safe for concurrent use; callers serialise access.
type Repository struct {
	records    []Record
	claimScope ClaimScope
}

// NewRepository returns an empty repository.
func NewRepository(claimScope ClaimScope) *Repository {
	if claimScope == "" {
		claimScope = ClaimPerRecord
	}
	return &Repository{
		records:    make([]Record, 0),
		claimScope: claimScope,
	}
}

// Replace swaps the whole collection, used when loading persisted state.
func (r *Repository) Replace(records []Record) {
	r.records = append(make([]Record, 0, len(records)), records...)
}

// Snapshot returns a copy of the collection in order.
func (r *Repository) Snapshot() []Record {
	return append(make([]Record, 0, len(r.records)), r.records...)
}

func (r *Repository) Len() int {
	return len(r.records)
}

// At returns the record at index.
func (r *Repository) At(index int) (Record, error) {
	if err := r.checkIndex(index); err != nil {
		return Record{}, err
	}
	return r.records[index], nil
}

// Add appends record as given. Container numbers are not deduplicated.
func (r *Repository) Add(record Record) {
	r.records = append(r.records, record)
}

// UpdateETA rewrites both ETA fields of one record, or neither.
func (r *Repository) UpdateETA(index int, display string) error {
	if !ValidDisplay(display) {
		return &ValidationError{Field: "eta", Value: display, Reason: "expected DD/MM/YYYY"}
	}
	if err := r.checkIndex(index); err != nil {
		return err
	}
	r.records[index].setETA(display)
	return nil
}

// ToggleClaim flips the claim flag. With ClaimPerGroup the new value is the
// negation of the group's aggregate claim and lands on every member.
func (r *Repository) ToggleClaim(index int) (bool, error) {
	if err := r.checkIndex(index); err != nil {
		return false, err
	}
	if r.claimScope != ClaimPerGroup {
		r.records[index].Claimed = !r.records[index].Claimed
		return r.records[index].Claimed, nil
	}

	key := r.records[index].Key()
	claimed := false
	for _, record := range r.records {
		if record.Key() == key && record.Claimed {
			claimed = true
			break
		}
	}
	for i := range r.records {
		if r.records[i].Key() == key {
			r.records[i].Claimed = !claimed
		}
	}
	return !claimed, nil
}

// ToggleHold sets every record of the group to the negation of the group's
// current hold aggregate and returns the new state.
func (r *Repository) ToggleHold(jobRef, etaISO string) (bool, error) {
	key := GroupKey{JobRef: jobRef, ETAISO: etaISO}
	found := false
	held := false
	for _, record := range r.records {
		if record.Key() != key {
			continue
		}
		found = true
		if record.OnHold {
			held = true
		}
	}
	if !found {
		return false, &NotFoundError{What: "group", Key: fmt.Sprintf("%s|%s", jobRef, etaISO)}
	}
	for i := range r.records {
		if r.records[i].Key() == key {
			r.records[i].OnHold = !held
		}
	}
	return !held, nil
}

// Remove deletes the record at index. Later records shift down by one.
func (r *Repository) Remove(index int) (Record, error) {
	if err := r.checkIndex(index); err != nil {
		return Record{}, err
	}
	removed := r.records[index]
	r.records = append(r.records[:index], r.records[index+1:]...)
	return removed, nil
}

func (r *Repository) checkIndex(index int) error {
	if index < 0 || index >= len(r.records) {
		return &NotFoundError{What: "record", Key: strconv.Itoa(index)}
	}
	return nil
}
