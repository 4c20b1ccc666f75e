package tracker

import "time"

// GroupKey identifies records belonging to the same shipment arrival.
type GroupKey struct {
	JobRef string `json:"jobRef"`
	ETAISO string `json:"etaISO"`
}

// Item is a grouped record together with its position in the collection.
// Index is what mutation intents refer back to.
type Item struct {
	Record Record `json:"record"`
	Index  int    `json:"index"`
}

// Group aggregates the records sharing a GroupKey. OnHold is true when any
// member is on hold.
type Group struct {
	JobRef     string `json:"jobRef"`
	ETAISO     string `json:"etaISO"`
	ETADisplay string `json:"etaDisplay"`
	OnHold     bool   `json:"onHold"`
	Items      []Item `json:"items"`
}

// Key returns the group's key.
func (g Group) Key() GroupKey {
	return GroupKey{JobRef: g.JobRef, ETAISO: g.ETAISO}
}

// GroupRecords partitions the records passing filter into groups, in the
// order each key is first seen. Items keep collection order. A nil filter
// accepts every record.
func GroupRecords(records []Record, filter func(Record) bool) []Group {
	groups := make([]Group, 0)
	positions := make(map[GroupKey]int)

	for index, record := range records {
		if filter != nil && !filter(record) {
			continue
		}
		key := record.Key()
		pos, seen := positions[key]
		if !seen {
			pos = len(groups)
			positions[key] = pos
			groups = append(groups, Group{
				JobRef:     record.JobRef,
				ETAISO:     record.ETAISO,
				ETADisplay: record.ETADisplay,
				OnHold:     record.OnHold,
			})
		}
		group := &groups[pos]
		group.Items = append(group.Items, Item{Record: record, Index: index})
		if record.OnHold {
			group.OnHold = true
		}
	}
	return groups
}

// Section is one category of the board with its groups.
type Section struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Groups   []Group  `json:"groups"`
}

// Empty reports whether the section has nothing to show.
func (s Section) Empty() bool {
	return len(s.Groups) == 0
}

// Board classifies and groups records for every category, in display order.
func Board(records []Record, today time.Time) []Section {
	sections := make([]Section, 0, len(Categories()))
	for _, category := range Categories() {
		sections = append(sections, Section{
			Category: category,
			Title:    category.String(),
			Groups:   GroupRecords(records, category.Filter(today)),
		})
	}
	return sections
}
