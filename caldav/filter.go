// Package caldav builds the protocol query documents sent to a CalDAV
// server and extracts per-resource results from its multistatus
// responses. Documents are built and walked with etree; the parsing side
// is lenient and non-validating.
package caldav

import "time"

// TextMatch describes a text-match constraint inside a prop-filter.
type TextMatch struct {
	Value  string
	Negate bool
}

// PropFilter describes a prop-filter inside a comp-filter.
type PropFilter struct {
	Name      string // e.g. "UID", "CATEGORIES"
	TextMatch *TextMatch
}

// TimeRange describes a time-range constraint; either bound may be nil.
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}

// Filter is a comp-filter node: component name plus optional time range,
// prop-filters and nested comp-filters.
type Filter struct {
	Component   string
	TimeRange   *TimeRange
	PropFilters []PropFilter
	Children    []Filter
}

// QueryOptions collects everything a calendar query can constrain
// server-side. Expression is never translated to the wire; it is carried
// only so the generated document can note that the evaluation happens
// client-side.
type QueryOptions struct {
	Component  string // VEVENT, VTODO or VJOURNAL; empty means VEVENT
	Start      *time.Time
	End        *time.Time
	Category   string
	UID        string
	Expression string
}

// Filter converts the options into the comp-filter tree the collaborator
// contract exchanges: VCALENDAR wrapping one component filter.
func (o QueryOptions) Filter() *Filter {
	comp := o.Component
	if comp == "" {
		comp = "VEVENT"
	}
	inner := Filter{Component: comp}

	if o.Start != nil || o.End != nil {
		inner.TimeRange = &TimeRange{Start: o.Start, End: o.End}
	}
	if o.Category != "" {
		inner.PropFilters = append(inner.PropFilters, PropFilter{
			Name:      "CATEGORIES",
			TextMatch: &TextMatch{Value: o.Category},
		})
	}
	if o.UID != "" {
		inner.PropFilters = append(inner.PropFilters, PropFilter{
			Name:      "UID",
			TextMatch: &TextMatch{Value: o.UID},
		})
	}

	return &Filter{Component: "VCALENDAR", Children: []Filter{inner}}
}
