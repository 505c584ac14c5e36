package vcal

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// FilterOptions names the client-side filters an identifier may carry.
// Zero values mean "no constraint"; Apply runs only the supplied ones.
type FilterOptions struct {
	Category   string
	Start      string // compact date or date-time
	End        string
	Status     string
	UID        string
	Expression string
}

// Apply runs the supplied filters in a fixed order: category, time range,
// status, identifier, expression. Filtering never mutates its input.
func Apply(components []Component, opts FilterOptions, logger *slog.Logger) []Component {
	out := components
	if opts.Category != "" {
		out = FilterByCategory(out, opts.Category)
	}
	if opts.Start != "" || opts.End != "" {
		out = FilterByTimeRange(out, opts.Start, opts.End)
	}
	if opts.Status != "" {
		out = FilterByStatus(out, opts.Status)
	}
	if opts.UID != "" {
		out = FilterByUID(out, opts.UID)
	}
	if opts.Expression != "" {
		out = FilterByExpression(out, opts.Expression, logger)
	}
	return out
}

// FilterByCategory keeps components with any category containing the
// target as a case-insensitive substring.
func FilterByCategory(components []Component, category string) []Component {
	needle := strings.ToLower(category)
	var out []Component
	for _, c := range components {
		for _, cat := range c.Categories {
			if strings.Contains(strings.ToLower(cat), needle) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// FilterByTimeRange keeps components whose [start, computed end] interval
// overlaps the given window. Either bound may be empty, imposing no
// constraint on that side. Components without a start never match.
func FilterByTimeRange(components []Component, start, end string) []Component {
	var filterStart, filterEnd *time.Time
	if t, err := ParseTime(start); err == nil && start != "" {
		filterStart = &t
	}
	if t, err := ParseTime(end); err == nil && end != "" {
		filterEnd = &t
	}

	var out []Component
	for _, c := range components {
		if c.Start == "" {
			continue
		}
		compStart, err := ParseTime(c.Start)
		if err != nil {
			continue
		}
		compEnd := computedEnd(c, compStart)

		if filterStart != nil && compEnd.Before(*filterStart) {
			continue
		}
		if filterEnd != nil && compStart.After(*filterEnd) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// computedEnd resolves a component's effective end: the explicit end if
// parseable, start plus 24 hours for date-only starts, else the start.
func computedEnd(c Component, start time.Time) time.Time {
	if c.End != "" {
		if t, err := ParseTime(c.End); err == nil {
			return t
		}
	}
	if isDateOnly(c.Start) {
		return start.Add(24 * time.Hour)
	}
	return start
}

var (
	dateOnlyRe   = regexp.MustCompile(`^\d{8}$`)
	annotationRe = regexp.MustCompile(`\([^)]*\)`)
)

func isDateOnly(value string) bool {
	return dateOnlyRe.MatchString(annotationRe.ReplaceAllString(value, ""))
}

var timeLayouts = []string{
	"20060102T150405Z",
	"20060102T150405",
	"20060102",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses the date forms this engine carries: the compact
// iCalendar forms YYYYMMDDThhmmss (optional trailing Z) and YYYYMMDD,
// plus their dashed equivalents used in identifiers. Everything is
// treated as UTC; a parenthetical timezone annotation is stripped before
// parsing.
func ParseTime(value string) (time.Time, error) {
	v := strings.TrimSpace(annotationRe.ReplaceAllString(value, ""))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date value %q", value)
}

// FilterByStatus keeps components whose status equals the filter value
// case-insensitively.
func FilterByStatus(components []Component, status string) []Component {
	want := strings.ToUpper(status)
	var out []Component
	for _, c := range components {
		if strings.ToUpper(c.Status) == want {
			out = append(out, c)
		}
	}
	return out
}

// FilterByUID keeps components whose UID matches exactly.
func FilterByUID(components []Component, uid string) []Component {
	var out []Component
	for _, c := range components {
		if c.UID == uid {
			out = append(out, c)
		}
	}
	return out
}
