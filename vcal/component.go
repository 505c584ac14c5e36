// Package vcal implements a line-oriented iCalendar document engine:
// parsing into structured components, composable client-side filtering,
// and re-serialization. The escaping and folding rules follow RFC 5545
// closely enough that parsing a serialized document restores every
// populated field.
package vcal

// Recognized top-level component kinds.
const (
	CompEvent   = "VEVENT"
	CompTodo    = "VTODO"
	CompJournal = "VJOURNAL"
)

// KnownComponents lists the three recognized kinds.
var KnownComponents = []string{CompEvent, CompTodo, CompJournal}

// Component is a single schedulable item. Known properties live in typed
// fields; anything else lands in Extra keyed by lowercased property name.
// A zero Priority means the property is absent (RFC 5545 defines 0 as
// "undefined").
type Component struct {
	UID         string
	Type        string // VEVENT, VTODO or VJOURNAL
	Summary     string
	Start       string // raw value, possibly "(TZID)"-annotated
	End         string
	Description string
	Location    string
	Status      string
	Priority    int
	Categories  []string
	Extra       map[string]string
}

// UIDs returns the identifiers of all components, in order.
func UIDs(components []Component) []string {
	ids := make([]string, len(components))
	for i, c := range components {
		ids[i] = c.UID
	}
	return ids
}
