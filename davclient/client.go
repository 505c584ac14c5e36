// Package davclient defines the contract to the remote CalDAV server and
// the discovery chain that locates a user's calendars behind it. The
// Client interface is the only place network I/O happens; everything
// above it stays transport-free.
package davclient

import (
	"context"

	"github.com/cyp0633/calbridge/caldav"
)

// Client is the upstream collaborator: a property lookup and a filtered
// calendar query against the remote server.
type Client interface {
	// Propfind fetches the given properties of target at the given
	// depth, returning per-resource property maps keyed by href.
	Propfind(ctx context.Context, target string, depth int, props []caldav.PropRequest) (map[string]caldav.ResourceProps, error)

	// CalendarQuery runs a calendar-query REPORT against target,
	// returning per-resource results carrying calendar data.
	CalendarQuery(ctx context.Context, target string, props []caldav.PropRequest, filter *caldav.Filter) ([]caldav.ResourceResult, error)
}
