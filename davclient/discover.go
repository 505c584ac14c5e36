package davclient

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cyp0633/calbridge/caldav"
)

// Discovery is the resolved calendar topology for one server and user.
// It is built wholesale and never mutated afterwards.
type Discovery struct {
	Principal string
	Home      string
	Calendars []CalendarCollection
}

// CalendarCollection is one calendar found under the calendar home.
type CalendarCollection struct {
	ID          string // short identifier derived from the href relative to home
	DisplayName string
	Components  []string // supported component kinds
	Href        string
}

// Discover resolves the current user's principal, calendar home and
// calendar collections through three chained property lookups. Each step
// is required; a missing property fails the whole chain.
func Discover(ctx context.Context, client Client, serverRoot string) (*Discovery, error) {
	principal, err := lookupSingle(ctx, client, serverRoot, "current-user-principal",
		func(p caldav.ResourceProps) string { return p.CurrentUserPrincipal })
	if err != nil {
		return nil, err
	}

	home, err := lookupSingle(ctx, client, principal, "calendar-home-set",
		func(p caldav.ResourceProps) string { return p.CalendarHomeSet })
	if err != nil {
		return nil, err
	}

	resources, err := client.Propfind(ctx, home, 1, []caldav.PropRequest{
		{Name: "resourcetype"},
		{Name: "displayname"},
		{Name: "supported-calendar-component-set", Namespace: caldav.CalDAV},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars under %s: %w", home, err)
	}

	discovery := &Discovery{Principal: principal, Home: home}
	for href, props := range resources {
		if !props.IsCalendar || samePath(href, home) {
			continue
		}
		components := props.Components
		if len(components) == 0 {
			components = append([]string(nil), allComponents...)
		}
		discovery.Calendars = append(discovery.Calendars, CalendarCollection{
			ID:          calendarID(href, home),
			DisplayName: props.DisplayName,
			Components:  components,
			Href:        href,
		})
	}
	sort.Slice(discovery.Calendars, func(i, j int) bool {
		return discovery.Calendars[i].Href < discovery.Calendars[j].Href
	})
	return discovery, nil
}

var allComponents = []string{"VEVENT", "VTODO", "VJOURNAL"}

func lookupSingle(ctx context.Context, client Client, target, propName string, pick func(caldav.ResourceProps) string) (string, error) {
	resources, err := client.Propfind(ctx, target, 0, []caldav.PropRequest{
		{Name: propName, Namespace: namespaceFor(propName)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get %s from %s: %w", propName, target, err)
	}
	for _, props := range resources {
		if value := pick(props); value != "" {
			return value, nil
		}
	}
	return "", fmt.Errorf("no %s found at %s", propName, target)
}

func namespaceFor(propName string) string {
	if propName == "calendar-home-set" {
		return caldav.CalDAV
	}
	return caldav.DAV
}

func samePath(a, b string) bool {
	return strings.Trim(a, "/") == strings.Trim(b, "/")
}

// calendarID derives a collection's short identifier from its href
// relative to the calendar home, falling back to the final path segment
// and finally to "unknown".
func calendarID(href, home string) string {
	h := strings.Trim(href, "/")
	base := strings.Trim(home, "/")
	if base != "" && strings.HasPrefix(h, base) {
		if id := strings.Trim(strings.TrimPrefix(h, base), "/"); id != "" {
			return id
		}
	}
	if i := strings.LastIndexByte(h, '/'); i >= 0 {
		h = h[i+1:]
	}
	if h == "" {
		return "unknown"
	}
	return h
}
