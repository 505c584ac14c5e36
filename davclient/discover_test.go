package davclient

import (
	"context"
	"errors"
	"testing"

	"github.com/cyp0633/calbridge/caldav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	propfind func(target string, depth int, props []caldav.PropRequest) (map[string]caldav.ResourceProps, error)
	query    func(target string, filter *caldav.Filter) ([]caldav.ResourceResult, error)
}

func (m *mockClient) Propfind(_ context.Context, target string, depth int, props []caldav.PropRequest) (map[string]caldav.ResourceProps, error) {
	return m.propfind(target, depth, props)
}

func (m *mockClient) CalendarQuery(_ context.Context, target string, _ []caldav.PropRequest, filter *caldav.Filter) ([]caldav.ResourceResult, error) {
	return m.query(target, filter)
}

// discoveryMock serves the standard three-step chain.
func discoveryMock() *mockClient {
	return &mockClient{
		propfind: func(target string, depth int, _ []caldav.PropRequest) (map[string]caldav.ResourceProps, error) {
			switch {
			case target == "https://cal.example.com/" && depth == 0:
				return map[string]caldav.ResourceProps{
					"/": {CurrentUserPrincipal: "/u/john/"},
				}, nil
			case target == "/u/john/" && depth == 0:
				return map[string]caldav.ResourceProps{
					"/u/john/": {CalendarHomeSet: "/u/john/cal/"},
				}, nil
			case target == "/u/john/cal/" && depth == 1:
				return map[string]caldav.ResourceProps{
					"/u/john/cal/":          {DisplayName: "home"},
					"/u/john/cal/work/":     {IsCalendar: true, DisplayName: "Work", Components: []string{"VEVENT"}},
					"/u/john/cal/personal/": {IsCalendar: true, DisplayName: "Personal"},
				}, nil
			}
			return nil, errors.New("unexpected propfind")
		},
	}
}

func TestDiscover(t *testing.T) {
	discovery, err := Discover(context.Background(), discoveryMock(), "https://cal.example.com/")
	require.NoError(t, err)

	assert.Equal(t, "/u/john/", discovery.Principal)
	assert.Equal(t, "/u/john/cal/", discovery.Home)
	require.Len(t, discovery.Calendars, 2)

	personal := discovery.Calendars[0]
	assert.Equal(t, "personal", personal.ID)
	// Missing component set defaults to all three kinds.
	assert.Equal(t, []string{"VEVENT", "VTODO", "VJOURNAL"}, personal.Components)

	work := discovery.Calendars[1]
	assert.Equal(t, "work", work.ID)
	assert.Equal(t, "Work", work.DisplayName)
	assert.Equal(t, []string{"VEVENT"}, work.Components)
	assert.Equal(t, "/u/john/cal/work/", work.Href)
}

func TestDiscover_NoPrincipal(t *testing.T) {
	client := &mockClient{
		propfind: func(string, int, []caldav.PropRequest) (map[string]caldav.ResourceProps, error) {
			return map[string]caldav.ResourceProps{"/": {}}, nil
		},
	}
	_, err := Discover(context.Background(), client, "https://cal.example.com/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "current-user-principal")
}

func TestDiscover_NoHome(t *testing.T) {
	client := &mockClient{
		propfind: func(target string, depth int, _ []caldav.PropRequest) (map[string]caldav.ResourceProps, error) {
			if target == "https://cal.example.com/" {
				return map[string]caldav.ResourceProps{"/": {CurrentUserPrincipal: "/u/john/"}}, nil
			}
			return map[string]caldav.ResourceProps{"/u/john/": {}}, nil
		},
	}
	_, err := Discover(context.Background(), client, "https://cal.example.com/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calendar-home-set")
}

func TestDiscover_PropfindFailure(t *testing.T) {
	client := &mockClient{
		propfind: func(string, int, []caldav.PropRequest) (map[string]caldav.ResourceProps, error) {
			return nil, errors.New("boom")
		},
	}
	_, err := Discover(context.Background(), client, "https://cal.example.com/")
	assert.Error(t, err)
}

func TestCalendarID(t *testing.T) {
	assert.Equal(t, "work", calendarID("/u/john/cal/work/", "/u/john/cal/"))
	assert.Equal(t, "a/b", calendarID("/u/john/cal/a/b/", "/u/john/cal/"))
	// Href outside home falls back to the final segment.
	assert.Equal(t, "shared", calendarID("/public/shared/", "/u/john/cal/"))
	assert.Equal(t, "unknown", calendarID("/", "/"))
}
