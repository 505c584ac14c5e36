package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/cyp0633/calbridge/caldav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const propfindResponse = `<?xml version="1.0" encoding="UTF-8"?>
<D:multistatus xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:response>
    <D:href>/u/john/cal/work/</D:href>
    <D:propstat>
      <D:prop>
        <D:displayname>Work</D:displayname>
        <D:resourcetype><D:collection/><C:calendar/></D:resourcetype>
      </D:prop>
      <D:status>HTTP/1.1 200 OK</D:status>
    </D:propstat>
  </D:response>
</D:multistatus>`

const reportResponse = `<?xml version="1.0" encoding="UTF-8"?>
<D:multistatus xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:response>
    <D:href>/u/john/cal/work/1.ics</D:href>
    <D:propstat>
      <D:prop>
        <D:getetag>"abc"</D:getetag>
        <C:calendar-data>BEGIN:VCALENDAR
END:VCALENDAR</C:calendar-data>
      </D:prop>
      <D:status>HTTP/1.1 200 OK</D:status>
    </D:propstat>
  </D:response>
</D:multistatus>`

type recordedRequest struct {
	method string
	path   string
	depth  string
	body   string
}

func newTestWrapper(t *testing.T, status int, response string, rec *recordedRequest) *Wrapper {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*rec = recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			depth:  r.Header.Get("Depth"),
			body:   string(body),
		}
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	wrapper, err := New(srv.Client(), *base, nil)
	require.NoError(t, err)
	return wrapper
}

func TestPropfind(t *testing.T) {
	var rec recordedRequest
	w := newTestWrapper(t, http.StatusMultiStatus, propfindResponse, &rec)

	resources, err := w.Propfind(context.Background(), "/u/john/cal/", 1, []caldav.PropRequest{
		{Name: "displayname", Namespace: caldav.DAV},
	})
	require.NoError(t, err)

	assert.Equal(t, "PROPFIND", rec.method)
	assert.Equal(t, "/u/john/cal/", rec.path)
	assert.Equal(t, "1", rec.depth)
	assert.Contains(t, rec.body, "propfind")
	assert.Contains(t, rec.body, "displayname")

	require.Contains(t, resources, "/u/john/cal/work/")
	props := resources["/u/john/cal/work/"]
	assert.Equal(t, "Work", props.DisplayName)
	assert.True(t, props.IsCalendar)
}

func TestCalendarQuery(t *testing.T) {
	var rec recordedRequest
	w := newTestWrapper(t, http.StatusMultiStatus, reportResponse, &rec)

	filter := (&caldav.QueryOptions{Component: "VEVENT"}).Filter()
	results, err := w.CalendarQuery(context.Background(), "/u/john/cal/work/", nil, filter)
	require.NoError(t, err)

	assert.Equal(t, "REPORT", rec.method)
	assert.Equal(t, "1", rec.depth)
	assert.Contains(t, rec.body, "calendar-query")
	assert.Contains(t, rec.body, `name="VEVENT"`)
	// Empty props defaults to etag plus calendar data.
	assert.Contains(t, rec.body, "calendar-data")

	require.Len(t, results, 1)
	assert.Equal(t, "/u/john/cal/work/1.ics", results[0].Href)
	assert.Equal(t, `"abc"`, results[0].Etag)
	assert.Contains(t, results[0].CalendarData, "BEGIN:VCALENDAR")
}

func TestMultiget(t *testing.T) {
	var rec recordedRequest
	w := newTestWrapper(t, http.StatusMultiStatus, reportResponse, &rec)

	results, err := w.Multiget(context.Background(), "/u/john/cal/work/",
		[]string{"/u/john/cal/work/1.ics"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "REPORT", rec.method)
	assert.Contains(t, rec.body, "calendar-multiget")
	assert.Contains(t, rec.body, "/u/john/cal/work/1.ics")
	require.Len(t, results, 1)
}

func TestUnexpectedStatus(t *testing.T) {
	var rec recordedRequest
	w := newTestWrapper(t, http.StatusForbidden, "", &rec)

	_, err := w.Propfind(context.Background(), "/u/john/", 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status: 403")
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(nil, url.URL{}, nil)
	assert.Error(t, err)
}

func TestBasicAuthTransport(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewBasicAuthTransport("john", "secret", nil, nil)}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Contains(t, gotAuth, "Basic ")

	client = &http.Client{Transport: NewBasicAuthTransport("", "", nil, nil)}
	resp, err = client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, gotAuth)
}
