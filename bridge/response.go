package bridge

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cyp0633/calbridge/davclient"
	"github.com/cyp0633/calbridge/uri"
)

// Response is what the bridge hands back to the outer framework.
type Response struct {
	Content  string
	MimeType string
	Status   int
}

type errorPayload struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

type calendarPayload struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Components []string `json:"components"`
	Href       string   `json:"href"`
}

type metadataPayload struct {
	Principal string            `json:"principal"`
	Home      string            `json:"home"`
	Calendars []calendarPayload `json:"calendars"`
}

// errorResponse converts any failure into the uniform client-error shape.
func errorResponse(err error, now time.Time) Response {
	payload, _ := json.Marshal(errorPayload{
		Error:     err.Error(),
		Timestamp: now.UTC().Format(time.RFC3339),
	})
	return Response{
		Content:  string(payload),
		MimeType: uri.MimeJSON,
		Status:   http.StatusBadRequest,
	}
}

func metadataResponse(discovery *davclient.Discovery) (Response, error) {
	payload := metadataPayload{
		Principal: discovery.Principal,
		Home:      discovery.Home,
		Calendars: make([]calendarPayload, 0, len(discovery.Calendars)),
	}
	for _, cal := range discovery.Calendars {
		payload.Calendars = append(payload.Calendars, calendarPayload{
			ID:         cal.ID,
			Name:       cal.DisplayName,
			Components: cal.Components,
			Href:       cal.Href,
		})
	}
	content, err := json.Marshal(payload)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Content:  string(content),
		MimeType: uri.MimeJSON,
		Status:   http.StatusOK,
	}, nil
}
