package httpclient

import (
	"io"
	"log/slog"
	"net/http"
)

// BasicAuthTransport is an http.RoundTripper that adds Basic Auth
// credentials to outgoing requests and debug-logs the exchange.
type BasicAuthTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// NewBasicAuthTransport wraps transport with credential injection. A nil
// transport falls back to http.DefaultTransport, a nil logger discards.
func NewBasicAuthTransport(username, password string, transport http.RoundTripper, logger *slog.Logger) *BasicAuthTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &BasicAuthTransport{
		Username:  username,
		Password:  password,
		Transport: transport,
		Logger:    logger,
	}
}

// RoundTrip implements http.RoundTripper. Requests go out anonymously
// when no username is configured.
func (t *BasicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Username != "" {
		req.SetBasicAuth(t.Username, t.Password)
	}
	t.Logger.Debug("outgoing request", "method", req.Method, "url", req.URL.String())

	resp, err := t.Transport.RoundTrip(req)
	if err == nil && resp != nil {
		t.Logger.Debug("incoming response", "status", resp.Status)
	}
	return resp, err
}
