package davclient

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/cyp0633/calbridge/internal/httpclient"
)

// NewHTTPClient builds the production Client: PROPFIND and REPORT over
// HTTP against baseURL, with basic-auth credentials injected per request.
// An empty username leaves requests anonymous; a nil logger discards
// debug output.
func NewHTTPClient(baseURL, username, password string, logger *slog.Logger) (Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL %q: %w", baseURL, err)
	}
	transport := httpclient.NewBasicAuthTransport(username, password, nil, logger)
	wrapper, err := httpclient.New(&http.Client{Transport: transport}, *base, logger)
	if err != nil {
		return nil, err
	}
	return wrapper, nil
}
