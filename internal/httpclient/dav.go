package httpclient

import (
	"context"

	"github.com/cyp0633/calbridge/caldav"
)

// Propfind performs a PROPFIND request and returns per-resource property
// maps keyed by href.
func (w *Wrapper) Propfind(ctx context.Context, target string, depth int, props []caldav.PropRequest) (map[string]caldav.ResourceProps, error) {
	body, err := w.roundTrip(ctx, "PROPFIND", target, depth, caldav.BuildPropfind(props))
	if err != nil {
		return nil, err
	}
	resources := caldav.ParsePropfindProps(body)
	w.logger.Debug("PROPFIND parsed", "target", target, "resources", len(resources))
	return resources, nil
}

// CalendarQuery performs a calendar-query REPORT against target.
func (w *Wrapper) CalendarQuery(ctx context.Context, target string, props []caldav.PropRequest, filter *caldav.Filter) ([]caldav.ResourceResult, error) {
	if len(props) == 0 {
		props = caldav.DefaultQueryProps
	}
	body, err := w.roundTrip(ctx, "REPORT", target, 1, caldav.BuildReport(filter, props, ""))
	if err != nil {
		return nil, err
	}
	results := caldav.ParseMultiStatus(body)
	w.logger.Debug("REPORT parsed", "target", target, "results", len(results))
	return results, nil
}

// Multiget performs a calendar-multiget REPORT for an explicit list of
// hrefs.
func (w *Wrapper) Multiget(ctx context.Context, target string, hrefs []string, props []caldav.PropRequest) ([]caldav.ResourceResult, error) {
	if len(props) == 0 {
		props = caldav.DefaultQueryProps
	}
	body, err := w.roundTrip(ctx, "REPORT", target, 1, caldav.BuildMultiget(hrefs, props))
	if err != nil {
		return nil, err
	}
	return caldav.ParseMultiStatus(body), nil
}
