package caldav

import (
	"strings"

	"github.com/beevik/etree"
)

// Namespace definitions for CalDAV and WebDAV.
const (
	DAV            = "DAV:"
	CalDAV         = "urn:ietf:params:xml:ns:caldav"
	CalendarServer = "http://calendarserver.org/ns/"
)

// PropRequest names a property to fetch, optionally namespace-qualified.
// An empty namespace means DAV:.
type PropRequest struct {
	Name      string
	Namespace string
}

const compactUTC = "20060102T150405Z"

// DefaultQueryProps are the properties every calendar query asks for.
var DefaultQueryProps = []PropRequest{
	{Name: "getetag"},
	{Name: "calendar-data", Namespace: CalDAV},
}

// BuildCalendarQuery renders a calendar-query REPORT document asking for
// getetag and calendar-data under the options' filter. User-supplied text
// is escaped by the XML writer. An expression filter cannot be pushed to
// the server and is emitted only as an inert comment.
func BuildCalendarQuery(opts QueryOptions) string {
	comment := ""
	if opts.Expression != "" {
		comment = " expression filter evaluated client-side: " +
			strings.ReplaceAll(opts.Expression, "--", "- -") + " "
	}
	return BuildReport(opts.Filter(), DefaultQueryProps, comment)
}

// BuildReport renders a calendar-query REPORT document from an explicit
// filter tree and property list. A non-empty comment is appended verbatim
// as an XML comment.
func BuildReport(filter *Filter, props []PropRequest, comment string) string {
	doc := newDocument()
	root := doc.CreateElement("C:calendar-query")
	addNamespaces(root)

	prop := root.CreateElement("D:prop")
	for _, p := range props {
		prop.CreateElement(qualify(p))
	}

	filterEl := root.CreateElement("C:filter")
	if filter != nil {
		writeFilter(filterEl, *filter)
	}

	if comment != "" {
		root.CreateComment(comment)
	}

	return render(doc)
}

// BuildPropfind renders a PROPFIND document requesting the given
// properties.
func BuildPropfind(props []PropRequest) string {
	doc := newDocument()
	root := doc.CreateElement("D:propfind")
	addNamespaces(root)

	prop := root.CreateElement("D:prop")
	for _, p := range props {
		prop.CreateElement(qualify(p))
	}

	return render(doc)
}

// BuildMultiget renders a calendar-multiget REPORT document for an
// explicit list of resource hrefs.
func BuildMultiget(hrefs []string, props []PropRequest) string {
	doc := newDocument()
	root := doc.CreateElement("C:calendar-multiget")
	addNamespaces(root)

	prop := root.CreateElement("D:prop")
	for _, p := range props {
		prop.CreateElement(qualify(p))
	}
	for _, href := range hrefs {
		root.CreateElement("D:href").SetText(href)
	}

	return render(doc)
}

func newDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	return doc
}

func addNamespaces(root *etree.Element) {
	root.CreateAttr("xmlns:D", DAV)
	root.CreateAttr("xmlns:C", CalDAV)
	root.CreateAttr("xmlns:CS", CalendarServer)
}

func qualify(p PropRequest) string {
	switch p.Namespace {
	case CalDAV:
		return "C:" + p.Name
	case CalendarServer:
		return "CS:" + p.Name
	default:
		return "D:" + p.Name
	}
}

func writeFilter(parent *etree.Element, f Filter) {
	el := parent.CreateElement("C:comp-filter")
	el.CreateAttr("name", f.Component)

	if f.TimeRange != nil {
		tr := el.CreateElement("C:time-range")
		if f.TimeRange.Start != nil {
			tr.CreateAttr("start", f.TimeRange.Start.UTC().Format(compactUTC))
		}
		if f.TimeRange.End != nil {
			tr.CreateAttr("end", f.TimeRange.End.UTC().Format(compactUTC))
		}
	}
	for _, pf := range f.PropFilters {
		pe := el.CreateElement("C:prop-filter")
		pe.CreateAttr("name", pf.Name)
		if pf.TextMatch != nil {
			tm := pe.CreateElement("C:text-match")
			if pf.TextMatch.Negate {
				tm.CreateAttr("negate-condition", "yes")
			}
			tm.SetText(pf.TextMatch.Value)
		}
	}
	for _, child := range f.Children {
		writeFilter(el, child)
	}
}

func render(doc *etree.Document) string {
	doc.Indent(2)
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}
