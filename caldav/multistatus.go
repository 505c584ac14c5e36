package caldav

import (
	"strings"

	"github.com/beevik/etree"
)

// ResourceResult is one per-resource block of a multistatus response.
type ResourceResult struct {
	Href         string
	Status       string
	Etag         string
	CalendarData string
}

// ResourceProps holds the property values a PROPFIND can return per
// resource. Absent properties stay zero.
type ResourceProps struct {
	DisplayName          string
	CurrentUserPrincipal string
	CalendarHomeSet      string
	IsCalendar           bool
	Components           []string
	Etag                 string
}

// ParseMultiStatus extracts per-resource results from a multistatus
// document. This is a lenient, structural extraction: namespace prefixes
// are ignored and malformed input yields an empty list rather than an
// error.
func ParseMultiStatus(document string) []ResourceResult {
	results := []ResourceResult{}
	root := parseRoot(document, "multistatus")
	if root == nil {
		return results
	}

	for _, resp := range childrenNamed(root, "response") {
		result := ResourceResult{}
		if href := firstNamed(resp, "href"); href != nil {
			result.Href = strings.TrimSpace(href.Text())
		}
		if propstat := firstNamed(resp, "propstat"); propstat != nil {
			if status := firstNamed(propstat, "status"); status != nil {
				result.Status = strings.TrimSpace(status.Text())
			}
			if prop := firstNamed(propstat, "prop"); prop != nil {
				if etag := firstNamed(prop, "getetag"); etag != nil {
					result.Etag = strings.TrimSpace(etag.Text())
				}
				if data := firstNamed(prop, "calendar-data"); data != nil {
					result.CalendarData = data.Text()
				}
			}
		}
		results = append(results, result)
	}
	return results
}

// ParsePropfindProps extracts per-resource property maps from a PROPFIND
// multistatus response, keyed by href. Only propstat blocks with a 200
// status contribute. As lenient as ParseMultiStatus.
func ParsePropfindProps(document string) map[string]ResourceProps {
	resources := make(map[string]ResourceProps)
	root := parseRoot(document, "multistatus")
	if root == nil {
		return resources
	}

	for _, resp := range childrenNamed(root, "response") {
		href := ""
		if h := firstNamed(resp, "href"); h != nil {
			href = strings.TrimSpace(h.Text())
		}
		if href == "" {
			continue
		}

		props := ResourceProps{}
		for _, propstat := range childrenNamed(resp, "propstat") {
			status := firstNamed(propstat, "status")
			if status == nil || !strings.Contains(status.Text(), "200") {
				continue
			}
			prop := firstNamed(propstat, "prop")
			if prop == nil {
				continue
			}

			if name := firstNamed(prop, "displayname"); name != nil {
				props.DisplayName = strings.TrimSpace(name.Text())
			}
			if etag := firstNamed(prop, "getetag"); etag != nil {
				props.Etag = strings.TrimSpace(etag.Text())
			}
			if cup := firstNamed(prop, "current-user-principal"); cup != nil {
				if h := firstNamed(cup, "href"); h != nil {
					props.CurrentUserPrincipal = strings.TrimSpace(h.Text())
				}
			}
			if chs := firstNamed(prop, "calendar-home-set"); chs != nil {
				if h := firstNamed(chs, "href"); h != nil {
					props.CalendarHomeSet = strings.TrimSpace(h.Text())
				}
			}
			if rt := firstNamed(prop, "resourcetype"); rt != nil {
				props.IsCalendar = firstNamed(rt, "calendar") != nil
			}
			if set := firstNamed(prop, "supported-calendar-component-set"); set != nil {
				for _, comp := range childrenNamed(set, "comp") {
					if name := comp.SelectAttrValue("name", ""); name != "" {
						props.Components = append(props.Components, name)
					}
				}
			}
		}
		resources[href] = props
	}
	return resources
}

// parseRoot parses a document and returns its root if the root's local
// tag matches, nil otherwise.
func parseRoot(document, tag string) *etree.Element {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(document); err != nil {
		return nil
	}
	root := doc.Root()
	if root == nil || root.Tag != tag {
		return nil
	}
	return root
}

// childrenNamed returns direct children whose local tag matches,
// whatever their namespace prefix.
func childrenNamed(e *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range e.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}

func firstNamed(e *etree.Element, tag string) *etree.Element {
	for _, child := range e.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}
