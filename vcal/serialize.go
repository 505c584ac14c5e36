package vcal

import (
	"bytes"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/emersion/go-ical"
)

const (
	prodID = "-//calbridge//caldav resource bridge//EN"
	crlf   = "\r\n"
)

// dateScrub removes everything a DTSTART/DTEND value picked up beyond the
// compact form, in particular the parenthetical timezone annotation added
// at parse time.
var dateScrub = regexp.MustCompile(`[^0-9TZ]`)

// Serialize renders components back into an iCalendar document wrapped in
// a fixed VCALENDAR header and footer, CRLF-terminated.
func Serialize(components []Component) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR" + crlf)
	b.WriteString("VERSION:2.0" + crlf)
	b.WriteString("PRODID:" + prodID + crlf)

	for _, c := range components {
		kind := c.Type
		if kind == "" {
			kind = inferType(c)
		}
		b.WriteString("BEGIN:" + kind + crlf)
		writeProp(&b, "UID", c.UID, false)
		writeProp(&b, "SUMMARY", c.Summary, true)
		writeProp(&b, "DTSTART", dateScrub.ReplaceAllString(c.Start, ""), false)
		writeProp(&b, "DTEND", dateScrub.ReplaceAllString(c.End, ""), false)
		writeProp(&b, "DESCRIPTION", c.Description, true)
		writeProp(&b, "LOCATION", c.Location, true)
		writeProp(&b, "STATUS", c.Status, false)
		if c.Priority != 0 {
			writeProp(&b, "PRIORITY", strconv.Itoa(c.Priority), false)
		}
		if len(c.Categories) > 0 {
			escaped := make([]string, len(c.Categories))
			for i, cat := range c.Categories {
				escaped[i] = Escape(cat)
			}
			writeProp(&b, "CATEGORIES", strings.Join(escaped, ","), false)
		}
		for _, name := range sortedExtraNames(c.Extra) {
			writeProp(&b, strings.ToUpper(name), c.Extra[name], true)
		}
		b.WriteString("END:" + kind + crlf)
	}

	b.WriteString("END:VCALENDAR" + crlf)
	return b.String()
}

// sortedExtraNames orders extension property names so serialization is
// deterministic.
func sortedExtraNames(extra map[string]string) []string {
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeProp(b *strings.Builder, name, value string, escape bool) {
	if value == "" {
		return
	}
	if escape {
		value = Escape(value)
	}
	b.WriteString(name + ":" + value + crlf)
}

// inferType picks a component kind when none was stored: a start time
// suggests an event, a bare status a task, anything else a journal entry.
func inferType(c Component) string {
	if c.Start != "" {
		return CompEvent
	}
	if c.Status != "" {
		return CompTodo
	}
	return CompJournal
}

// Escape applies RFC 5545 text escaping. Backslash goes first so the
// escapes it introduces are not escaped again.
func Escape(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, ";", `\;`)
	value = strings.ReplaceAll(value, ",", `\,`)
	value = strings.ReplaceAll(value, "\n", `\n`)
	return value
}

// EmptyDocument returns a minimal, valid calendar document used when an
// upstream query yields no calendar data at all.
func EmptyDocument() string {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		// The calendar above is static; the encoder cannot reject it.
		return "BEGIN:VCALENDAR" + crlf + "VERSION:2.0" + crlf + "PRODID:" + prodID + crlf + "END:VCALENDAR" + crlf
	}
	return buf.String()
}
