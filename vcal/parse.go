package vcal

import (
	"strconv"
	"strings"
)

// Parse reads a line-oriented iCalendar document into components. Only
// the three recognized top-level kinds open a component; everything else
// is ignored. Components that close without a UID are dropped.
func Parse(document string) []Component {
	var components []Component
	var current *Component

	for _, line := range logicalLines(document) {
		if kind, ok := strings.CutPrefix(line, "BEGIN:"); ok {
			if isKnownComponent(kind) {
				current = &Component{Type: kind, Extra: make(map[string]string)}
			}
			continue
		}
		if kind, ok := strings.CutPrefix(line, "END:"); ok {
			if current != nil && kind == current.Type {
				if current.UID != "" {
					components = append(components, *current)
				}
				current = nil
			}
			continue
		}
		if current == nil {
			continue
		}
		name, params, value, ok := splitProperty(line)
		if !ok {
			continue
		}
		applyProperty(current, name, params, value)
	}
	return components
}

// logicalLines unfolds soft-wrapped continuation lines (leading space or
// tab joins to the previous line, whitespace removed), then splits on
// line terminators, skipping blanks.
func logicalLines(document string) []string {
	raw := strings.Split(strings.ReplaceAll(document, "\r\n", "\n"), "\n")
	var lines []string
	for _, line := range raw {
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if len(lines) > 0 {
				lines[len(lines)-1] += line[1:]
			}
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func isKnownComponent(kind string) bool {
	for _, known := range KnownComponents {
		if kind == known {
			return true
		}
	}
	return false
}

// splitProperty breaks "NAME;PARAM=VALUE;...:value" into its parts. The
// name is uppercased, parameter keys are uppercased too.
func splitProperty(line string) (name string, params map[string]string, value string, ok bool) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return "", nil, "", false
	}
	head, value := line[:colon], line[colon+1:]

	parts := strings.Split(head, ";")
	name = strings.ToUpper(strings.TrimSpace(parts[0]))
	if name == "" {
		return "", nil, "", false
	}
	params = make(map[string]string)
	for _, p := range parts[1:] {
		k, v, found := strings.Cut(p, "=")
		if !found {
			continue
		}
		params[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return name, params, value, true
}

func applyProperty(c *Component, name string, params map[string]string, value string) {
	switch name {
	case "UID":
		c.UID = value
	case "SUMMARY":
		c.Summary = Unescape(value)
	case "DESCRIPTION":
		c.Description = Unescape(value)
	case "LOCATION":
		c.Location = Unescape(value)
	case "DTSTART":
		c.Start = annotateTimezone(value, params)
	case "DTEND", "DUE":
		c.End = annotateTimezone(value, params)
	case "CATEGORIES":
		c.Categories = splitCategories(value)
	case "STATUS":
		c.Status = strings.ToUpper(value)
	case "PRIORITY":
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			c.Priority = n
		}
	default:
		c.Extra[strings.ToLower(name)] = Unescape(value)
	}
}

// annotateTimezone keeps the TZID parameter around by appending it
// parenthetically; the filter's date parsing strips it again.
func annotateTimezone(value string, params map[string]string) string {
	if tzid := params["TZID"]; tzid != "" {
		return value + "(" + tzid + ")"
	}
	return value
}

// splitCategories splits on commas not preceded by a backslash, trimming
// and unescaping each entry.
func splitCategories(value string) []string {
	var cats []string
	start := 0
	flush := func(end int) {
		if s := strings.TrimSpace(value[start:end]); s != "" {
			cats = append(cats, Unescape(s))
		}
	}
	for i := 0; i < len(value); i++ {
		if value[i] == ',' && (i == 0 || value[i-1] != '\\') {
			flush(i)
			start = i + 1
		}
	}
	flush(len(value))
	return cats
}

// Unescape reverses RFC 5545 text escaping: \n, \, and \; and \\ become
// their literal characters.
func Unescape(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] != '\\' || i == len(value)-1 {
			b.WriteByte(value[i])
			continue
		}
		i++
		switch value[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		case ',':
			b.WriteByte(',')
		case ';':
			b.WriteByte(';')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(value[i])
		}
	}
	return b.String()
}
