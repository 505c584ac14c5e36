package uri

import (
	"strings"

	"github.com/samber/mo"
)

// FilterParams is the normalized record of client-side filter inputs
// carried by an identifier's variables.
type FilterParams struct {
	Category   string
	UID        string
	Expression string
}

// Component returns the component kind the identifier asks for. The task
// template fixes VTODO as a path literal and declares no comp variable;
// anything else without an explicit comp defaults to VEVENT.
func (p *ParsedIdentifier) Component() string {
	if comp := p.Variables["comp"]; comp != "" {
		return comp
	}
	if p.TemplateName == "calendar-tasks" {
		return "VTODO"
	}
	return "VEVENT"
}

// TimeRange projects the optional start/end variables.
func (p *ParsedIdentifier) TimeRange() (start, end mo.Option[string]) {
	if v := p.Variables["start"]; v != "" {
		start = mo.Some(v)
	}
	if v := p.Variables["end"]; v != "" {
		end = mo.Some(v)
	}
	return start, end
}

// FilterParams projects the category, expression and single-object filter
// keys into one record.
func (p *ParsedIdentifier) FilterParams() FilterParams {
	return FilterParams{
		Category:   p.Variables["cat"],
		UID:        p.Variables["uid"],
		Expression: p.Variables["filter"],
	}
}

// IsMetadata reports whether the identifier addresses discovery metadata
// rather than calendar data.
func (p *ParsedIdentifier) IsMetadata() bool {
	return strings.HasPrefix(p.TemplateName, "metadata-")
}
