package uri

import (
	"fmt"
	"regexp"
	"strings"
)

// Scheme is the identifier scheme prefix understood by this package.
const Scheme = "caldav://"

// VarType describes how a template variable's value is interpreted.
type VarType int

const (
	TypeString VarType = iota
	TypeDate
	TypeDateTime
)

// VariableSpec declares a single template variable and its constraints.
type VariableSpec struct {
	Name        string
	Description string
	Required    bool
	Type        VarType
	Pattern     string   // validation regex for date/datetime values
	Enum        []string // allowed values, empty means unrestricted
}

// ResourceTemplate is one entry of the fixed resource catalog.
type ResourceTemplate struct {
	Name        string
	URITemplate string
	Variables   []VariableSpec
	MimeType    string
}

const (
	MimeCalendar = "text/calendar"
	MimeJSON     = "application/json"

	// datetimePattern accepts compact and dashed date forms, with an
	// optional time part and trailing Z.
	datetimePattern = `^\d{4}-?\d{2}-?\d{2}(T\d{2}:?\d{2}:?\d{2}Z?)?$`
)

var componentKinds = []string{"VEVENT", "VTODO", "VJOURNAL"}

// templates is the fixed catalog, in declaration order. Matching priority
// is derived from it by prioritized().
var templates = []ResourceTemplate{
	{
		Name:        "calendar-events",
		URITemplate: Scheme + "{principal}/{calendarId}/{comp}?start={start}&end={end}",
		MimeType:    MimeCalendar,
		Variables: []VariableSpec{
			{Name: "principal", Description: "principal path of the calendar owner", Required: true, Type: TypeString},
			{Name: "calendarId", Description: "calendar identifier relative to the calendar home", Required: true, Type: TypeString},
			{Name: "comp", Description: "component kind to list", Required: true, Type: TypeString, Enum: componentKinds},
			{Name: "start", Description: "range start, compact date or date-time", Type: TypeDateTime, Pattern: datetimePattern},
			{Name: "end", Description: "range end, compact date or date-time", Type: TypeDateTime, Pattern: datetimePattern},
		},
	},
	{
		Name:        "calendar-tasks",
		URITemplate: Scheme + "{principal}/{calendarId}/VTODO?cat={cat}",
		MimeType:    MimeCalendar,
		Variables: []VariableSpec{
			{Name: "principal", Description: "principal path of the calendar owner", Required: true, Type: TypeString},
			{Name: "calendarId", Description: "calendar identifier relative to the calendar home", Required: true, Type: TypeString},
			{Name: "cat", Description: "category substring to filter tasks by", Required: true, Type: TypeString},
		},
	},
	{
		Name:        "calendar-object",
		URITemplate: Scheme + "{principal}/{calendarId}/{uid}",
		MimeType:    MimeCalendar,
		Variables: []VariableSpec{
			{Name: "principal", Description: "principal path of the calendar owner", Required: true, Type: TypeString},
			{Name: "calendarId", Description: "calendar identifier relative to the calendar home", Required: true, Type: TypeString},
			{Name: "uid", Description: "UID of a single calendar object", Required: true, Type: TypeString},
		},
	},
	{
		Name:        "calendar-search",
		URITemplate: Scheme + "{principal}/{calendarId}/{comp}?filter={filter}",
		MimeType:    MimeCalendar,
		Variables: []VariableSpec{
			{Name: "principal", Description: "principal path of the calendar owner", Required: true, Type: TypeString},
			{Name: "calendarId", Description: "calendar identifier relative to the calendar home", Required: true, Type: TypeString},
			{Name: "comp", Description: "component kind to search", Required: true, Type: TypeString, Enum: componentKinds},
			{Name: "filter", Description: "expression filter evaluated client-side", Required: true, Type: TypeString},
		},
	},
	{
		Name:        "metadata-calendars",
		URITemplate: Scheme + "{principal}/_meta/calendars",
		MimeType:    MimeJSON,
		Variables: []VariableSpec{
			{Name: "principal", Description: "principal path of the calendar owner", Required: true, Type: TypeString},
		},
	},
}

var templatesByName = func() map[string]*ResourceTemplate {
	m := make(map[string]*ResourceTemplate, len(templates))
	for i := range templates {
		m[templates[i].Name] = &templates[i]
	}
	return m
}()

// GetTemplate looks up a catalog entry by name.
func GetTemplate(name string) (*ResourceTemplate, bool) {
	t, ok := templatesByName[name]
	return t, ok
}

// AllTemplates returns the catalog in declaration order.
func AllTemplates() []ResourceTemplate {
	out := make([]ResourceTemplate, len(templates))
	copy(out, templates)
	return out
}

// path returns the path portion of the template, scheme and query stripped.
func (t *ResourceTemplate) path() string {
	p := strings.TrimPrefix(t.URITemplate, Scheme)
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

// queryVars returns the names of the template's query-string placeholders,
// keyed by query key, in template order.
func (t *ResourceTemplate) queryVars() []string {
	i := strings.IndexByte(t.URITemplate, '?')
	if i < 0 {
		return nil
	}
	var names []string
	for _, pair := range strings.Split(t.URITemplate[i+1:], "&") {
		_, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if strings.HasPrefix(v, "{") && strings.HasSuffix(v, "}") {
			names = append(names, v[1:len(v)-1])
		}
	}
	return names
}

// Validate checks the given variables against the template's declarations.
// Problems accumulate so all of them are reported at once; an empty slice
// means the variables are valid. Never mutates vars.
func Validate(templateName string, vars map[string]string) ([]string, error) {
	t, ok := GetTemplate(templateName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateName)
	}

	var problems []string
	for _, spec := range t.Variables {
		value, present := vars[spec.Name]
		if value == "" {
			present = false
		}

		if spec.Required && !present {
			problems = append(problems, fmt.Sprintf("missing required variable %q", spec.Name))
			continue
		}
		if !present {
			continue
		}

		if (spec.Type == TypeDate || spec.Type == TypeDateTime) && spec.Pattern != "" {
			if matched, _ := regexp.MatchString(spec.Pattern, value); !matched {
				problems = append(problems, fmt.Sprintf("variable %q value %q does not match pattern %s", spec.Name, value, spec.Pattern))
			}
		}

		if len(spec.Enum) > 0 {
			found := false
			for _, allowed := range spec.Enum {
				if value == allowed {
					found = true
					break
				}
			}
			if !found {
				problems = append(problems, fmt.Sprintf("variable %q value %q not allowed, expected one of %s", spec.Name, value, strings.Join(spec.Enum, ", ")))
			}
		}
	}
	return problems, nil
}
