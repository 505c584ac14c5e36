package uri

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// ParsedIdentifier is the result of matching an identifier against the
// catalog: the winning template and its extracted, percent-decoded
// variables.
type ParsedIdentifier struct {
	TemplateName string
	Variables    map[string]string
	Template     *ResourceTemplate
}

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z]+)\}`)

// pathRegexps holds one compiled pattern per generically-matched template.
// The principal placeholder captures non-greedily across path separators;
// every other placeholder captures exactly one segment.
var pathRegexps = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(templates))
	for i := range templates {
		t := &templates[i]
		path := t.path()
		var b strings.Builder
		b.WriteString("^")
		last := 0
		for _, loc := range placeholderRe.FindAllStringSubmatchIndex(path, -1) {
			b.WriteString(regexp.QuoteMeta(path[last:loc[0]]))
			name := path[loc[2]:loc[3]]
			if name == "principal" {
				b.WriteString(`(?P<principal>.+?)`)
			} else {
				b.WriteString(`(?P<` + name + `>[^/?]+)`)
			}
			last = loc[1]
		}
		b.WriteString(regexp.QuoteMeta(path[last:]))
		b.WriteString("$")
		m[t.Name] = regexp.MustCompile(b.String())
	}
	return m
}()

// prioritized returns the catalog in matching order: templates carrying
// reserved literal path segments first, then query-string templates with
// more placeholders before those with fewer, then the rest. Ties keep
// declaration order. The shapes overlap (a bare three-segment path also
// fits the single-object template), so the order is load-bearing.
func prioritized() []*ResourceTemplate {
	out := make([]*ResourceTemplate, len(templates))
	for i := range templates {
		out[i] = &templates[i]
	}
	rank := func(t *ResourceTemplate) int {
		if hasLiteralSegment(t) {
			return 0
		}
		if len(t.queryVars()) > 0 {
			return 1
		}
		return 2
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank(out[i]), rank(out[j])
		if ri != rj {
			return ri < rj
		}
		if ri == 1 {
			return len(out[i].queryVars()) > len(out[j].queryVars())
		}
		return false
	})
	return out
}

func hasLiteralSegment(t *ResourceTemplate) bool {
	for _, seg := range strings.Split(t.path(), "/") {
		if seg == "" {
			continue
		}
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			return true
		}
	}
	return false
}

// Parse matches an identifier against the catalog and extracts its
// variables. Fails with ErrMalformedInput when the scheme prefix is
// missing, ErrNoMatch when no template's shape fits, or a
// *ValidationError when a shape fits but the variable values do not.
func Parse(identifier string) (*ParsedIdentifier, error) {
	if !strings.HasPrefix(identifier, Scheme) {
		return nil, ErrMalformedInput
	}
	rest := identifier[len(Scheme):]

	path := rest
	query := ""
	hasQuery := false
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		path, query = rest[:i], rest[i+1:]
		hasQuery = true
	}

	for _, t := range prioritized() {
		vars, ok := matchPath(t, path)
		if !ok {
			continue
		}
		if !matchQuery(t, query, hasQuery, vars) {
			continue
		}

		problems, err := Validate(t.Name, vars)
		if err != nil {
			return nil, err
		}
		if len(problems) > 0 {
			return nil, &ValidationError{Template: t.Name, Problems: problems}
		}
		return &ParsedIdentifier{TemplateName: t.Name, Variables: vars, Template: t}, nil
	}
	return nil, ErrNoMatch
}

// matchPath attempts a structural match of the path portion and extracts
// percent-decoded variables. Two templates are carved out for bespoke
// literal-suffix matching: the generic compiled pattern cannot express
// "this catch-all variable excludes a specific trailing literal".
func matchPath(t *ResourceTemplate, path string) (map[string]string, bool) {
	switch t.Name {
	case "calendar-tasks":
		// {principal}/{calendarId}/VTODO with a multi-segment principal.
		rest, ok := strings.CutSuffix(path, "/VTODO")
		if !ok {
			return nil, false
		}
		slash := strings.LastIndexByte(rest, '/')
		if slash <= 0 || slash == len(rest)-1 {
			return nil, false
		}
		return decodeVars(map[string]string{
			"principal":  rest[:slash],
			"calendarId": rest[slash+1:],
		})
	case "metadata-calendars":
		// {principal}/_meta/calendars, the remainder wholly the principal.
		principal, ok := strings.CutSuffix(path, "/_meta/calendars")
		if !ok || principal == "" {
			return nil, false
		}
		return decodeVars(map[string]string{"principal": principal})
	}

	re := pathRegexps[t.Name]
	match := re.FindStringSubmatch(path)
	if match == nil {
		return nil, false
	}
	vars := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		vars[name] = match[i]
	}
	return decodeVars(vars)
}

func decodeVars(vars map[string]string) (map[string]string, bool) {
	for name, value := range vars {
		decoded, err := url.PathUnescape(value)
		if err != nil {
			return nil, false
		}
		vars[name] = decoded
	}
	return vars, true
}

// matchQuery checks the query portion against the template's declared
// placeholders and merges present values into vars. A template without
// query placeholders rejects any query string and vice versa; a query key
// the template does not declare is a structural non-match, giving lower
// priority candidates a chance. Absent declared keys stay unset here;
// whether that is acceptable is validation's call.
func matchQuery(t *ResourceTemplate, query string, hasQuery bool, vars map[string]string) bool {
	declared := t.queryVars()
	if len(declared) == 0 {
		return !hasQuery
	}
	if !hasQuery {
		return false
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return false
	}
	isDeclared := func(key string) bool {
		for _, name := range declared {
			if name == key {
				return true
			}
		}
		return false
	}
	for key := range values {
		if !isDeclared(key) {
			return false
		}
	}
	for _, name := range declared {
		if v := values.Get(name); v != "" {
			vars[name] = v
		}
	}
	return true
}
