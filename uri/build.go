package uri

import (
	"fmt"
	"net/url"
	"strings"
)

// Build constructs an identifier from a template name and variables. The
// variables are validated first; every placeholder must then resolve, or
// a *MissingVariablesError lists the leftovers. Path placeholders are
// percent-encoded per segment, query placeholders per query value.
func Build(templateName string, vars map[string]string) (string, error) {
	t, ok := GetTemplate(templateName)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, templateName)
	}

	problems, err := Validate(templateName, vars)
	if err != nil {
		return "", err
	}
	if len(problems) > 0 {
		return "", &ValidationError{Template: templateName, Problems: problems}
	}

	inQuery := make(map[string]bool)
	for _, name := range t.queryVars() {
		inQuery[name] = true
	}

	identifier := t.URITemplate
	for _, spec := range t.Variables {
		value, present := vars[spec.Name]
		if !present || value == "" {
			continue
		}
		escaped := url.PathEscape(value)
		if inQuery[spec.Name] {
			escaped = url.QueryEscape(value)
		}
		identifier = strings.ReplaceAll(identifier, "{"+spec.Name+"}", escaped)
	}

	if rest := placeholderRe.FindAllStringSubmatch(identifier, -1); len(rest) > 0 {
		names := make([]string, 0, len(rest))
		for _, m := range rest {
			names = append(names, m[1])
		}
		return "", &MissingVariablesError{Template: templateName, Names: names}
	}
	return identifier, nil
}
