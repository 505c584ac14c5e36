package vcal

import (
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// The expression filter recognizes exactly three shapes over dotted,
// optionally indexed field paths:
//
//	path == "value"
//	contains(path, "substr")
//	length(path) OP N        with OP one of < > <= >= ==
//
// Anything else is a no-op: the input passes through unfiltered.
var (
	exprEquals   = regexp.MustCompile(`^\s*([A-Za-z_][\w.\[\]-]*)\s*==\s*"([^"]*)"\s*$`)
	exprContains = regexp.MustCompile(`^\s*contains\(\s*([A-Za-z_][\w.\[\]-]*)\s*,\s*"([^"]*)"\s*\)\s*$`)
	exprLength   = regexp.MustCompile(`^\s*length\(\s*([A-Za-z_][\w.\[\]-]*)\s*\)\s*(<=|>=|==|<|>)\s*(\d+)\s*$`)

	pathSegment = regexp.MustCompile(`^([A-Za-z_][\w-]*)((?:\[\d+\])*)$`)
	pathIndex   = regexp.MustCompile(`\[(\d+)\]`)
)

// FilterByExpression evaluates a filter expression against each
// component. An expression matching none of the recognized shapes is
// logged and swallowed, returning the input unchanged.
func FilterByExpression(components []Component, expression string, logger *slog.Logger) []Component {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var predicate func(Component) bool
	switch {
	case exprEquals.MatchString(expression):
		m := exprEquals.FindStringSubmatch(expression)
		predicate = func(c Component) bool {
			v, ok := resolvePath(c, m[1])
			if !ok {
				return false
			}
			s, ok := stringify(v)
			return ok && s == m[2]
		}
	case exprContains.MatchString(expression):
		m := exprContains.FindStringSubmatch(expression)
		predicate = func(c Component) bool {
			v, ok := resolvePath(c, m[1])
			if !ok {
				return false
			}
			s, ok := v.(string)
			return ok && strings.Contains(s, m[2])
		}
	case exprLength.MatchString(expression):
		m := exprLength.FindStringSubmatch(expression)
		n, _ := strconv.Atoi(m[3])
		predicate = func(c Component) bool {
			v, ok := resolvePath(c, m[1])
			if !ok {
				return false
			}
			list, ok := v.([]any)
			if !ok {
				return false
			}
			return compareLength(len(list), m[2], n)
		}
	default:
		logger.Warn("unrecognized filter expression, passing components through",
			"expression", expression)
		return components
	}

	var out []Component
	for _, c := range components {
		if predicate(c) {
			out = append(out, c)
		}
	}
	return out
}

func compareLength(length int, op string, n int) bool {
	switch op {
	case "<":
		return length < n
	case ">":
		return length > n
	case "<=":
		return length <= n
	case ">=":
		return length >= n
	case "==":
		return length == n
	}
	return false
}

// fieldMap projects a component into the value tree paths resolve
// against. Extension properties sit alongside the known fields without
// shadowing them, and also under "extra".
func fieldMap(c Component) map[string]any {
	cats := make([]any, len(c.Categories))
	for i, cat := range c.Categories {
		cats[i] = cat
	}
	extra := make(map[string]any, len(c.Extra))
	for k, v := range c.Extra {
		extra[k] = v
	}

	m := map[string]any{
		"uid":         c.UID,
		"type":        c.Type,
		"summary":     c.Summary,
		"start":       c.Start,
		"end":         c.End,
		"description": c.Description,
		"location":    c.Location,
		"status":      c.Status,
		"priority":    c.Priority,
		"categories":  cats,
		"extra":       extra,
	}
	for k, v := range c.Extra {
		if _, taken := m[k]; !taken {
			m[k] = v
		}
	}
	return m
}

// resolvePath walks a dotted, bracket-indexed path through a component's
// field map. Any unresolved segment short-circuits to absent.
func resolvePath(c Component, path string) (any, bool) {
	var current any = fieldMap(c)
	for _, segment := range strings.Split(path, ".") {
		m := pathSegment.FindStringSubmatch(segment)
		if m == nil {
			return nil, false
		}
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[strings.ToLower(m[1])]
		if !ok {
			return nil, false
		}
		for _, idx := range pathIndex.FindAllStringSubmatch(m[2], -1) {
			list, ok := current.([]any)
			if !ok {
				return nil, false
			}
			i, _ := strconv.Atoi(idx[1])
			if i < 0 || i >= len(list) {
				return nil, false
			}
			current = list[i]
		}
	}
	return current, true
}

func stringify(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case int:
		return strconv.Itoa(x), true
	}
	return "", false
}
