package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// placeholderPattern matches a {{name}} token. Names are plain identifiers;
// this is deliberately not a template language — no conditionals, no loops.
var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// RenderTemplate substitutes each {{name}} token with the string form of the
// corresponding value. The scan is a single left-to-right pass: a substituted
// value that itself contains {{...}} syntax is never re-expanded. Tokens whose
// name has no entry in values are left verbatim.
func RenderTemplate(template string, values map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := token[2 : len(token)-2]
		value, ok := values[name]
		if !ok {
			return token
		}
		return Stringify(value)
	})
}

// TemplatePlaceholders returns the distinct variable names referenced by the
// template, in first-seen order.
func TemplatePlaceholders(template string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			names = append(names, match[1])
		}
	}
	return names
}

// Stringify converts a variable value to its natural textual form. JSON
// numbers arrive as float64; integral values render without a decimal part.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", v)
	}
}
