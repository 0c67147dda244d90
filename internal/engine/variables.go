package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"recipe-runner/backend/pkg/models"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// booleanStrings are the string forms accepted for boolean variables,
// compared case-insensitively.
var booleanStrings = map[string]bool{
	"true": true, "false": true, "1": true, "0": true, "yes": true, "no": true,
}

// ValidateVariables checks the supplied values against the recipe's variable
// definitions and returns the effective value map (supplied plus defaults for
// absent optional variables) along with every violation found. Violations are
// collected, not fail-fast, so the caller sees the complete picture at once.
// Presence checks run against the raw supplied map, before defaulting.
func ValidateVariables(defs []models.VariableDefinition, supplied map[string]any) (map[string]any, []string) {
	var errs []string

	declared := make(map[string]models.VariableDefinition, len(defs))
	for _, def := range defs {
		declared[def.Name] = def
	}

	for _, def := range defs {
		if _, ok := supplied[def.Name]; !ok && def.Default == nil {
			errs = append(errs, fmt.Sprintf("Missing required variable: %s", def.Name))
		}
	}

	var unknown []string
	for name := range supplied {
		if _, ok := declared[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		errs = append(errs, fmt.Sprintf("Unknown variables: %s", strings.Join(unknown, ", ")))
	}

	for _, def := range defs {
		value, ok := supplied[def.Name]
		if !ok || value == nil {
			continue
		}
		if s, isStr := value.(string); isStr && s == "" {
			continue
		}
		if msg := checkKind(def, value); msg != "" {
			errs = append(errs, msg)
		}
	}

	effective := make(map[string]any, len(supplied)+len(defs))
	for name, value := range supplied {
		effective[name] = value
	}
	for _, def := range defs {
		if _, ok := effective[def.Name]; !ok && def.Default != nil {
			effective[def.Name] = def.Default
		}
	}

	return effective, errs
}

// checkKind validates a single non-empty value against its declared kind and
// returns an error message, or "" when the value is acceptable.
func checkKind(def models.VariableDefinition, value any) string {
	switch def.Kind {
	case models.VariableKindSelect:
		if len(def.Options) == 0 {
			return ""
		}
		s := Stringify(value)
		for _, opt := range def.Options {
			if s == opt {
				return ""
			}
		}
		return fmt.Sprintf("Invalid value for %s: must be one of %s", def.Name, strings.Join(def.Options, ", "))

	case models.VariableKindNumber:
		switch v := value.(type) {
		case float64, float32, int, int32, int64:
			return ""
		case string:
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return fmt.Sprintf("Invalid number for %s: %v", def.Name, value)
			}
			return ""
		default:
			return fmt.Sprintf("Invalid number for %s: %v", def.Name, value)
		}

	case models.VariableKindBoolean:
		switch v := value.(type) {
		case bool:
			return ""
		case string:
			if booleanStrings[strings.ToLower(v)] {
				return ""
			}
			return fmt.Sprintf("Invalid boolean for %s: %v", def.Name, value)
		default:
			return fmt.Sprintf("Invalid boolean for %s: %v", def.Name, value)
		}

	case models.VariableKindDate:
		if s, ok := value.(string); ok && !datePattern.MatchString(s) {
			return fmt.Sprintf("Invalid date for %s: %v (expected YYYY-MM-DD format)", def.Name, value)
		}
		return ""

	default:
		// string and unrecognized kinds carry no constraint
		return ""
	}
}
