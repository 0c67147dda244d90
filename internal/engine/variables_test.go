package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"recipe-runner/backend/pkg/models"
)

func defs(vs ...models.VariableDefinition) []models.VariableDefinition { return vs }

func TestValidateVariables_AllDefaultsEmptySupplied(t *testing.T) {
	schema := defs(
		models.VariableDefinition{Name: "limit", Kind: models.VariableKindNumber, Label: "Limit", Default: float64(10)},
		models.VariableDefinition{Name: "region", Kind: models.VariableKindString, Label: "Region", Default: "North"},
	)

	effective, errs := ValidateVariables(schema, map[string]any{})

	assert.Empty(t, errs)
	assert.Equal(t, map[string]any{"limit": float64(10), "region": "North"}, effective)
}

func TestValidateVariables_MissingRequired(t *testing.T) {
	schema := defs(
		models.VariableDefinition{Name: "region", Kind: models.VariableKindString, Label: "Region"},
		models.VariableDefinition{Name: "limit", Kind: models.VariableKindNumber, Label: "Limit"},
	)

	_, errs := ValidateVariables(schema, map[string]any{"region": "North"})

	assert.Equal(t, []string{"Missing required variable: limit"}, errs)
}

func TestValidateVariables_UnknownAggregatedSorted(t *testing.T) {
	schema := defs(models.VariableDefinition{Name: "region", Kind: models.VariableKindString, Label: "Region"})

	_, errs := ValidateVariables(schema, map[string]any{
		"region": "North",
		"zeta":   1,
		"alpha":  2,
	})

	assert.Equal(t, []string{"Unknown variables: alpha, zeta"}, errs)
}

func TestValidateVariables_NumberKind(t *testing.T) {
	schema := defs(models.VariableDefinition{Name: "n", Kind: models.VariableKindNumber, Label: "N"})

	for _, good := range []any{"42", "3.14", float64(7), 7} {
		_, errs := ValidateVariables(schema, map[string]any{"n": good})
		assert.Empty(t, errs, "value %v should pass", good)
	}

	_, errs := ValidateVariables(schema, map[string]any{"n": "abc"})
	assert.Equal(t, []string{"Invalid number for n: abc"}, errs)
}

func TestValidateVariables_BooleanKind(t *testing.T) {
	schema := defs(models.VariableDefinition{Name: "b", Kind: models.VariableKindBoolean, Label: "B"})

	for _, good := range []any{"YES", "no", "1", "0", true, false} {
		_, errs := ValidateVariables(schema, map[string]any{"b": good})
		assert.Empty(t, errs, "value %v should pass", good)
	}

	_, errs := ValidateVariables(schema, map[string]any{"b": "maybe"})
	assert.Equal(t, []string{"Invalid boolean for b: maybe"}, errs)
}

func TestValidateVariables_DateKind(t *testing.T) {
	schema := defs(models.VariableDefinition{Name: "d", Kind: models.VariableKindDate, Label: "D"})

	_, errs := ValidateVariables(schema, map[string]any{"d": "2024-01-15"})
	assert.Empty(t, errs)

	_, errs = ValidateVariables(schema, map[string]any{"d": "01/15/2024"})
	assert.Equal(t, []string{"Invalid date for d: 01/15/2024 (expected YYYY-MM-DD format)"}, errs)
}

func TestValidateVariables_SelectKind(t *testing.T) {
	schema := defs(models.VariableDefinition{
		Name: "region", Kind: models.VariableKindSelect, Label: "Region",
		Options: []string{"North", "South"},
	})

	_, errs := ValidateVariables(schema, map[string]any{"region": "North"})
	assert.Empty(t, errs)

	_, errs = ValidateVariables(schema, map[string]any{"region": "Mars"})
	assert.Equal(t, []string{"Invalid value for region: must be one of North, South"}, errs)
}

func TestValidateVariables_CollectsAllViolations(t *testing.T) {
	schema := defs(
		models.VariableDefinition{Name: "n", Kind: models.VariableKindNumber, Label: "N"},
		models.VariableDefinition{Name: "d", Kind: models.VariableKindDate, Label: "D"},
		models.VariableDefinition{Name: "missing", Kind: models.VariableKindString, Label: "M"},
	)

	_, errs := ValidateVariables(schema, map[string]any{
		"n":       "abc",
		"d":       "nope",
		"unknown": 1,
	})

	assert.Len(t, errs, 4)
	assert.Contains(t, errs, "Missing required variable: missing")
	assert.Contains(t, errs, "Unknown variables: unknown")
	assert.Contains(t, errs, "Invalid number for n: abc")
	assert.Contains(t, errs, "Invalid date for d: nope (expected YYYY-MM-DD format)")
}

func TestValidateVariables_EmptyValueSkipsKindCheck(t *testing.T) {
	schema := defs(models.VariableDefinition{Name: "n", Kind: models.VariableKindNumber, Label: "N"})

	// present but empty satisfies the presence rule and skips type checking
	_, errs := ValidateVariables(schema, map[string]any{"n": ""})
	assert.Empty(t, errs)

	_, errs = ValidateVariables(schema, map[string]any{"n": nil})
	assert.Empty(t, errs)
}

func TestValidateVariables_DefaultsDoNotMaskPresenceErrors(t *testing.T) {
	schema := defs(
		models.VariableDefinition{Name: "opt", Kind: models.VariableKindString, Label: "Opt", Default: "x"},
		models.VariableDefinition{Name: "req", Kind: models.VariableKindString, Label: "Req"},
	)

	effective, errs := ValidateVariables(schema, map[string]any{})

	assert.Equal(t, []string{"Missing required variable: req"}, errs)
	// defaults are still applied to the effective map
	assert.Equal(t, "x", effective["opt"])
}
