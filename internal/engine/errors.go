package engine

import (
	"fmt"
	"strings"
)

// ValidationError carries every variable violation found for one execution
// request. No RunRecord is created when validation fails.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("variable validation failed: %s", strings.Join(e.Errors, "; "))
}

// StoreError wraps a failure to persist a RunRecord. Unlike agent failures,
// which are captured into the record, a store failure means the record itself
// could not be written and must surface to the caller.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("run store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
