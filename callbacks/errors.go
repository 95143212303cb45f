package callbacks

import (
	"fmt"
	"strings"
)

// ChoiceOutOfRangeError indicates a selection index outside the valid bound.
// It is returned synchronously from the setter so UI code can surface inline
// feedback before any resubmission.
type ChoiceOutOfRangeError struct {
	Index int
	Count int
}

func (e *ChoiceOutOfRangeError) Error() string {
	return fmt.Sprintf("choice index %d out of range [0, %d)", e.Index, e.Count)
}

// InvalidChoiceError indicates a selection value that is not one of the
// server-declared options.
type InvalidChoiceError struct {
	Value   string
	Choices []string
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("invalid choice %q: valid choices are [%s]", e.Value, strings.Join(e.Choices, ", "))
}

// InputNotFoundError indicates an attempt to write an input slot the
// callback does not declare.
type InputNotFoundError struct {
	Type Type
	Name string // empty when the default slot was requested
}

func (e *InputNotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s has no input named %s", e.Type, e.Name)
	}
	return fmt.Sprintf("%s has no input slots", e.Type)
}
