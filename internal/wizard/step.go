package wizard

import (
	"errors"
	"fmt"
)

// StepID identifies a wizard step ("basic", "pricing", ...).
type StepID string

// FieldKind tells a renderer how to collect and parse a field.
type FieldKind int

const (
	KindText FieldKind = iota
	KindMultiline
	KindNumber
	KindBool
	KindDate
	KindChoice
	KindList
)

// Field describes one draft field collected by a step.
type Field struct {
	Name        string
	Label       string
	Kind        FieldKind
	Options     []string // allowed values for KindChoice
	Placeholder string
	Optional    bool
}

// ValidateFunc maps a draft to field errors (field name to message).
// It must not modify the draft.
type ValidateFunc func(draft map[string]any) map[string]string

// Step is one stage of a wizard. Steps are immutable once the controller is built.
type Step struct {
	ID       StepID
	Label    string
	Fields   []Field
	Validate ValidateFunc
}

// FieldNames returns the names of the fields the step collects.
func (s Step) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

func (s Step) owns(field string) bool {
	for _, f := range s.Fields {
		if f.Name == field {
			return true
		}
	}
	return false
}

// Transition lists where a step may go. Final steps have no Next and
// leave only via Submit.
type Transition struct {
	Next  StepID
	Prev  StepID
	Final bool
}

// NoValidation is the validator for steps without fields (e.g. review).
func NoValidation(map[string]any) map[string]string { return nil }

var (
	// ErrNoSteps is returned when a wizard is built without steps.
	ErrNoSteps = errors.New("wizard has no steps")
)

// buildTransitions checks steps and derives the linear transition table.
func buildTransitions(steps []Step) (map[StepID]Transition, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	table := make(map[StepID]Transition, len(steps))
	for i, s := range steps {
		if s.ID == "" {
			return nil, fmt.Errorf("step %d has no ID", i)
		}
		if _, dup := table[s.ID]; dup {
			return nil, fmt.Errorf("duplicate step ID %q", s.ID)
		}
		if s.Validate == nil {
			return nil, fmt.Errorf("step %q has no validator", s.ID)
		}

		t := Transition{Prev: s.ID, Final: i == len(steps)-1}
		if i > 0 {
			t.Prev = steps[i-1].ID
		}
		if !t.Final {
			t.Next = steps[i+1].ID
		}
		table[s.ID] = t
	}
	return table, nil
}
