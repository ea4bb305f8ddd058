// Package knowledge holds the audit's source of truth: the schema columns,
// categorical vocabularies, and workflow rules loaded from the CRM's
// configuration files. The base is built once and read-only afterwards; every
// validation pass receives the same handle.
package knowledge

import "sort"

type WorkflowRule struct {
	Stage  string
	Status string
}

type Base struct {
	// SchemaColumns maps a logical object (sheet) to the union of its human
	// labels and machine field names.
	SchemaColumns map[string]map[string]struct{}

	ValidOutcomes map[string]struct{}
	ValidStages   map[string]struct{}
	ValidStatuses map[string]struct{}

	// WorkflowRules maps an outcome to the stage/status pair it implies.
	WorkflowRules map[string]WorkflowRule

	GlobalConstants map[string]string

	// MissingSchema/MissingSettings record that a configuration source could
	// not be found. Loading still succeeds; the caller surfaces the gap as an
	// Architecture issue and the affected passes degrade to no-ops.
	MissingSchema   bool
	MissingSettings bool
}

func NewBase() *Base {
	return &Base{
		SchemaColumns:   make(map[string]map[string]struct{}),
		ValidOutcomes:   make(map[string]struct{}),
		ValidStages:     make(map[string]struct{}),
		ValidStatuses:   make(map[string]struct{}),
		WorkflowRules:   make(map[string]WorkflowRule),
		GlobalConstants: make(map[string]string),
	}
}

func (b *Base) addColumn(object, column string) {
	if object == "" || column == "" {
		return
	}
	cols, ok := b.SchemaColumns[object]
	if !ok {
		cols = make(map[string]struct{})
		b.SchemaColumns[object] = cols
	}
	cols[column] = struct{}{}
}

// AllColumns returns the union of every object's columns, sorted so callers
// iterate deterministically.
func (b *Base) AllColumns() []string {
	seen := make(map[string]struct{})
	for _, cols := range b.SchemaColumns {
		for col := range cols {
			seen[col] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for col := range seen {
		out = append(out, col)
	}
	sort.Strings(out)
	return out
}

func (b *Base) HasObject(name string) bool {
	_, ok := b.SchemaColumns[name]
	return ok
}

func (b *Base) ObjectColumns(name string) map[string]struct{} {
	return b.SchemaColumns[name]
}

func (b *Base) IsValidOutcome(v string) bool {
	_, ok := b.ValidOutcomes[v]
	return ok
}

func (b *Base) IsValidStage(v string) bool {
	_, ok := b.ValidStages[v]
	return ok
}

func (b *Base) IsValidStatus(v string) bool {
	_, ok := b.ValidStatuses[v]
	return ok
}

// DivergentRules returns workflow-rule outcomes that are absent from the
// outcomes vocabulary. Divergence is reportable, not an internal error.
func (b *Base) DivergentRules() []string {
	if len(b.ValidOutcomes) == 0 {
		return nil
	}
	var out []string
	for outcome := range b.WorkflowRules {
		if _, ok := b.ValidOutcomes[outcome]; !ok {
			out = append(out, outcome)
		}
	}
	sort.Strings(out)
	return out
}
