// Package graph resolves call targets across the extracted corpus and flags
// never-called functions. Resolution is by name only; one call site may fan
// out to several same-named definitions, which is accepted imprecision.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/extract"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/issue"
)

// Function-name fragments that mark indirectly invoked roles: platform
// triggers, menu and UI entry points, template helpers. Matching is
// case-insensitive substring, same as the audit has always done.
var orphanAllowlist = []string{
	"onopen", "ondopen", "onget", "onpost", "onedit", "onformsubmit",
	"doget", "dopost",
	"menu", "show", "display", "render", "init", "setup", "install",
	"click", "change", "submit", "callback", "handler",
	"evaluate", "gethtml", "gettemplate",
}

// orphanComplexityThreshold keeps trivial helpers out of the orphan report;
// only functions above it are worth a finding.
const orphanComplexityThreshold = 10

// Graph is the resolved call graph over every extracted function.
type Graph struct {
	// byName indexes all definitions sharing a name, across files.
	byName map[string][]*extract.FunctionRecord
	// all is every record in deterministic order (file, then start line).
	all []*extract.FunctionRecord
}

// Build wires CalledBy edges across the file set. The records inside files
// are mutated in place; callers pass working copies, never cached originals.
func Build(files []*extract.SourceFile) *Graph {
	g := &Graph{byName: make(map[string][]*extract.FunctionRecord)}

	for _, sf := range files {
		for i := range sf.Functions {
			fn := &sf.Functions[i]
			g.byName[fn.Name] = append(g.byName[fn.Name], fn)
			g.all = append(g.all, fn)
		}
	}
	sort.SliceStable(g.all, func(i, j int) bool {
		if g.all[i].File != g.all[j].File {
			return g.all[i].File < g.all[j].File
		}
		return g.all[i].StartLine < g.all[j].StartLine
	})

	for _, caller := range g.all {
		callerID := caller.ID()
		for _, target := range caller.Calls {
			for _, callee := range g.byName[target] {
				if callee.ID() == callerID {
					continue
				}
				callee.CalledBy = append(callee.CalledBy, callerID)
			}
		}
	}

	for _, fn := range g.all {
		sort.Slice(fn.CalledBy, func(i, j int) bool {
			if fn.CalledBy[i].File != fn.CalledBy[j].File {
				return fn.CalledBy[i].File < fn.CalledBy[j].File
			}
			if fn.CalledBy[i].StartLine != fn.CalledBy[j].StartLine {
				return fn.CalledBy[i].StartLine < fn.CalledBy[j].StartLine
			}
			return fn.CalledBy[i].Name < fn.CalledBy[j].Name
		})
	}

	return g
}

// Definitions returns all records named name, in deterministic order.
func (g *Graph) Definitions(name string) []*extract.FunctionRecord {
	defs := g.byName[name]
	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].File != defs[j].File {
			return defs[i].File < defs[j].File
		}
		return defs[i].StartLine < defs[j].StartLine
	})
	return defs
}

// Functions returns every record in deterministic order.
func (g *Graph) Functions() []*extract.FunctionRecord {
	return g.all
}

// FunctionCount reports the corpus size for run statistics.
func (g *Graph) FunctionCount() int {
	return len(g.all)
}

// Orphans returns Low Maintainability issues for functions nothing calls.
// Entry points, private-by-convention names, and constructors are skipped,
// as is anything at or below the complexity threshold.
func (g *Graph) Orphans() []issue.Issue {
	var out []issue.Issue
	for _, fn := range g.all {
		if len(fn.CalledBy) > 0 || fn.ComplexityScore <= orphanComplexityThreshold {
			continue
		}
		if isIndirectlyInvoked(fn.Name) {
			continue
		}
		out = append(out, issue.New(
			fn.File, fn.StartLine,
			issue.SeverityLow, issue.CategoryMaintainability,
			fmt.Sprintf("Function '%s' appears orphaned (never called) with complexity %d", fn.Name, fn.ComplexityScore),
			fmt.Sprintf("Function defined at line %d", fn.StartLine),
			"Verify if this function is needed, add to exports, or remove dead code",
		))
	}
	return out
}

func isIndirectlyInvoked(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "_") || strings.Contains(lower, "constructor") {
		return true
	}
	for _, allow := range orphanAllowlist {
		if strings.Contains(lower, allow) {
			return true
		}
	}
	return false
}
