package issue

import (
	"fmt"
	"sort"
)

// Severity orders findings from most to least urgent. The numeric order is
// the sort order used by reports.
type Severity int

const (
	SeverityCritical Severity = iota
	SeverityHigh
	SeverityMedium
	SeverityLow
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityLow:
		return "LOW"
	case SeverityInfo:
		return "INFO"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

type Category int

const (
	CategorySchema Category = iota
	CategorySettings
	CategoryCodeQuality
	CategorySecurity
	CategoryPerformance
	CategoryErrorHandling
	CategoryArchitecture
	CategoryMaintainability
)

func (c Category) String() string {
	switch c {
	case CategorySchema:
		return "Schema"
	case CategorySettings:
		return "Settings"
	case CategoryCodeQuality:
		return "Code Quality"
	case CategorySecurity:
		return "Security"
	case CategoryPerformance:
		return "Performance"
	case CategoryErrorHandling:
		return "Error Handling"
	case CategoryArchitecture:
		return "Architecture"
	case CategoryMaintainability:
		return "Maintainability"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Categories lists every category exactly once, in report order.
func Categories() []Category {
	return []Category{
		CategorySchema,
		CategorySettings,
		CategoryCodeQuality,
		CategorySecurity,
		CategoryPerformance,
		CategoryErrorHandling,
		CategoryArchitecture,
		CategoryMaintainability,
	}
}

const maxContextLen = 100

// Issue is a single audit finding. Line 0 means the finding applies to the
// whole file (or the whole project when File is a pseudo-path like "PROJECT").
type Issue struct {
	File           string   `json:"file"`
	Line           int      `json:"line"`
	Severity       Severity `json:"-"`
	Category       Category `json:"-"`
	Message        string   `json:"message"`
	Context        string   `json:"context"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// New builds an Issue with the context trimmed to a displayable length.
func New(file string, line int, sev Severity, cat Category, msg, context, recommendation string) Issue {
	if len(context) > maxContextLen {
		context = context[:maxContextLen] + "..."
	}
	return Issue{
		File:           file,
		Line:           line,
		Severity:       sev,
		Category:       cat,
		Message:        msg,
		Context:        context,
		Recommendation: recommendation,
	}
}

// SortStable orders issues by severity, then file, then line, then message.
// The message tie-break keeps the order deterministic when one line carries
// several findings.
func SortStable(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Severity != issues[j].Severity {
			return issues[i].Severity < issues[j].Severity
		}
		if issues[i].File != issues[j].File {
			return issues[i].File < issues[j].File
		}
		if issues[i].Line != issues[j].Line {
			return issues[i].Line < issues[j].Line
		}
		return issues[i].Message < issues[j].Message
	})
}
