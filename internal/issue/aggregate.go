package issue

// Summary holds the aggregate view handed to report renderers.
type Summary struct {
	Total       int
	BySeverity  map[Severity]int
	ByCategory  map[Category]int
	HealthScore int
}

// Penalty weights for the health score. The floors keep purely advisory
// findings from dragging a project below the "needs attention" band.
const (
	criticalPenalty = 20
	highPenalty     = 5
	perIssuePenalty = 1

	floorWithHigh = 50
	floorAdvisory = 75
)

// Aggregate counts issues and derives the health score. More or worse issues
// never increase the score.
func Aggregate(issues []Issue) Summary {
	s := Summary{
		BySeverity: make(map[Severity]int),
		ByCategory: make(map[Category]int),
	}

	for _, is := range issues {
		s.Total++
		s.BySeverity[is.Severity]++
		s.ByCategory[is.Category]++
	}

	s.HealthScore = healthScore(s)
	return s
}

func healthScore(s Summary) int {
	critical := s.BySeverity[SeverityCritical]
	high := s.BySeverity[SeverityHigh]

	switch {
	case critical > 0:
		return clamp(100-critical*criticalPenalty-high*highPenalty-s.Total*perIssuePenalty, 0)
	case high > 0:
		return clamp(100-high*highPenalty-s.Total*perIssuePenalty, floorWithHigh)
	case s.Total > 0:
		return clamp(100-s.Total*perIssuePenalty, floorAdvisory)
	default:
		return 100
	}
}

func clamp(score, floor int) int {
	if score < floor {
		return floor
	}
	return score
}
