package drift

// Summary aggregates the results of many resources, as shown by list views.
type Summary struct {
	Total         int              `json:"total" yaml:"total"`
	ByStatus      map[Status]int   `json:"byStatus" yaml:"byStatus"`
	DriftedFields int              `json:"driftedFields" yaml:"driftedFields"`
	ByCategory    map[Category]int `json:"byCategory" yaml:"byCategory"`
	Structural    int              `json:"structural" yaml:"structural"` // uncategorized additions/removals
	Stale         int              `json:"stale" yaml:"stale"`
}

// Summarize counts statuses and drifted fields across results. Every status
// appears in ByStatus, with zero when unused.
func Summarize(results map[string]Result) Summary {
	summary := Summary{
		Total:      len(results),
		ByStatus:   make(map[Status]int, len(AllStatuses)),
		ByCategory: make(map[Category]int, 3),
	}
	for _, s := range AllStatuses {
		summary.ByStatus[s] = 0
	}

	for _, r := range results {
		summary.ByStatus[r.Status]++
		if r.IsStale {
			summary.Stale++
		}
		for _, f := range r.DriftedFields {
			summary.DriftedFields++
			if f.Category == CategoryNone {
				summary.Structural++
				continue
			}
			summary.ByCategory[f.Category]++
		}
	}
	return summary
}
