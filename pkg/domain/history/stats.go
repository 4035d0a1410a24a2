package history

// RunStats summarizes a plan for the post-run report.
type RunStats struct {
	Commits      int `json:"commits" yaml:"commits"`
	PullRequests int `json:"pull_requests" yaml:"pull_requests"`
	Issues       int `json:"issues" yaml:"issues"`
	FilesChanged int `json:"files_changed" yaml:"files_changed"`
}

// CollectStats tallies the plan's commit, PR, and issue events plus the
// total files-changed count across all events.
func CollectStats(p *Plan) RunStats {
	var stats RunStats
	if p == nil {
		return stats
	}
	for _, ev := range p.Events {
		switch ev.Kind {
		case KindCommit:
			stats.Commits++
		case KindPR:
			stats.PullRequests++
		case KindIssue:
			stats.Issues++
		}
		if ev.FilesChanged > 0 {
			stats.FilesChanged += ev.FilesChanged
		}
	}
	return stats
}
