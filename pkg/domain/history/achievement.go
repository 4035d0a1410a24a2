package history

// Achievement is a static catalog entry. The engine forwards requested
// achievements to the generator as narrative hints; it does not verify
// after a run that a plan actually earned them.
type Achievement struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
	Color       string `json:"color" yaml:"color"`
}

var catalog = []Achievement{
	{
		ID:          "frequent-merges",
		Name:        "Frequent Merges",
		Description: "Merge activity appears regularly throughout the history",
		Icon:        "git-merge",
		Color:       "purple",
	},
	{
		ID:          "co-authored-commits",
		Name:        "Pair Programmer",
		Description: "Commits carry collaborative co-authorship trailers",
		Icon:        "users",
		Color:       "blue",
	},
	{
		ID:          "rapid-issue-turnaround",
		Name:        "Rapid Responder",
		Description: "Issues are opened and resolved within short windows",
		Icon:        "zap",
		Color:       "yellow",
	},
	{
		ID:          "release-tagger",
		Name:        "Release Tagger",
		Description: "Version tags punctuate the history at steady intervals",
		Icon:        "tag",
		Color:       "green",
	},
	{
		ID:          "branch-gardener",
		Name:        "Branch Gardener",
		Description: "Feature branches are created, used, and merged back",
		Icon:        "git-branch",
		Color:       "teal",
	},
}

// Catalog returns a copy of the fixed achievement catalog.
func Catalog() []Achievement {
	out := make([]Achievement, len(catalog))
	copy(out, catalog)
	return out
}

// LookupAchievement returns the catalog entry for id, if any.
func LookupAchievement(id string) (Achievement, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// KnownAchievement reports whether id belongs to the catalog.
func KnownAchievement(id string) bool {
	_, ok := LookupAchievement(id)
	return ok
}
