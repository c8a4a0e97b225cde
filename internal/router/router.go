// Package router maps free ticket text to the team and repository set
// that should analyze it, using a weighted keyword table. Routing is a
// pure function over an immutable configuration value; callers own
// logging and the fallback to a default team when nothing matches.
package router

import (
	"sort"
	"strings"
)

// Keyword is one weighted routing keyword of a team.
type Keyword struct {
	Keyword string `yaml:"keyword"`
	Weight  int    `yaml:"weight"`
}

// Repo is one candidate repository of a team. Lower priority values
// win when picking the single best repository.
type Repo struct {
	Owner    string `yaml:"owner"`
	Repo     string `yaml:"repo"`
	Priority int    `yaml:"priority"`
}

// Team groups keywords and repositories for routing purposes only.
type Team struct {
	Team     string    `yaml:"team"`
	Keywords []Keyword `yaml:"keywords"`
	Repos    []Repo    `yaml:"repos"`
}

// Match describes the winning team and its highest-priority repo.
type Match struct {
	Owner           string
	Repo            string
	Team            string
	MatchedKeywords []string
	Score           int
}

// Result is the full routing outcome. BestMatch is nil when no team
// scored a single keyword hit; AllTeamRepos then is empty and Team is
// the empty string.
type Result struct {
	BestMatch    *Match
	AllTeamRepos []Repo
	Team         string
}

// Router scores ticket text against a fixed team table.
type Router struct {
	table []Team
}

// New builds a Router over the given table. The table is treated as
// immutable; the Router never modifies it.
func New(table []Team) *Router {
	return &Router{table: table}
}

// Route picks the team with the strictly greatest accumulated keyword
// weight for the given text. Matching is case-insensitive and
// substring-based. Ties keep the team that appears earlier in the
// table. A total score of zero yields no match.
func (r *Router) Route(text string) Result {
	textLower := strings.ToLower(text)

	var (
		best     *Match
		bestTeam *Team
		maxScore int
	)

	for i := range r.table {
		team := &r.table[i]

		score := 0

		var matched []string

		for _, kw := range team.Keywords {
			if strings.Contains(textLower, strings.ToLower(kw.Keyword)) {
				score += kw.Weight
				matched = append(matched, kw.Keyword)
			}
		}

		// Strict comparison: earlier teams win ties, and a zero score
		// never produces a match.
		if score > maxScore {
			maxScore = score
			bestTeam = team

			selected := topPriorityRepo(team.Repos)
			best = &Match{
				Owner:           selected.Owner,
				Repo:            selected.Repo,
				Team:            team.Team,
				MatchedKeywords: matched,
				Score:           score,
			}
		}
	}

	if best == nil {
		return Result{}
	}

	repos := make([]Repo, len(bestTeam.Repos))
	copy(repos, bestTeam.Repos)

	return Result{
		BestMatch:    best,
		AllTeamRepos: repos,
		Team:         bestTeam.Team,
	}
}

// topPriorityRepo returns the repo with the lowest priority value
// without mutating the configured slice.
func topPriorityRepo(repos []Repo) Repo {
	if len(repos) == 0 {
		return Repo{}
	}

	sorted := make([]Repo, len(repos))
	copy(sorted, repos)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	return sorted[0]
}
