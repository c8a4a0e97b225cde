package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() []Team {
	return []Team{
		{
			Team: "Desktop Team",
			Keywords: []Keyword{
				{Keyword: "desktop", Weight: 3},
				{Keyword: "windows", Weight: 2},
				{Keyword: "client", Weight: 1},
			},
			Repos: []Repo{
				{Owner: "acme", Repo: "desktop-app", Priority: 2},
				{Owner: "acme", Repo: "desktop-core", Priority: 1},
			},
		},
		{
			Team: "Mobile Team",
			Keywords: []Keyword{
				{Keyword: "mobile", Weight: 3},
				{Keyword: "android", Weight: 2},
				{Keyword: "client", Weight: 1},
			},
			Repos: []Repo{
				{Owner: "acme", Repo: "mobile-app", Priority: 1},
			},
		},
	}
}

func TestRouter_Route_HigherWeightTeamWins(t *testing.T) {
	r := New(testTable())

	// "desktop" (3) + "client" (1) = 4 for Desktop, "client" (1) for Mobile.
	result := r.Route("Desktop client crashes on startup")

	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "Desktop Team", result.Team)
	assert.Equal(t, 4, result.BestMatch.Score)
	assert.ElementsMatch(t, []string{"desktop", "client"}, result.BestMatch.MatchedKeywords)

	// "android" (2) + "mobile" (3) = 5 beats "windows" (2).
	result = r.Route("Windows build of the Android mobile app")

	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "Mobile Team", result.Team)
	assert.Equal(t, 5, result.BestMatch.Score)
}

func TestRouter_Route_TieKeepsEarlierTeam(t *testing.T) {
	r := New(testTable())

	// "client" hits both teams with weight 1 each.
	result := r.Route("client feedback")

	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "Desktop Team", result.Team)
	assert.Equal(t, 1, result.BestMatch.Score)
}

func TestRouter_Route_ZeroScoreIsNoMatch(t *testing.T) {
	r := New(testTable())

	result := r.Route("completely unrelated backend outage")

	assert.Nil(t, result.BestMatch)
	assert.Empty(t, result.AllTeamRepos)
	assert.Empty(t, result.Team)
}

func TestRouter_Route_MatchingIsCaseInsensitiveSubstring(t *testing.T) {
	r := New(testTable())

	// Substring match, no word boundary: "DESKTOPS" contains "desktop".
	result := r.Route("DESKTOPS are slow")

	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "Desktop Team", result.Team)
}

func TestRouter_Route_BestRepoHasLowestPriority(t *testing.T) {
	table := testTable()
	r := New(table)

	result := r.Route("desktop rendering bug")

	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "desktop-core", result.BestMatch.Repo)

	// The full team repo list is returned for fan-out, in config order.
	require.Len(t, result.AllTeamRepos, 2)
	assert.Equal(t, "desktop-app", result.AllTeamRepos[0].Repo)

	// The configured table must not be reordered by routing.
	assert.Equal(t, 2, table[0].Repos[0].Priority)
	assert.Equal(t, "desktop-app", table[0].Repos[0].Repo)
}
