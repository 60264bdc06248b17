package hotcar

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"metro-status-backend/config"
	"metro-status-backend/internal/social"
)

func testConfig() *config.HotCarsConfig {
	return &config.HotCarsConfig{
		OwnAccount:       "MetroHotCars",
		AuthorityAccount: "wmata",
		ExcludedWords:    []string{"series"},
		CarRanges: map[string][2]int{
			"1": {1000, 1299},
			"2": {2000, 2075},
			"3": {3000, 3289},
			"4": {4000, 4099},
			"5": {5000, 5191},
			"6": {6000, 6183},
		},
	}
}

func TestExtractor_Preprocess(t *testing.T) {
	e := NewExtractor(testConfig())

	testCases := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "punctuation and case",
			text:     "Hot car 1234!",
			expected: "HOT CAR 1234",
		},
		{
			name:     "digits glued to a word are isolated",
			text:     "hotcar1023 is cooking",
			expected: "HOTCAR 1023 IS COOKING",
		},
		{
			name:     "foreign handles are stripped",
			text:     "@dcmetro hotcar 1023",
			expected: "HOTCAR 1023",
		},
		{
			name:     "authority handle survives",
			text:     "@wmata hot car 3123",
			expected: "WMATA HOT CAR 3123",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, e.Preprocess(tc.text))
		})
	}
}

func TestExtractor_Extract(t *testing.T) {
	e := NewExtractor(testConfig())

	c := e.Extract("BL car 3123 or maybe 3124, saw 3123 again")
	assert.Equal(t, []string{"3123", "3124"}, c.Cars)
	assert.Equal(t, []string{"BLUE"}, c.Colors)

	// A handle's digits must not read as a car number.
	c = e.Extract("@metro1234 red line car 5042 is roasting")
	assert.Equal(t, []string{"5042"}, c.Cars)
	assert.Equal(t, []string{"RED"}, c.Colors)

	// Generation phrases are not car numbers.
	c = e.Extract("5000 series cars run hot, esp car 5042")
	assert.Equal(t, []string{"5042"}, c.Cars)

	c = e.Extract("so hot on the orange line today")
	assert.Empty(t, c.Cars)
	assert.Equal(t, []string{"ORANGE"}, c.Colors)
}

func TestExtractor_Valid(t *testing.T) {
	e := NewExtractor(testConfig())

	testCases := []struct {
		name  string
		post  social.Post
		valid bool
	}{
		{
			name:  "single car in range",
			post:  social.Post{UserHandle: "alice", Text: "hot car 3123 on the red line"},
			valid: true,
		},
		{
			name:  "no car number",
			post:  social.Post{UserHandle: "alice", Text: "so hot on the red line"},
			valid: false,
		},
		{
			name:  "two car numbers is ambiguous",
			post:  social.Post{UserHandle: "alice", Text: "hot car 3123 or 3124"},
			valid: false,
		},
		{
			name:  "number outside the revenue range",
			post:  social.Post{UserHandle: "alice", Text: "hot car 1500"},
			valid: false,
		},
		{
			name:  "leading digit with no range",
			post:  social.Post{UserHandle: "alice", Text: "hot car 7001"},
			valid: false,
		},
		{
			name:  "repost",
			post:  social.Post{UserHandle: "alice", Text: "hot car 3123", IsRepost: true},
			valid: false,
		},
		{
			name:  "own post",
			post:  social.Post{UserHandle: "metrohotcars", Text: "hot car 3123"},
			valid: false,
		},
		{
			name:  "excluded word",
			post:  social.Post{UserHandle: "alice", Text: "the series with car 3123"},
			valid: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := e.Extract(tc.post.Text)
			assert.Equal(t, tc.valid, e.Valid(tc.post, c))
		})
	}
}

func TestCandidate_Color(t *testing.T) {
	assert.Equal(t, "RED", Candidate{Colors: []string{"RED"}}.Color())
	assert.Equal(t, "NONE", Candidate{}.Color())
	assert.Equal(t, "NONE", Candidate{Colors: []string{"RED", "BLUE"}}.Color())
}

func TestCandidate_CarNumber(t *testing.T) {
	assert.Equal(t, 3123, Candidate{Cars: []string{"3123"}}.CarNumber())
	assert.Equal(t, 0, Candidate{}.CarNumber())
	assert.Equal(t, 0, Candidate{Cars: []string{"3123", "3124"}}.CarNumber())
}

func TestExtractor_Reply(t *testing.T) {
	e := NewExtractor(testConfig())

	got := e.Reply("alice", Candidate{Cars: []string{"3123"}, Colors: []string{"RED"}})
	assert.Equal(t, "@wmata Red line car 3123 is a #wmata #hotcar HT @alice", got)

	got = e.Reply("alice", Candidate{Cars: []string{"3123"}})
	assert.Equal(t, "@wmata Car 3123 is a #wmata #hotcar HT @alice", got)

	// Ambiguous candidates get no acknowledgement.
	assert.Empty(t, e.Reply("alice", Candidate{}))
	assert.Empty(t, e.Reply("alice", Candidate{Cars: []string{"3123", "3124"}}))
	assert.Empty(t, e.Reply("alice", Candidate{Cars: []string{"7001"}}))
}
