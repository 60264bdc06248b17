package hotcar

import (
	"regexp"
	"strconv"
	"strings"

	"metro-status-backend/config"
	"metro-status-backend/internal/social"
)

var (
	nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	digitRunRe = regexp.MustCompile(`(\d+)`)
	spaceRunRe = regexp.MustCompile(`\s+`)
	seriesRe   = regexp.MustCompile(`[1-6]000 SERIES`)
)

// Line colors, with the word forms reporters use for them.
var colorWords = map[string][]string{
	"RED":    {"RD", "RL", "RED"},
	"BLUE":   {"BL", "BLUE"},
	"GREEN":  {"GR", "GL", "GREEN"},
	"YELLOW": {"YL", "YELLOW"},
	"ORANGE": {"OL", "ORANGE"},
}

// Candidate is the structured content extracted from one post.
type Candidate struct {
	Cars   []string // distinct 4-digit numbers found in the text
	Colors []string // line colors mentioned
}

// Extractor parses free-text posts into candidate hot car reports.
type Extractor struct {
	ownAccount    string
	authority     string
	excludedWords map[string]struct{}
	carRanges     map[string][2]int
	wordToColor   map[string]string
}

// NewExtractor builds an extractor from the tracker configuration.
func NewExtractor(cfg *config.HotCarsConfig) *Extractor {
	excluded := make(map[string]struct{}, len(cfg.ExcludedWords))
	for _, w := range cfg.ExcludedWords {
		excluded[strings.ToUpper(w)] = struct{}{}
	}

	wordToColor := make(map[string]string)
	for color, words := range colorWords {
		for _, w := range words {
			wordToColor[w] = color
		}
	}

	return &Extractor{
		ownAccount:    strings.ToUpper(cfg.OwnAccount),
		authority:     strings.ToUpper(cfg.AuthorityAccount),
		excludedWords: excluded,
		carRanges:     cfg.CarRanges,
		wordToColor:   wordToColor,
	}
}

// Preprocess normalizes post text for extraction: uppercase, handles other
// than the authority's stripped (a handle's digits must not be mistaken
// for a car number), punctuation to whitespace, digit runs isolated as
// standalone tokens, whitespace collapsed, and generation/series phrases
// removed since they produce false-positive 4-digit matches.
func (e *Extractor) Preprocess(text string) string {
	text = strings.ToUpper(text)

	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if strings.HasPrefix(w, "@") && w != "@"+e.authority {
			continue
		}
		kept = append(kept, w)
	}
	text = strings.Join(kept, " ")

	text = nonAlnumRe.ReplaceAllString(text, " ")
	text = digitRunRe.ReplaceAllString(text, " $1 ")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = seriesRe.ReplaceAllString(text, "")
	return text
}

// Extract parses a post's text into a candidate report.
func (e *Extractor) Extract(text string) Candidate {
	pp := e.Preprocess(text)

	seen := make(map[string]struct{})
	var cars []string
	for _, num := range digitRunRe.FindAllString(pp, -1) {
		if len(num) != 4 {
			continue
		}
		if _, dup := seen[num]; dup {
			continue
		}
		seen[num] = struct{}{}
		cars = append(cars, num)
	}

	var colors []string
	for _, w := range strings.Fields(pp) {
		if color, ok := e.wordToColor[w]; ok {
			colors = append(colors, color)
		}
	}

	return Candidate{Cars: cars, Colors: colors}
}

// Valid reports whether a post and its candidate qualify as a hot car
// report. Ambiguous posts (zero or multiple car numbers) are dropped, not
// guessed at; no notification is the safe default.
func (e *Extractor) Valid(post social.Post, c Candidate) bool {
	if strings.ToUpper(post.UserHandle) == e.ownAccount {
		return false
	}
	if post.IsRepost {
		return false
	}

	if len(c.Cars) != 1 {
		return false
	}

	carStr := c.Cars[0]
	carNum, err := strconv.Atoi(carStr)
	if err != nil {
		return false
	}

	bounds, ok := e.carRanges[carStr[:1]]
	if !ok {
		return false
	}
	if carNum < bounds[0] || carNum > bounds[1] {
		return false
	}

	for _, w := range strings.Fields(e.Preprocess(post.Text)) {
		if _, excluded := e.excludedWords[w]; excluded {
			return false
		}
	}

	return true
}

// CarNumber returns the single validated car number of a candidate.
func (c Candidate) CarNumber() int {
	if len(c.Cars) != 1 {
		return 0
	}
	n, _ := strconv.Atoi(c.Cars[0])
	return n
}

// Color returns the report's line color, or "NONE" when zero or several
// colors are mentioned.
func (c Candidate) Color() string {
	if len(c.Colors) == 1 {
		return c.Colors[0]
	}
	return "NONE"
}
