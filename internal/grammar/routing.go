package grammar

import (
	"math/rand/v2"
	"strings"
)

// Chooser picks an index in [0, n). *rand.Rand satisfies it.
type Chooser interface {
	IntN(n int) int
}

type route struct {
	keywords  []string
	platforms []string
}

// routes is checked in order. Keywords match as substrings, so "songs" counts as "song".
var routes = []route{
	{keywords: []string{"song", "music", "listen"}, platforms: []string{"youtube", "spotify"}},
	{keywords: []string{"video", "watch", "tutorial"}, platforms: []string{"youtube"}},
	{keywords: []string{"buy", "price", "purchase"}, platforms: []string{"amazon"}},
	{keywords: []string{"code", "programming", "error"}, platforms: []string{"stackoverflow", "github"}},
	{keywords: []string{"people", "profile", "connect"}, platforms: []string{"linkedin"}},
	{keywords: []string{"news", "discussion", "opinion"}, platforms: []string{"reddit"}},
}

const defaultPlatform = "google"

type globalChooser struct{}

func (globalChooser) IntN(n int) int { return rand.IntN(n) }

// RoutePlatform picks the search platform best suited to query.
// Groups with two platforms choose between them with rnd; a nil rnd uses the global source.
func RoutePlatform(query string, rnd Chooser) string {
	if rnd == nil {
		rnd = globalChooser{}
	}
	lower := strings.ToLower(query)
	for _, r := range routes {
		for _, kw := range r.keywords {
			if !strings.Contains(lower, kw) {
				continue
			}
			if len(r.platforms) == 1 {
				return r.platforms[0]
			}
			return r.platforms[rnd.IntN(len(r.platforms))]
		}
	}
	return defaultPlatform
}
