// Package grammar turns free-form voice or typed input into a StructuredCommand.
//
// Rules are ordered data. Parse consults scroll phrases first, then the enhanced, advanced
// and basic rule tables in that order, and the first matching rule wins.
package grammar

import (
	"regexp"
	"strings"

	"jarvis/internal/catalog"
	"jarvis/internal/scroll"
	"jarvis/pkg/jarvistypes"
)

// Rule maps one phrase pattern to a command builder.
// Build receives the submatches with surrounding whitespace trimmed.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Build   func(m []string) jarvistypes.StructuredCommand
}

// Tier is a named, ordered rule table.
type Tier struct {
	Name  string
	Rules []Rule
}

var stopScrollPattern = rule(`(?:stop|halt|cancel)\s+(?:auto\s*)?scroll(?:ing)?`)

// Tiers returns the rule tables after the scroll tier, in evaluation order.
func Tiers() []Tier {
	return []Tier{
		{Name: "enhanced", Rules: enhancedRules},
		{Name: "advanced", Rules: advancedRules},
		{Name: "basic", Rules: basicRules},
	}
}

// Parse returns the command for input, or nil when no rule matches.
func Parse(input string) *jarvistypes.StructuredCommand {
	cmd, _ := Match(input)
	return cmd
}

// Match is Parse that also reports the name of the matching rule.
func Match(input string) (*jarvistypes.StructuredCommand, string) {
	clean := strings.TrimSpace(input)
	if clean == "" {
		return nil, ""
	}

	if strings.Contains(strings.ToLower(clean), "scroll") {
		if stopScrollPattern.MatchString(clean) {
			return &jarvistypes.StructuredCommand{
				Kind:       jarvistypes.KindScroll,
				Action:     scroll.ActionStop,
				Confidence: jarvistypes.ConfidenceSpecific,
			}, "stop scroll"
		}
		if sc := scroll.ParseScrollCommand(clean); sc != nil {
			cmd := scroll.ToStructured(*sc)
			return &cmd, "scroll phrase"
		}
	}

	for _, tier := range Tiers() {
		for _, r := range tier.Rules {
			m := r.Pattern.FindStringSubmatch(clean)
			if m == nil {
				continue
			}
			for i := range m {
				m[i] = strings.TrimSpace(m[i])
			}
			cmd := r.Build(m)
			if cmd.Confidence == 0 {
				cmd.Confidence = jarvistypes.ConfidenceSpecific
			}
			return &cmd, r.Name
		}
	}
	return nil, ""
}

// ParseWithFallback returns the matching command, or a general query carrying the trimmed input.
func ParseWithFallback(input string) jarvistypes.StructuredCommand {
	if cmd := Parse(input); cmd != nil {
		return *cmd
	}
	return jarvistypes.StructuredCommand{
		Kind:       jarvistypes.KindGeneral,
		Parameters: map[string]any{"query": strings.TrimSpace(input)},
		Confidence: jarvistypes.ConfidenceGeneral,
	}
}

// rule compiles an anchored, case-insensitive pattern.
func rule(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + pattern + `$`)
}

func command(kind jarvistypes.CommandKind, action string, params map[string]any) jarvistypes.StructuredCommand {
	return jarvistypes.StructuredCommand{
		Kind:       kind,
		Action:     action,
		Parameters: params,
		Confidence: jarvistypes.ConfidenceSpecific,
	}
}

func openAndSearch(platform, query string) jarvistypes.StructuredCommand {
	return jarvistypes.StructuredCommand{
		Kind:       jarvistypes.KindOpenAndSearch,
		Target:     strings.ToLower(platform),
		Parameters: map[string]any{"query": query},
		Confidence: jarvistypes.ConfidenceSpecific,
	}
}

func multiTab(urls ...string) jarvistypes.StructuredCommand {
	return command(jarvistypes.KindMultiTab, "", map[string]any{"tabs": urls})
}

// searchURL builds a search URL for a catalog platform.
func searchURL(platform, query string) string {
	p, ok := catalog.MustDefault().Platform(platform)
	if !ok {
		return ""
	}
	return p.SearchURL(query, "", "")
}
