package grammar

import (
	"strconv"
	"strings"

	"jarvis/pkg/jarvistypes"
)

const (
	zoomStep = 0.1
)

var advancedRules = []Rule{
	{
		Name:    "search on platform",
		Pattern: rule(`search\s+(?:for\s+)?(.+)\s+on\s+(.+)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return command(jarvistypes.KindSmartSearch, "", map[string]any{
				"query":    m[1],
				"platform": strings.ToLower(m[2]),
			})
		},
	},
	{
		Name:    "music search",
		Pattern: rule(`(?:play|find|search)\s+(?:song|music|songs)\s+(.+)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return command(jarvistypes.KindSmartSearch, "", map[string]any{"query": m[1], "platform": "youtube"})
		},
	},
	{
		Name:    "youtube search",
		Pattern: rule(`(?:search\s+)?youtube\s+(?:for\s+)?(.+)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return openAndSearch("youtube", m[1])
		},
	},
	{
		Name:    "google search",
		Pattern: rule(`(?:search\s+)?google\s+(?:for\s+)?(.+)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return openAndSearch("google", m[1])
		},
	},
	{
		Name:    "summarize page",
		Pattern: rule(`summari[sz]e\s+(?:this\s+|the\s+)?page`),
		Build:   fixed(jarvistypes.KindAIAssisted, "contentSummary"),
	},
	{
		Name:    "translate page",
		Pattern: rule(`translate\s+(?:this\s+|the\s+)?page\s+(?:to|into)\s+(.+)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return command(jarvistypes.KindAIAssisted, "translatePage", map[string]any{"targetLanguage": m[1]})
		},
	},
	{
		Name:    "find similar",
		Pattern: rule(`find\s+similar(?:\s+to)?\s+(.+)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return command(jarvistypes.KindAIAssisted, "findSimilar", map[string]any{"query": m[1]})
		},
	},
	{
		Name:    "bookmark page",
		Pattern: rule(`bookmark\s+(?:this\s+)?page(?:\s+as\s+(.+))?`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			params := map[string]any{}
			if m[1] != "" {
				params["name"] = m[1]
			}
			return command(jarvistypes.KindAIAssisted, "smartBookmark", params)
		},
	},
	{
		Name:    "click element",
		Pattern: rule(`click\s+(?:on\s+)?(.+)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return command(jarvistypes.KindWebAutomation, "clickElement", map[string]any{"selector": m[1]})
		},
	},
	{
		Name:    "screenshot",
		Pattern: rule(`take\s+(?:a\s+)?screenshot`),
		Build:   fixed(jarvistypes.KindWebAutomation, "takeScreenshot"),
	},
	{
		Name:    "research topic",
		Pattern: rule(`research\s+(.+)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return multiTab(
				searchURL("google", m[1]),
				searchURL("wikipedia", m[1]),
				searchURL("youtube", m[1]),
			)
		},
	},
	{
		Name:    "amazon shopping",
		Pattern: rule(`(?:shop|buy|find|search)\s+(?:for\s+)?(.+)\s+on\s+amazon`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return openAndSearch("amazon", m[1])
		},
	},
	{
		Name:    "watch",
		Pattern: rule(`watch\s+(.+)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return openAndSearch("youtube", m[1])
		},
	},
	{
		Name:    "learn topic",
		Pattern: rule(`learn\s+(?:about\s+)?(.+)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return multiTab(
				searchURL("wikipedia", m[1]),
				searchURL("youtube", m[1]+" tutorial"),
				searchURL("google", m[1]+" guide"),
			)
		},
	},
	{
		Name:    "zoom",
		Pattern: rule(`zoom\s+(in|out|to\s+(\d+(?:\.\d+)?)\s*%)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			level := 1.0
			switch strings.ToLower(m[1]) {
			case "in":
				level += zoomStep
			case "out":
				level -= zoomStep
			default:
				percent, _ := strconv.ParseFloat(m[2], 64)
				level = percent / 100
			}
			return command(jarvistypes.KindBrowser, "zoom", map[string]any{"level": level})
		},
	},
	{
		Name:    "media control",
		Pattern: rule(`(play|pause|stop)\s+(?:the\s+)?(?:media|video|music)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return command(jarvistypes.KindMedia, strings.ToLower(m[1]), nil)
		},
	},
	{
		Name:    "media volume",
		Pattern: rule(`(?:media|video)\s+volume\s+(?:to\s+)?(\d+)\s*%?`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			level, _ := strconv.Atoi(m[1])
			return command(jarvistypes.KindMedia, "volume", map[string]any{"level": level})
		},
	},
}
