package grammar

import (
	"strings"

	"jarvis/pkg/jarvistypes"
)

var basicRules = []Rule{
	{
		Name:    "open app",
		Pattern: rule(`(?:open|launch)\s+(.+)`),
		Build:   capture(jarvistypes.KindOpen, "app"),
	},
	{
		Name:    "play",
		Pattern: rule(`(?:play|start)\s+(.+)`),
		Build:   capture(jarvistypes.KindPlay, "query"),
	},
	{
		Name:    "search",
		Pattern: rule(`(?:search|find)\s+(?:for\s+)?(.+)`),
		Build:   capture(jarvistypes.KindSearch, "query"),
	},
	{
		Name:    "generate image",
		Pattern: rule(`(?:generate|create)\s+(?:an?\s+)?image\s+(?:of\s+)?(.+)`),
		Build:   capture(jarvistypes.KindGenerateImage, "prompt"),
	},
	{
		Name:    "time",
		Pattern: rule(`what(?:'s|\s+is)\s+the\s+time\??`),
		Build:   fixed(jarvistypes.KindGetTime, ""),
	},
	{
		Name:    "weather",
		Pattern: rule(`what(?:'s|\s+is)\s+the\s+weather(?:\s+in\s+(.+?))?\??`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			var params map[string]any
			if m[1] != "" {
				params = map[string]any{"location": m[1]}
			}
			return command(jarvistypes.KindGetWeather, "", params)
		},
	},
	{
		Name:    "close app",
		Pattern: rule(`(?:close|exit|quit)\s+(.+)`),
		Build:   capture(jarvistypes.KindClose, "app"),
	},
	{
		Name:    "system volume",
		Pattern: rule(`(?:volume|sound)\s+(up|down|mute)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return command(jarvistypes.KindVolume, "", map[string]any{"control": strings.ToLower(m[1])})
		},
	},
}

// capture stores the first submatch under key.
func capture(kind jarvistypes.CommandKind, key string) func([]string) jarvistypes.StructuredCommand {
	return func(m []string) jarvistypes.StructuredCommand {
		return command(kind, "", map[string]any{key: m[1]})
	}
}
