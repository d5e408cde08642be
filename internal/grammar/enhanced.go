package grammar

import (
	"strconv"
	"strings"

	"jarvis/pkg/jarvistypes"
)

// multiSearchPlatforms are searched by "search X on multiple platforms".
var multiSearchPlatforms = []string{"google", "youtube", "wikipedia", "reddit"}

var enhancedRules = []Rule{
	{
		Name:    "scroll amount",
		Pattern: rule(`scroll\s+(\d+(?:\.\d+)?)\s*(px|pixels?|percent|%)?`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			value, _ := strconv.ParseFloat(m[1], 64)
			if m[2] == "%" || strings.EqualFold(m[2], "percent") {
				return command(jarvistypes.KindScroll, string(jarvistypes.ScrollPlain), map[string]any{
					"direction":  string(jarvistypes.DirectionDown),
					"smooth":     true,
					"percentage": value,
				})
			}
			return command(jarvistypes.KindScroll, string(jarvistypes.ScrollPlain), map[string]any{
				"direction": string(jarvistypes.DirectionDown),
				"amount":    int(value),
				"smooth":    true,
			})
		},
	},
	{
		Name:    "open and search",
		Pattern: rule(`open\s+(.+?)\s+and\s+search\s+(?:for\s+)?(.+)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return openAndSearch(m[1], m[2])
		},
	},
	{
		Name:    "multi-platform search",
		Pattern: rule(`search\s+(.+)\s+on\s+multiple\s+platforms`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			platforms := append([]string(nil), multiSearchPlatforms...)
			return command(jarvistypes.KindMultiSearch, "", map[string]any{"query": m[1], "platforms": platforms})
		},
	},
	{
		Name:    "research assistant",
		Pattern: rule(`research\s+(.+)\s+(academically|for\s+market(?:\s+analysis)?|in\s+depth)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			action := "marketResearch"
			if strings.Contains(strings.ToLower(m[2]), "academic") {
				action = "academicResearch"
			}
			return command(jarvistypes.KindResearchAssistant, action, map[string]any{"topic": m[1]})
		},
	},
	{
		Name:    "daily workspace",
		Pattern: rule(`open\s+(?:my\s+)?(?:daily\s+)?workspace`),
		Build:   fixed(jarvistypes.KindAutomatedWorkflow, "dailyStartup"),
	},
	{
		Name:    "research mode",
		Pattern: rule(`start\s+(?:research\s+mode|research)\s+(?:for\s+)?(.+)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return command(jarvistypes.KindAutomatedWorkflow, "researchMode", map[string]any{"topic": m[1]})
		},
	},
	{
		Name:    "social media rounds",
		Pattern: rule(`(?:do\s+)?(?:my\s+)?social\s+media\s+rounds`),
		Build:   fixed(jarvistypes.KindAutomatedWorkflow, "socialMediaRounds"),
	},
	{
		Name:    "all social media",
		Pattern: rule(`open\s+all\s+(?:social\s+media|social)`),
		Build:   fixed(jarvistypes.KindSocialMedia, "openAll"),
	},
	{
		Name:    "professional social media",
		Pattern: rule(`open\s+(?:professional|work)\s+social\s+media`),
		Build:   fixed(jarvistypes.KindSocialMedia, "openProfessional"),
	},
	{
		Name:    "personal social media",
		Pattern: rule(`open\s+(?:personal|casual)\s+social\s+media`),
		Build:   fixed(jarvistypes.KindSocialMedia, "openPersonal"),
	},
	{
		Name:    "meeting mode",
		Pattern: rule(`(?:start|open)\s+(?:meeting\s+mode|meetings)`),
		Build:   fixed(jarvistypes.KindProductivity, "openMeetingMode"),
	},
	{
		Name:    "project mode",
		Pattern: rule(`(?:start|open)\s+(?:project\s+mode|projects)`),
		Build:   fixed(jarvistypes.KindProductivity, "openProjectMode"),
	},
	{
		Name:    "dev environment",
		Pattern: rule(`open\s+(?:dev\s+environment|developer\s+tools)`),
		Build:   fixed(jarvistypes.KindDeveloperTools, "openDevEnvironment"),
	},
	{
		Name:    "cloud services",
		Pattern: rule(`open\s+cloud\s+services`),
		Build:   fixed(jarvistypes.KindDeveloperTools, "openCloudServices"),
	},
	{
		Name:    "streaming services",
		Pattern: rule(`open\s+(?:streaming\s+services|entertainment)`),
		Build:   fixed(jarvistypes.KindEntertainment, "openStreamingServices"),
	},
	{
		Name:    "music services",
		Pattern: rule(`open\s+music\s+services`),
		Build:   fixed(jarvistypes.KindEntertainment, "openMusicServices"),
	},
	{
		Name:    "page info",
		Pattern: rule(`(?:analyze|extract|get)\s+page\s+info(?:rmation)?`),
		Build:   fixed(jarvistypes.KindContentAnalysis, "pageInfo"),
	},
	{
		Name:    "find links",
		Pattern: rule(`(?:find|count|get)\s+(?:all\s+)?links`),
		Build:   fixed(jarvistypes.KindContentAnalysis, "findLinks"),
	},
	{
		Name:    "find images",
		Pattern: rule(`(?:find|count|get)\s+(?:all\s+)?images`),
		Build:   fixed(jarvistypes.KindContentAnalysis, "findImages"),
	},
	{
		Name:    "count elements",
		Pattern: rule(`count\s+(?:all\s+)?(.+?)\s+elements`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return command(jarvistypes.KindContentAnalysis, "countElements", map[string]any{"selector": m[1]})
		},
	},
	{
		Name:    "extract text",
		Pattern: rule(`extract\s+text(?:\s+from)?\s+(.+)`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			return command(jarvistypes.KindContentAnalysis, "extractText", map[string]any{"selector": m[1]})
		},
	},
	{
		Name:    "go back",
		Pattern: rule(`(?:(?:go|navigate)\s+)?back`),
		Build:   fixed(jarvistypes.KindSmartNavigation, "goBack"),
	},
	{
		Name:    "go forward",
		Pattern: rule(`(?:(?:go|navigate)\s+)?forward`),
		Build:   fixed(jarvistypes.KindSmartNavigation, "goForward"),
	},
	{
		Name:    "refresh",
		Pattern: rule(`(?:refresh|reload)(?:\s+(?:the\s+)?(?:page|browser))?`),
		Build:   fixed(jarvistypes.KindSmartNavigation, "refresh"),
	},
	{
		Name:    "new tab",
		Pattern: rule(`(?:open\s+)?(?:a\s+)?new\s+tab(?:\s+with\s+(.+))?`),
		Build: func(m []string) jarvistypes.StructuredCommand {
			params := map[string]any{}
			if m[1] != "" {
				params["url"] = m[1]
			}
			return command(jarvistypes.KindSmartNavigation, "newTab", params)
		},
	},
	{
		Name:    "close tab",
		Pattern: rule(`close\s+(?:this|current|the\s+current)\s+tab`),
		Build:   fixed(jarvistypes.KindSmartNavigation, "closeTab"),
	},
	{
		Name:    "exit fullscreen",
		Pattern: rule(`(?:exit|leave)\s+full\s*screen`),
		Build:   fixed(jarvistypes.KindSmartNavigation, "exitFullscreen"),
	},
	{
		Name:    "fullscreen",
		Pattern: rule(`(?:enter\s+|go\s+)?full\s*screen`),
		Build:   fixed(jarvistypes.KindSmartNavigation, "fullscreen"),
	},
}

// fixed builds a command that takes no captures.
func fixed(kind jarvistypes.CommandKind, action string) func([]string) jarvistypes.StructuredCommand {
	return func([]string) jarvistypes.StructuredCommand {
		return command(kind, action, nil)
	}
}
