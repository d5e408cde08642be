package grammar

// ExampleGroup is a titled list of phrases the grammar understands.
type ExampleGroup struct {
	Title    string
	Commands []string
}

// Examples returns sample phrases grouped by topic, for the shell's \examples listing.
func Examples() []ExampleGroup {
	return []ExampleGroup{
		{Title: "Scrolling", Commands: []string{
			"Auto scroll down",
			"Keep scrolling up for 10 seconds",
			"Auto scroll down slowly",
			"Smart scroll down",
			"Scroll to top",
			"Scroll to main content",
			"Scroll 500 pixels",
			"Scroll to 75%",
			"Stop scrolling",
		}},
		{Title: "Search", Commands: []string{
			"Open YouTube and search relaxing music",
			"Search machine learning on multiple platforms",
			"Search React projects on GitHub",
			"Play song bohemian rhapsody",
			"Google best pizza near me",
			"Shop laptops on Amazon",
			"Watch cooking tutorials",
		}},
		{Title: "Research", Commands: []string{
			"Research quantum computing",
			"Research quantum computing academically",
			"Research electric cars for market analysis",
			"Learn about machine learning",
			"Start research mode for blockchain",
		}},
		{Title: "Workflows", Commands: []string{
			"Open my daily workspace",
			"Open all social media",
			"Open professional social media",
			"Start meeting mode",
			"Start project mode",
			"Open dev environment",
			"Open cloud services",
			"Open streaming services",
			"Open music services",
		}},
		{Title: "Page tools", Commands: []string{
			"Get page info",
			"Find all links",
			"Count images",
			"Extract text from article",
			"Summarize this page",
			"Translate this page to Spanish",
			"Take a screenshot",
			"Bookmark this page as reading list",
			"Zoom to 125%",
			"Pause video",
		}},
		{Title: "Navigation", Commands: []string{
			"Go back",
			"Refresh page",
			"Open new tab with github.com",
			"Close this tab",
			"Enter fullscreen",
			"Exit fullscreen",
		}},
		{Title: "Basics", Commands: []string{
			"Open Spotify",
			"Play some music",
			"Search for restaurants nearby",
			"Generate image of a sunset",
			"What's the time?",
			"What's the weather?",
			"Close Notepad",
			"Volume up",
		}},
	}
}
