package scroll

import (
	"regexp"
	"strconv"
	"strings"

	"jarvis/pkg/jarvistypes"
)

// Defaults applied by the parser when a phrase leaves a value out.
const (
	AutoScrollSpeed = 2000
)

var (
	durationPattern = regexp.MustCompile(`for\s+(\d+)\s*(seconds?|minutes?)\b`)
	speedPattern    = regexp.MustCompile(`(\d+)\s*(milliseconds?|ms|seconds?)\b`)
	amountPattern   = regexp.MustCompile(`(\d+)\s*(?:px|pixels?)?`)
	percentPattern  = regexp.MustCompile(`scroll to (\d+(?:\.\d+)?)\s*%`)
	extremePattern  = regexp.MustCompile(`scroll to (?:the )?(top|bottom|beginning|end)\b`)
	scrollToPattern = regexp.MustCompile(`scroll to\s+(.+)$`)
	wordPattern     = regexp.MustCompile(`[a-z]+`)
	articlePattern  = regexp.MustCompile(`^(?:the|a|an)\s+`)
)

// speedWords is checked in order; compound phrases come before their single-word suffixes.
var speedWords = []struct {
	phrase string
	ms     int
}{
	{"very slow", 4000},
	{"very fast", 200},
	{"slow", 3000},
	{"fast", 500},
	{"quick", 500},
	{"medium", 1500},
}

// ParseScrollCommand turns a scroll phrase into a ScrollCommand.
// It returns nil when the input does not mention scrolling or names no direction or target.
func ParseScrollCommand(input string) *jarvistypes.ScrollCommand {
	lower := strings.ToLower(strings.TrimSpace(input))
	if !strings.Contains(lower, "scroll") {
		return nil
	}

	if strings.Contains(lower, "auto scroll") || strings.Contains(lower, "keep scrolling") {
		direction := ExtractDirection(lower)
		if direction == "" {
			direction = jarvistypes.DirectionDown
		}
		speed := ExtractSpeed(durationPattern.ReplaceAllString(lower, ""))
		if speed == 0 {
			speed = AutoScrollSpeed
		}
		duration := ExtractDuration(lower)
		if duration == 0 {
			duration = jarvistypes.DefaultScrollDuration
		}
		return &jarvistypes.ScrollCommand{
			Type:       jarvistypes.ScrollAuto,
			Direction:  direction,
			Speed:      speed,
			Duration:   duration,
			Smooth:     true,
			Continuous: true,
		}
	}

	if strings.Contains(lower, "smart scroll") || strings.Contains(lower, "scroll to next") {
		direction := ExtractDirection(lower)
		if direction == "" {
			direction = jarvistypes.DirectionDown
		}
		return &jarvistypes.ScrollCommand{
			Type:      jarvistypes.ScrollSmart,
			Direction: direction,
			Smooth:    true,
		}
	}

	if m := percentPattern.FindStringSubmatch(lower); m != nil {
		p, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return &jarvistypes.ScrollCommand{
				Type:       jarvistypes.ScrollPlain,
				Direction:  jarvistypes.DirectionDown,
				Smooth:     true,
				Percentage: &p,
			}
		}
	}

	if m := extremePattern.FindStringSubmatch(lower); m != nil {
		direction := jarvistypes.DirectionTop
		if m[1] == "bottom" || m[1] == "end" {
			direction = jarvistypes.DirectionBottom
		}
		return &jarvistypes.ScrollCommand{
			Type:      jarvistypes.ScrollPlain,
			Direction: direction,
			Smooth:    !isFast(lower),
		}
	}

	if m := scrollToPattern.FindStringSubmatch(lower); m != nil {
		target := strings.TrimSpace(articlePattern.ReplaceAllString(strings.TrimSpace(m[1]), ""))
		if target != "" {
			return &jarvistypes.ScrollCommand{
				Type:      jarvistypes.ScrollSmart,
				Direction: jarvistypes.DirectionDown,
				Target:    target,
				Smooth:    true,
			}
		}
	}

	direction := ExtractDirection(lower)
	if direction == "" {
		return nil
	}
	amount := ExtractAmount(lower)
	if amount == 0 {
		amount = jarvistypes.DefaultScrollAmount
	}
	speed := ExtractSpeed(lower)
	if speed == 0 {
		speed = jarvistypes.DefaultScrollSpeed
	}
	return &jarvistypes.ScrollCommand{
		Type:      jarvistypes.ScrollPlain,
		Direction: direction,
		Amount:    amount,
		Speed:     speed,
		Smooth:    !isFast(lower),
	}
}

func isFast(lower string) bool {
	return strings.Contains(lower, "fast") || strings.Contains(lower, "quick")
}

// ExtractDirection returns the first direction word found, or "" when there is none.
// Words are matched whole, so "startup" does not count as "up".
func ExtractDirection(input string) jarvistypes.Direction {
	words := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(strings.ToLower(input), -1) {
		words[w] = true
	}
	switch {
	case words["up"]:
		return jarvistypes.DirectionUp
	case words["down"]:
		return jarvistypes.DirectionDown
	case words["left"]:
		return jarvistypes.DirectionLeft
	case words["right"]:
		return jarvistypes.DirectionRight
	case words["top"], words["beginning"]:
		return jarvistypes.DirectionTop
	case words["bottom"], words["end"]:
		return jarvistypes.DirectionBottom
	}
	return ""
}

// ExtractSpeed returns a step interval in milliseconds, or 0 when the input names none.
func ExtractSpeed(input string) int {
	lower := strings.ToLower(input)
	for _, sw := range speedWords {
		if strings.Contains(lower, sw.phrase) {
			return sw.ms
		}
	}
	m := speedPattern.FindStringSubmatch(lower)
	if m == nil {
		return 0
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	if strings.HasPrefix(m[2], "second") {
		return value * 1000
	}
	return value
}

// ExtractDuration parses "for N seconds" or "for N minutes" into milliseconds, or 0.
func ExtractDuration(input string) int {
	m := durationPattern.FindStringSubmatch(strings.ToLower(input))
	if m == nil {
		return 0
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	if strings.HasPrefix(m[2], "minute") {
		return value * 60000
	}
	return value * 1000
}

// ExtractAmount returns the first integer in the input, or 0.
func ExtractAmount(input string) int {
	m := amountPattern.FindStringSubmatch(input)
	if m == nil {
		return 0
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return value
}
