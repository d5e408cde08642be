package scroll

import (
	"jarvis/pkg/jarvistypes"
)

// ActionStop is the structured action that stops an active auto-scroll.
const ActionStop = "stop"

// ToStructured wraps a parsed scroll command for the dispatcher.
func ToStructured(cmd jarvistypes.ScrollCommand) jarvistypes.StructuredCommand {
	params := map[string]any{
		"direction":  string(cmd.Direction),
		"amount":     cmd.Amount,
		"speed":      cmd.Speed,
		"duration":   cmd.Duration,
		"smooth":     cmd.Smooth,
		"continuous": cmd.Continuous,
	}
	if cmd.Target != "" {
		params["target"] = cmd.Target
	}
	if cmd.Percentage != nil {
		params["percentage"] = *cmd.Percentage
	}
	return jarvistypes.StructuredCommand{
		Kind:       jarvistypes.KindScroll,
		Action:     string(cmd.Type),
		Parameters: params,
		Confidence: jarvistypes.ConfidenceSpecific,
	}
}

// FromStructured rebuilds the scroll command carried by a structured command.
// An empty action means a plain scroll, and a missing smooth flag means smooth.
func FromStructured(cmd jarvistypes.StructuredCommand) jarvistypes.ScrollCommand {
	scrollType := jarvistypes.ScrollType(cmd.Action)
	if scrollType == "" {
		scrollType = jarvistypes.ScrollPlain
	}
	out := jarvistypes.ScrollCommand{
		Type:       scrollType,
		Direction:  jarvistypes.Direction(cmd.StringParam("direction", string(jarvistypes.DirectionDown))),
		Amount:     cmd.IntParam("amount", 0),
		Speed:      cmd.IntParam("speed", 0),
		Duration:   cmd.IntParam("duration", 0),
		Smooth:     cmd.BoolParam("smooth", true),
		Target:     cmd.StringParam("target", ""),
		Continuous: cmd.BoolParam("continuous", scrollType == jarvistypes.ScrollAuto),
	}
	if _, ok := cmd.Param("percentage"); ok {
		p := cmd.FloatParam("percentage", 0)
		out.Percentage = &p
	}
	return out
}
