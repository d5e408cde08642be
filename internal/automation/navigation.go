package automation

import (
	"context"
	"fmt"
	"math"

	"jarvis/internal/scroll"
	"jarvis/pkg/jarvistypes"
)

const blankPage = "about:blank"

func (d *Dispatcher) handleNavigation(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	switch cmd.Action {
	case "goBack":
		n, err := d.env.HistoryLength(ctx)
		if err != nil {
			return jarvistypes.AutomationResponse{}, err
		}
		if n <= 1 {
			return jarvistypes.Failed("No previous page in history"), nil
		}
		if err := d.env.Back(ctx); err != nil {
			return jarvistypes.AutomationResponse{}, err
		}
		return jarvistypes.Succeeded("Navigated back in browser history", nil), nil

	case "goForward":
		if err := d.env.Forward(ctx); err != nil {
			return jarvistypes.AutomationResponse{}, err
		}
		return jarvistypes.Succeeded("Navigated forward in browser history", nil), nil

	case "refresh":
		if err := d.env.Reload(ctx); err != nil {
			return jarvistypes.AutomationResponse{}, err
		}
		return jarvistypes.Succeeded("Page refreshed", nil), nil

	case "newTab":
		url := cmd.StringParam("url", blankPage)
		if _, err := d.openTracked(ctx, "tab-"+d.stamp(), url); err != nil {
			return browserFailure(err, "Failed to open new tab. Please check if pop-ups are blocked.")
		}
		if url == blankPage {
			return jarvistypes.Succeeded("Opened new tab", nil), nil
		}
		return jarvistypes.Succeeded("Opened new tab with "+url, nil), nil

	case "closeTab":
		if err := d.env.CloseCurrent(ctx); err != nil {
			return jarvistypes.AutomationResponse{}, err
		}
		return jarvistypes.Succeeded("Attempted to close current tab", nil), nil

	case "fullscreen":
		if err := d.env.RequestFullscreen(ctx); err != nil {
			return browserFailure(err, "Fullscreen not supported")
		}
		return jarvistypes.Succeeded("Entered fullscreen mode", nil), nil

	case "exitFullscreen":
		if err := d.env.ExitFullscreen(ctx); err != nil {
			return browserFailure(err, "Not in fullscreen mode")
		}
		return jarvistypes.Succeeded("Exited fullscreen mode", nil), nil
	}
	return unknownAction("navigation", cmd.Action), nil
}

// handleBrowser covers page-level browser settings. Only zoom exists today.
func (d *Dispatcher) handleBrowser(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	if cmd.Action != "zoom" {
		return unknownAction("browser", cmd.Action), nil
	}
	level := cmd.FloatParam("level", 1)
	if level <= 0 {
		return jarvistypes.Failed(fmt.Sprintf("Invalid zoom level: %g", level)), nil
	}
	if err := d.env.SetZoom(ctx, level); err != nil {
		return browserFailure(err, "Zoom not supported")
	}
	return jarvistypes.Succeeded(fmt.Sprintf("Zoomed to %d%%", int(math.Round(level*100))), map[string]any{"level": level}), nil
}

func (d *Dispatcher) handleMedia(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	var message string
	volume := 0.0
	switch cmd.Action {
	case "play":
		message = "Media playback started"
	case "pause":
		message = "Media playback paused"
	case "stop":
		message = "Media playback stopped"
	case "volume":
		level := max(0, min(100, int(cmd.FloatParam("level", 50))))
		volume = float64(level) / 100
		message = fmt.Sprintf("Media volume set to %d%%", level)
	default:
		return unknownAction("media", cmd.Action), nil
	}

	n, err := d.env.ControlMedia(ctx, cmd.Action, volume)
	if err != nil {
		return browserFailure(err, "Media control not supported")
	}
	return jarvistypes.Succeeded(message, map[string]any{"elements": n}), nil
}

// handleScroll hands scroll commands to the scroll engine.
func (d *Dispatcher) handleScroll(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	if cmd.Action == scroll.ActionStop {
		d.scroller.StopScrolling(ctx)
		return jarvistypes.Succeeded("Scrolling stopped", nil), nil
	}
	return fromScroll(d.scroller.ExecuteScrollCommand(ctx, scroll.FromStructured(cmd))), nil
}

func fromScroll(r jarvistypes.ScrollResponse) jarvistypes.AutomationResponse {
	resp := jarvistypes.AutomationResponse{Success: r.Success, Message: r.Message}
	if r.Position != nil {
		resp.Data = *r.Position
	}
	return resp
}
