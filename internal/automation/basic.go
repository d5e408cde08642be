package automation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"jarvis/pkg/jarvistypes"
)

func (d *Dispatcher) handleOpen(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	raw := cmd.StringParam("app", cmd.Target)
	name := strings.ToLower(strings.TrimSpace(raw))

	target, known := d.catalog.App(name)
	if !known {
		if !strings.Contains(name, ".com") && !strings.Contains(name, ".org") && !strings.Contains(name, ".net") {
			return jarvistypes.Failed(fmt.Sprintf(
				"I don't know how to open %q. Try specifying a website URL or a supported application.", raw)), nil
		}
		target = name
		if !strings.HasPrefix(target, "http") {
			target = "https://" + target
		}
	}

	if _, err := d.openTracked(ctx, name+"-"+d.stamp(), target); err != nil {
		if target == blankPage {
			return browserFailure(err, "Failed to open "+name)
		}
		return browserFailure(err, "Failed to open website. Please check if pop-ups are blocked.")
	}
	if target == blankPage {
		return jarvistypes.Succeeded(fmt.Sprintf("Opening %s in a new tab", name), nil), nil
	}
	return jarvistypes.Succeeded("Opening "+target, map[string]any{"url": target}), nil
}

// handleClose closes the most recently opened tab that is still open.
func (d *Dispatcher) handleClose(_ context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	app := cmd.StringParam("app", cmd.Target)

	d.mu.Lock()
	last, ok := d.lastOpenTab()
	d.mu.Unlock()
	if !ok {
		return jarvistypes.Succeeded("Attempted to close "+app, nil), nil
	}
	if err := last.tab.Close(); err != nil {
		return jarvistypes.AutomationResponse{}, fmt.Errorf("close %s: %w", last.key, err)
	}
	return jarvistypes.Succeeded("Closed "+app, map[string]any{"tab": last.key}), nil
}

func (d *Dispatcher) handlePlay(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	return d.search(ctx, "youtube", cmd.StringParam("query", ""), "", "")
}

func (d *Dispatcher) handleSearch(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	return d.handleSmartSearch(ctx, cmd)
}

// handleGenerateImage creates images with the configured generator and shows each in a tab.
// Without a generator, or when generation fails, it searches Google Images instead.
func (d *Dispatcher) handleGenerateImage(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	prompt := cmd.StringParam("prompt", "")
	if d.imageGen != nil {
		paths, err := d.imageGen.GenerateImages(ctx, prompt)
		if err == nil {
			return d.showImages(ctx, prompt, paths)
		}
		if ctx.Err() != nil {
			return jarvistypes.AutomationResponse{}, ctx.Err()
		}
		d.log.Warn("Image generation failed, searching instead", "prompt", prompt, "error", err)
	}
	resp, err := d.search(ctx, "google", prompt, "images", "")
	if err != nil || !resp.Success {
		return resp, err
	}
	resp.Message = fmt.Sprintf("Searching images for %q", prompt)
	return resp, nil
}

func (d *Dispatcher) showImages(ctx context.Context, prompt string, paths []string) (jarvistypes.AutomationResponse, error) {
	for _, path := range paths {
		u := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
		if _, err := d.openTracked(ctx, "image-"+d.stamp(), u); err != nil {
			if !errors.Is(err, jarvistypes.ErrPopupBlocked) {
				return jarvistypes.AutomationResponse{}, err
			}
			d.log.Warn("Image not shown", "path", path, "error", err)
		}
	}
	return jarvistypes.Succeeded(
		fmt.Sprintf("Generated %d images for %q", len(paths), prompt),
		map[string]any{"files": paths},
	), nil
}

func (d *Dispatcher) handleGetTime(_ context.Context, _ jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	now := d.now()
	return jarvistypes.Succeeded("The current time is "+now.Format("3:04 PM"), map[string]any{"time": now}), nil
}

func (d *Dispatcher) handleGetWeather(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	location := cmd.StringParam("location", "")
	query := "weather"
	message := "Showing the weather forecast"
	if location != "" {
		query += " in " + location
		message = "Showing the weather in " + location
	}
	resp, err := d.search(ctx, "google", query, "", "")
	if err != nil || !resp.Success {
		return resp, err
	}
	resp.Message = message
	return resp, nil
}

func (d *Dispatcher) handleVolume(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	control := strings.ToLower(cmd.StringParam("control", ""))
	switch control {
	case "up", "down", "mute":
	default:
		return jarvistypes.Failed("Unknown volume control: " + control), nil
	}
	if d.system == nil {
		return jarvistypes.Failed("System volume control is not available"), nil
	}
	if err := d.system.Volume(ctx, control); err != nil {
		return jarvistypes.Failed(fmt.Sprintf("Volume %s failed: %v", control, err)), nil
	}
	return jarvistypes.Succeeded("Volume "+control, nil), nil
}
