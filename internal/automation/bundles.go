package automation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jarvis/internal/catalog"
	"jarvis/pkg/jarvistypes"
)

const defaultTopic = "research"

// groupFamilies names each site group in "Unknown … action" failures.
var groupFamilies = map[string]string{
	"workflow":      "workflow",
	"social":        "social media",
	"productivity":  "productivity",
	"developer":     "developer tools",
	"entertainment": "entertainment",
	"research":      "research",
}

// BundleResult is the data of an opened site bundle.
type BundleResult struct {
	Bundle string   `json:"bundle"`
	Opened []string `json:"opened"`
	Topic  string   `json:"topic,omitempty"`
}

// groupHandler serves one catalog site group: its named bundles plus single-site actions.
func (d *Dispatcher) groupHandler(name string) HandlerFunc {
	return func(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
		group, ok := d.catalog.Group(name)
		if !ok {
			return jarvistypes.AutomationResponse{}, fmt.Errorf("site group %s missing from catalog", name)
		}

		switch cmd.Action {
		case "openSpecific":
			return d.openSite(ctx, group, cmd.StringParam("platform", cmd.Target))
		case "openApp":
			return d.openSite(ctx, group, cmd.StringParam("app", cmd.Target))
		}
		if _, isBundle := group.Bundles[cmd.Action]; !isBundle {
			return unknownAction(groupFamilies[name], cmd.Action), nil
		}
		return d.openBundle(ctx, group, cmd.Action, cmd.StringParam("topic", defaultTopic))
	}
}

func (d *Dispatcher) openSite(ctx context.Context, group catalog.Group, id string) (jarvistypes.AutomationResponse, error) {
	site, ok := group.Site(strings.ToLower(strings.TrimSpace(id)))
	if !ok {
		missing := group.Missing
		if missing == "" {
			missing = "Site {name} not found"
		}
		return jarvistypes.Failed(strings.ReplaceAll(missing, "{name}", id)), nil
	}
	if _, err := d.openTracked(ctx, site.ID+"-"+d.stamp(), site.URL); err != nil {
		return browserFailure(err, fmt.Sprintf("Failed to open %s. Please check if pop-ups are blocked.", site.Name))
	}
	return jarvistypes.Succeeded("Opened "+site.Name, BundleResult{Opened: []string{site.ID}}), nil
}

// openBundle opens the sites of a bundle in order with the bundle's delay between tabs.
func (d *Dispatcher) openBundle(ctx context.Context, group catalog.Group, bundle, topic string) (jarvistypes.AutomationResponse, error) {
	sites, b, err := group.Resolve(bundle, topic)
	if err != nil {
		return jarvistypes.AutomationResponse{}, err
	}

	opened := make([]string, 0, len(sites))
	for i, site := range sites {
		if i > 0 {
			if err := d.sleep(ctx, b.DelayMS); err != nil {
				return jarvistypes.AutomationResponse{}, err
			}
		}
		if _, err := d.openTracked(ctx, site.ID+"-"+d.stamp(), site.URL); err != nil {
			if !errors.Is(err, jarvistypes.ErrPopupBlocked) {
				return jarvistypes.AutomationResponse{}, err
			}
			d.log.Warn("Tab not opened", "site", site.ID, "error", err)
			continue
		}
		opened = append(opened, site.ID)
	}
	if len(opened) == 0 && len(sites) > 0 {
		return jarvistypes.Failed("Failed to open " + bundle + ". Please check if pop-ups are blocked."), nil
	}

	message := strings.NewReplacer("{names}", strings.Join(opened, ", "), "{topic}", topic).Replace(b.Message)
	result := BundleResult{Bundle: bundle, Opened: opened}
	if strings.Contains(b.Message, "{topic}") {
		result.Topic = topic
	}
	return jarvistypes.Succeeded(message, result), nil
}
