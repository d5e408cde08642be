package automation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jarvis/internal/grammar"
	"jarvis/pkg/jarvistypes"
)

const (
	multiSearchDelay = 300
	multiTabDelay    = 500
)

var defaultMultiSearchPlatforms = []string{"google", "youtube", "wikipedia"}

// SearchResult is the data of a successful platform search.
type SearchResult struct {
	Platform string   `json:"platform"`
	Query    string   `json:"query"`
	URL      string   `json:"url"`
	Features []string `json:"features,omitempty"`
}

// MultiSearchResult is the data of a multi-platform search.
type MultiSearchResult struct {
	Successful []string `json:"successful"`
	Errors     []string `json:"errors"`
}

func (d *Dispatcher) handleOpenAndSearch(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	platform := cmd.Target
	if platform == "" {
		platform = cmd.StringParam("platform", "")
	}
	return d.search(ctx, platform, cmd.StringParam("query", ""), cmd.StringParam("filter", ""), cmd.StringParam("filterValue", ""))
}

func (d *Dispatcher) handleSmartSearch(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	query := cmd.StringParam("query", "")
	platform := cmd.StringParam("platform", "")
	if platform == "" {
		platform = grammar.RoutePlatform(query, d.chooser)
	}
	return d.search(ctx, platform, query, "", "")
}

// search opens a search for query on platform and tracks the tab as <platform>-search-<unixms>.
func (d *Dispatcher) search(ctx context.Context, platform, query, filter, value string) (jarvistypes.AutomationResponse, error) {
	p, ok := d.catalog.Platform(platform)
	if !ok {
		return jarvistypes.Failed(fmt.Sprintf("Platform %q not supported for search", platform)), nil
	}

	url := p.SearchURL(query, filter, value)
	if _, err := d.openTracked(ctx, p.ID+"-search-"+d.stamp(), url); err != nil {
		return browserFailure(err, fmt.Sprintf("Failed to open %s. Please check if pop-ups are blocked.", p.ID))
	}

	message := fmt.Sprintf("Opened %s and searching for %q", p.ID, query)
	if len(p.Features) > 0 {
		message += ". Available filters: " + strings.Join(p.Features, ", ")
	}
	return jarvistypes.Succeeded(message, SearchResult{
		Platform: p.ID,
		Query:    query,
		URL:      url,
		Features: append([]string(nil), p.Features...),
	}), nil
}

func (d *Dispatcher) handleMultiSearch(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	query := cmd.StringParam("query", "")
	platforms := cmd.StringsParam("platforms")
	if len(platforms) == 0 {
		platforms = defaultMultiSearchPlatforms
	}

	result := MultiSearchResult{Successful: []string{}, Errors: []string{}}
	for i, platform := range platforms {
		if i > 0 {
			if err := d.sleep(ctx, multiSearchDelay); err != nil {
				return jarvistypes.AutomationResponse{}, err
			}
		}
		resp, err := d.search(ctx, platform, query, "", "")
		switch {
		case err != nil:
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", platform, err))
		case resp.Success:
			result.Successful = append(result.Successful, platform)
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", platform, resp.Message))
		}
	}

	message := "Multi-platform search completed. Opened: " + strings.Join(result.Successful, ", ")
	if len(result.Errors) > 0 {
		message += ". Errors: " + strings.Join(result.Errors, ", ")
	}
	return jarvistypes.AutomationResponse{
		Success: len(result.Successful) > 0,
		Message: message,
		Data:    result,
	}, nil
}

// handleMultiTab opens every URL in parameters.tabs in order. Tabs blocked as pop-ups are skipped;
// any other browser error aborts the command.
func (d *Dispatcher) handleMultiTab(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	urls := cmd.StringsParam("tabs")
	var opened []string
	for i, url := range urls {
		if i > 0 {
			if err := d.sleep(ctx, multiTabDelay); err != nil {
				return jarvistypes.AutomationResponse{}, err
			}
		}
		if _, err := d.openTracked(ctx, url, url); err != nil {
			if !errors.Is(err, jarvistypes.ErrPopupBlocked) {
				return jarvistypes.AutomationResponse{}, err
			}
			d.log.Warn("Tab not opened", "url", url, "error", err)
			continue
		}
		opened = append(opened, "Opened "+url)
	}
	if len(opened) == 0 && len(urls) > 0 {
		return jarvistypes.Failed("Failed to open tabs. Please check if pop-ups are blocked."), nil
	}
	return jarvistypes.Succeeded(
		fmt.Sprintf("Opened %d tabs: %s", len(opened), strings.Join(opened, ", ")),
		map[string]any{"opened": len(opened), "requested": len(urls)},
	), nil
}
