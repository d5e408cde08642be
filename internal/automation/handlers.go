package automation

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"jarvis/pkg/jarvistypes"
)

// defaultHandlers maps every built-in command kind to its handler.
func (d *Dispatcher) defaultHandlers() map[jarvistypes.CommandKind]HandlerFunc {
	return map[jarvistypes.CommandKind]HandlerFunc{
		jarvistypes.KindOpenAndSearch:     d.handleOpenAndSearch,
		jarvistypes.KindSmartSearch:       d.handleSmartSearch,
		jarvistypes.KindMultiSearch:       d.handleMultiSearch,
		jarvistypes.KindMultiTab:          d.handleMultiTab,
		jarvistypes.KindScroll:            d.handleScroll,
		jarvistypes.KindSmartNavigation:   d.handleNavigation,
		jarvistypes.KindContentAnalysis:   d.handleContentAnalysis,
		jarvistypes.KindAutomatedWorkflow: d.groupHandler("workflow"),
		jarvistypes.KindSocialMedia:       d.groupHandler("social"),
		jarvistypes.KindProductivity:      d.groupHandler("productivity"),
		jarvistypes.KindDeveloperTools:    d.groupHandler("developer"),
		jarvistypes.KindEntertainment:     d.groupHandler("entertainment"),
		jarvistypes.KindResearchAssistant: d.groupHandler("research"),
		jarvistypes.KindAIAssisted:        d.handleAIAssisted,
		jarvistypes.KindWebAutomation:     d.handleWebAutomation,
		jarvistypes.KindOpen:              d.handleOpen,
		jarvistypes.KindClose:             d.handleClose,
		jarvistypes.KindPlay:              d.handlePlay,
		jarvistypes.KindSearch:            d.handleSearch,
		jarvistypes.KindGenerateImage:     d.handleGenerateImage,
		jarvistypes.KindGetTime:           d.handleGetTime,
		jarvistypes.KindGetWeather:        d.handleGetWeather,
		jarvistypes.KindVolume:            d.handleVolume,
		jarvistypes.KindBrowser:           d.handleBrowser,
		jarvistypes.KindMedia:             d.handleMedia,
	}
}

// openTracked opens url in a new tab, makes it the page later commands act on, and remembers it
// under key. A key already in use gets a numeric suffix.
func (d *Dispatcher) openTracked(ctx context.Context, key, url string) (string, error) {
	tab, err := d.env.OpenTab(ctx, url)
	if err != nil {
		return "", err
	}
	if activator, ok := d.env.(jarvistypes.TabActivator); ok && !activator.Activate(ctx, tab) {
		d.log.Warn("Could not switch to new tab", "url", url)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	unique := key
	for n := 2; d.hasTab(unique); n++ {
		unique = key + "-" + strconv.Itoa(n)
	}
	d.tabs = append(d.tabs, trackedTab{key: unique, tab: tab})
	return unique, nil
}

// hasTab reports whether key is tracked. Callers hold mu.
func (d *Dispatcher) hasTab(key string) bool {
	for _, t := range d.tabs {
		if t.key == key {
			return true
		}
	}
	return false
}

// lastOpenTab returns the most recently tracked tab that is still open. Callers hold mu.
func (d *Dispatcher) lastOpenTab() (trackedTab, bool) {
	for i := len(d.tabs) - 1; i >= 0; i-- {
		if !d.tabs[i].tab.Closed() {
			return d.tabs[i], true
		}
	}
	return trackedTab{}, false
}

func (d *Dispatcher) stamp() string {
	return strconv.FormatInt(d.now().UnixMilli(), 10)
}

// browserFailure turns an expected browser error into a failure response.
// Other errors are returned for the dispatcher to treat as fatal.
func browserFailure(err error, message string) (jarvistypes.AutomationResponse, error) {
	switch {
	case errors.Is(err, jarvistypes.ErrPopupBlocked), errors.Is(err, jarvistypes.ErrUnsupported):
		return jarvistypes.Failed(message), nil
	}
	return jarvistypes.AutomationResponse{}, err
}

func unknownAction(family, action string) jarvistypes.AutomationResponse {
	return jarvistypes.Failed(fmt.Sprintf("Unknown %s action: %s", family, action))
}
