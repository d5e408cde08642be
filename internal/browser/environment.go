// Package browser drives a Chrome instance through the DevTools protocol.
//
// Environment implements jarvistypes.Environment on top of go-rod. One page is active at a
// time; scroll, document and navigation calls act on it, while OpenTab creates background tabs.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"jarvis/internal/logger"
	"jarvis/pkg/jarvistypes"
)

var (
	_ jarvistypes.Environment  = (*Environment)(nil)
	_ jarvistypes.TabActivator = (*Environment)(nil)
)

// Options selects how the browser is reached.
type Options struct {
	// ControlURL connects to an already running browser. Empty launches a new one.
	ControlURL string
	// Headless launches the browser without a window.
	Headless bool
	// StartURL is loaded into the initial page.
	StartURL string
}

// Environment is a live browser session.
type Environment struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	log      *log.Logger

	mu        sync.Mutex
	home      *rod.Page
	active    *rod.Page
	activeTab *Tab
}

// Launch starts or connects to a browser and opens the initial page.
func Launch(ctx context.Context, opts Options) (*Environment, error) {
	env := &Environment{log: logger.NewStyledLogger("Browser")}

	controlURL := opts.ControlURL
	if controlURL == "" {
		env.launcher = launcher.New().Headless(opts.Headless).Context(ctx)
		u, err := env.launcher.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
	}

	env.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := env.browser.Connect(); err != nil {
		env.cleanupLauncher()
		return nil, fmt.Errorf("failed to connect to browser at %s: %w", controlURL, err)
	}

	start := opts.StartURL
	if start == "" {
		start = "about:blank"
	}
	page, err := env.browser.Page(proto.TargetCreateTarget{URL: start})
	if err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("failed to open initial page: %w", err)
	}
	env.home = page
	env.active = page
	env.log.Info("Browser ready", "state", "connected", "url", start)
	return env, nil
}

// Close disconnects from the browser and stops it when it was launched here.
func (e *Environment) Close() error {
	err := e.browser.Close()
	e.cleanupLauncher()
	return err
}

func (e *Environment) cleanupLauncher() {
	if e.launcher != nil {
		e.launcher.Kill()
		e.launcher.Cleanup()
	}
}

// page returns the active page bound to ctx. Once the active tab is closed the initial page
// takes over again.
func (e *Environment) page(ctx context.Context) *rod.Page {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.activeTab != nil && e.activeTab.Closed() {
		e.log.Debug("Active tab closed, returning to initial page", "url", e.activeTab.url)
		e.active = e.home
		e.activeTab = nil
	}
	return e.active.Context(ctx)
}

// Activate makes tab the active page and brings it to the front. It reports false when the
// tab is not an open browser tab.
func (e *Environment) Activate(ctx context.Context, tab jarvistypes.Tab) bool {
	t, ok := tab.(*Tab)
	if !ok || t.Closed() {
		return false
	}
	if _, err := t.page.Context(ctx).Activate(); err != nil {
		e.log.Debug("Failed to bring tab to front", "url", t.url, "error", err)
		return false
	}
	e.mu.Lock()
	e.active = t.page
	e.activeTab = t
	e.mu.Unlock()
	return true
}

// eval runs a function expression in the active page and decodes its JSON result into out.
func (e *Environment) eval(ctx context.Context, out any, js string, args ...any) error {
	res, err := e.page(ctx).Eval(js, args...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(res, out)
}

func decode(res *proto.RuntimeRemoteObject, out any) error {
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Tab is a page opened by OpenTab.
type Tab struct {
	page *rod.Page
	url  string

	mu     sync.Mutex
	closed bool
}

// URL returns the address the tab was opened with.
func (t *Tab) URL() string {
	return t.url
}

// Closed reports whether the tab was closed, here or by the user.
func (t *Tab) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return true
	}
	if _, err := t.page.Info(); err != nil {
		t.closed = true
	}
	return t.closed
}

// Close closes the tab.
func (t *Tab) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.page.Close()
}

// OpenTab opens url in a new background tab.
func (e *Environment) OpenTab(ctx context.Context, url string) (jarvistypes.Tab, error) {
	page, err := e.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url, Background: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", jarvistypes.ErrPopupBlocked, err)
	}
	e.log.Debug("Tab opened", "url", url)
	return &Tab{page: page, url: url}, nil
}

type scrollState struct {
	X              int `json:"x"`
	Y              int `json:"y"`
	ScrollWidth    int `json:"scrollWidth"`
	ScrollHeight   int `json:"scrollHeight"`
	ViewportWidth  int `json:"viewportWidth"`
	ViewportHeight int `json:"viewportHeight"`
}

// ScrollState reads the scroll offsets and document geometry.
func (e *Environment) ScrollState(ctx context.Context) (jarvistypes.ScrollState, error) {
	var s scrollState
	if err := e.eval(ctx, &s, scrollStateJS); err != nil {
		return jarvistypes.ScrollState{}, fmt.Errorf("failed to read scroll state: %w", err)
	}
	return jarvistypes.ScrollState(s), nil
}

// ScrollBy scrolls relative to the current offset.
func (e *Environment) ScrollBy(ctx context.Context, dx, dy int, smooth bool) error {
	return e.eval(ctx, nil, scrollByJS, dx, dy, smooth)
}

// ScrollTo scrolls to an absolute offset.
func (e *Environment) ScrollTo(ctx context.Context, x, y int, smooth bool) error {
	return e.eval(ctx, nil, scrollToJS, x, y, smooth)
}

// QuerySelector returns the first element matching selector, or nil.
func (e *Environment) QuerySelector(ctx context.Context, selector string) (jarvistypes.Element, error) {
	all, err := e.QuerySelectorAll(ctx, selector)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

// QuerySelectorAll returns every element matching selector in document order.
func (e *Environment) QuerySelectorAll(ctx context.Context, selector string) ([]jarvistypes.Element, error) {
	elements, err := e.page(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	return wrap(elements), nil
}

// QueryText returns elements whose text contains text, ignoring case.
func (e *Environment) QueryText(ctx context.Context, text string) ([]jarvistypes.Element, error) {
	elements, err := e.page(ctx).ElementsByJS(rod.Eval(queryTextJS, text))
	if err != nil {
		return nil, fmt.Errorf("text query %q: %w", text, err)
	}
	return wrap(elements), nil
}

func wrap(elements rod.Elements) []jarvistypes.Element {
	out := make([]jarvistypes.Element, 0, len(elements))
	for _, el := range elements {
		out = append(out, &Element{el: el})
	}
	return out
}

// PageInfo returns the title, address and modification date of the active page.
func (e *Environment) PageInfo(ctx context.Context) (jarvistypes.PageInfo, error) {
	p := e.page(ctx)
	info, err := p.Info()
	if err != nil {
		return jarvistypes.PageInfo{}, fmt.Errorf("failed to read page info: %w", err)
	}
	var modified string
	if err := e.eval(ctx, &modified, lastModifiedJS); err != nil {
		e.log.Debug("lastModified unavailable", "error", err)
	}
	return jarvistypes.PageInfo{
		Title:        info.Title,
		URL:          info.URL,
		Hostname:     hostname(info.URL),
		LastModified: modified,
	}, nil
}

func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// HTML returns the serialized document.
func (e *Environment) HTML(ctx context.Context) (string, error) {
	return e.page(ctx).HTML()
}

// ShowIndicator adds an on-page status badge.
func (e *Environment) ShowIndicator(ctx context.Context, text string) error {
	return e.eval(ctx, nil, showIndicatorJS, text)
}

// ClearIndicators removes every status badge.
func (e *Environment) ClearIndicators(ctx context.Context) error {
	return e.eval(ctx, nil, clearIndicatorsJS)
}

// Screenshot captures the visible viewport as PNG.
func (e *Environment) Screenshot(ctx context.Context) ([]byte, error) {
	return e.page(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// HistoryLength returns the number of session history entries.
func (e *Environment) HistoryLength(ctx context.Context) (int, error) {
	var n int
	err := e.eval(ctx, &n, historyLengthJS)
	return n, err
}

// Back goes one step back in history.
func (e *Environment) Back(ctx context.Context) error {
	return e.page(ctx).NavigateBack()
}

// Forward goes one step forward in history.
func (e *Environment) Forward(ctx context.Context) error {
	return e.page(ctx).NavigateForward()
}

// Reload reloads the active page.
func (e *Environment) Reload(ctx context.Context) error {
	return e.page(ctx).Reload()
}

// CloseCurrent closes the active page and activates the newest remaining one,
// opening a blank page when none is left.
func (e *Environment) CloseCurrent(ctx context.Context) error {
	current := e.page(ctx)
	closed := current.TargetID
	if err := current.Close(); err != nil {
		return err
	}
	pages, err := e.browser.Context(ctx).Pages()
	if err != nil {
		return err
	}
	var next *rod.Page
	if len(pages) > 0 {
		next = pages.Last()
	} else if next, err = e.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"}); err != nil {
		return err
	}
	e.mu.Lock()
	if e.home.TargetID == closed {
		e.home = next
	}
	e.active = next
	e.activeTab = nil
	e.mu.Unlock()
	return nil
}

// RequestFullscreen enters fullscreen, returning ErrUnsupported when the page refuses.
func (e *Environment) RequestFullscreen(ctx context.Context) error {
	return e.toggle(ctx, requestFullscreenJS)
}

// ExitFullscreen leaves fullscreen, returning ErrUnsupported when not in fullscreen.
func (e *Environment) ExitFullscreen(ctx context.Context) error {
	return e.toggle(ctx, exitFullscreenJS)
}

func (e *Environment) toggle(ctx context.Context, js string) error {
	var ok bool
	if err := e.eval(ctx, &ok, js); err != nil {
		return err
	}
	if !ok {
		return jarvistypes.ErrUnsupported
	}
	return nil
}

// SetZoom sets the CSS zoom factor of the document body.
func (e *Environment) SetZoom(ctx context.Context, level float64) error {
	return e.eval(ctx, nil, zoomJS, level)
}

// ControlMedia applies action to every audio and video element and returns how many there are.
func (e *Environment) ControlMedia(ctx context.Context, action string, volume float64) (int, error) {
	var n int
	if err := e.eval(ctx, &n, mediaJS, action, volume); err != nil {
		return 0, err
	}
	return n, nil
}

// Element is a DOM element of a browser page.
type Element struct {
	el *rod.Element
}

func (el *Element) eval(ctx context.Context, out any, js string, args ...any) error {
	res, err := el.el.Context(ctx).Eval(js, args...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(res, out)
}

// TextContent returns the element's text content.
func (el *Element) TextContent(ctx context.Context) (string, error) {
	var s string
	err := el.eval(ctx, &s, textContentJS)
	return s, err
}

// Attribute returns an attribute value, or "" when it is absent.
func (el *Element) Attribute(ctx context.Context, name string) (string, error) {
	v, err := el.el.Context(ctx).Attribute(name)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

// Property returns a DOM property as a string.
func (el *Element) Property(ctx context.Context, name string) (string, error) {
	v, err := el.el.Context(ctx).Property(name)
	if err != nil {
		return "", err
	}
	return v.Str(), nil
}

// Rect returns the bounding client rectangle.
func (el *Element) Rect(ctx context.Context) (jarvistypes.Rect, error) {
	var r struct {
		Top, Bottom, Left, Right, Height, Width float64
	}
	if err := el.eval(ctx, &r, rectJS); err != nil {
		return jarvistypes.Rect{}, err
	}
	return jarvistypes.Rect(r), nil
}

// ScrollIntoView smoothly scrolls the element to the given block alignment.
func (el *Element) ScrollIntoView(ctx context.Context, block string) error {
	return el.eval(ctx, nil, scrollIntoViewJS, block)
}

// Style returns the inline style.
func (el *Element) Style(ctx context.Context) (string, error) {
	var s string
	err := el.eval(ctx, &s, styleJS)
	return s, err
}

// SetStyle replaces the inline style.
func (el *Element) SetStyle(ctx context.Context, css string) error {
	return el.eval(ctx, nil, setStyleJS, css)
}

// Click clicks the element with the left mouse button.
func (el *Element) Click(ctx context.Context) error {
	err := el.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
	if errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}
