package testutils

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"jarvis/pkg/jarvistypes"
)

// FakeTab is an in-memory browser tab.
type FakeTab struct {
	mu     sync.Mutex
	url    string
	closed bool

	// Info is what PageInfo reports while the tab is active.
	Info jarvistypes.PageInfo
}

// URL returns the address the tab was opened with.
func (t *FakeTab) URL() string {
	return t.url
}

// Closed reports whether Close was called.
func (t *FakeTab) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Close marks the tab closed.
func (t *FakeTab) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// FakeElement is a DOM element positioned in document coordinates.
type FakeElement struct {
	Tag    string
	Text   string
	Attrs  map[string]string
	Top    float64
	Height float64
	Clicks int

	style string
	env   *FakeEnvironment
}

// TextContent returns the element text.
func (e *FakeElement) TextContent(_ context.Context) (string, error) {
	return e.Text, nil
}

// Attribute returns an attribute value or an empty string.
func (e *FakeElement) Attribute(_ context.Context, name string) (string, error) {
	return e.Attrs[name], nil
}

// Property supports tagName, id and className.
func (e *FakeElement) Property(_ context.Context, name string) (string, error) {
	switch name {
	case "tagName":
		return strings.ToUpper(e.Tag), nil
	case "id":
		return e.Attrs["id"], nil
	case "className":
		return e.Attrs["class"], nil
	}
	return e.Attrs[name], nil
}

// Rect returns the bounding box relative to the current viewport.
func (e *FakeElement) Rect(_ context.Context) (jarvistypes.Rect, error) {
	e.env.mu.Lock()
	defer e.env.mu.Unlock()
	top := e.Top - float64(e.env.state.Y)
	return jarvistypes.Rect{
		Top:    top,
		Bottom: top + e.Height,
		Height: e.Height,
		Width:  float64(e.env.state.ViewportWidth),
		Right:  float64(e.env.state.ViewportWidth),
	}, nil
}

// ScrollIntoView aligns the element with the viewport start or center.
func (e *FakeElement) ScrollIntoView(_ context.Context, block string) error {
	e.env.mu.Lock()
	defer e.env.mu.Unlock()
	if err := e.env.fail("ScrollIntoView"); err != nil {
		return err
	}
	y := e.Top
	if block == "center" {
		y = e.Top + e.Height/2 - float64(e.env.state.ViewportHeight)/2
	}
	e.env.state.Y = e.env.clampY(int(y))
	e.env.scrolledInto = append(e.env.scrolledInto, e)
	return nil
}

// Style returns the inline style.
func (e *FakeElement) Style(_ context.Context) (string, error) {
	e.env.mu.Lock()
	defer e.env.mu.Unlock()
	return e.style, nil
}

// SetStyle replaces the inline style.
func (e *FakeElement) SetStyle(_ context.Context, css string) error {
	e.env.mu.Lock()
	defer e.env.mu.Unlock()
	e.style = css
	return nil
}

// Click records a click.
func (e *FakeElement) Click(_ context.Context) error {
	e.env.mu.Lock()
	defer e.env.mu.Unlock()
	e.Clicks++
	return nil
}

// CurrentStyle returns the inline style without a context, for assertions.
func (e *FakeElement) CurrentStyle() string {
	e.env.mu.Lock()
	defer e.env.mu.Unlock()
	return e.style
}

// FakeEnvironment implements jarvistypes.Environment in memory for headless tests.
// Scrolling is clamped to the document bounds the way browsers clamp it.
type FakeEnvironment struct {
	mu sync.Mutex

	state        jarvistypes.ScrollState
	elements     []*FakeElement
	tabs         []*FakeTab
	active       *FakeTab
	scrolledInto []*FakeElement
	indicators   []string
	calls        []string
	failures     map[string]error

	PopupBlocked        bool
	HistoryLen          int
	FullscreenSupported bool
	Fullscreen          bool
	Zoom                float64
	MediaCount          int
	Info                jarvistypes.PageInfo
	PageHTML            string
	ScreenshotData      []byte
	IndicatorsCleared   int
	ScrollCalls         int
}

// NewFakeEnvironment creates a page with the given viewport and document height.
func NewFakeEnvironment(viewportHeight, scrollHeight int) *FakeEnvironment {
	return &FakeEnvironment{
		state: jarvistypes.ScrollState{
			ScrollWidth:    1280,
			ScrollHeight:   scrollHeight,
			ViewportWidth:  1280,
			ViewportHeight: viewportHeight,
		},
		failures:            make(map[string]error),
		HistoryLen:          1,
		FullscreenSupported: true,
		Zoom:                1,
		Info: jarvistypes.PageInfo{
			Title:    "Test Page",
			URL:      "https://example.com/article",
			Hostname: "example.com",
		},
	}
}

// AddElement appends an element in document order and returns it.
func (f *FakeEnvironment) AddElement(tag, text string, top, height float64, attrs map[string]string) *FakeElement {
	f.mu.Lock()
	defer f.mu.Unlock()
	if attrs == nil {
		attrs = map[string]string{}
	}
	el := &FakeElement{Tag: tag, Text: text, Top: top, Height: height, Attrs: attrs, env: f}
	if s, ok := attrs["style"]; ok {
		el.style = s
	}
	f.elements = append(f.elements, el)
	return el
}

// FailWith makes the named method return err until cleared with a nil error.
func (f *FakeEnvironment) FailWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, method)
		return
	}
	f.failures[method] = err
}

func (f *FakeEnvironment) fail(method string) error {
	return f.failures[method]
}

func (f *FakeEnvironment) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *FakeEnvironment) clampY(y int) int {
	maxY := f.state.MaxScrollY()
	if y > maxY {
		y = maxY
	}
	if y < 0 {
		y = 0
	}
	return y
}

func (f *FakeEnvironment) clampX(x int) int {
	maxX := f.state.MaxScrollX()
	if x > maxX {
		x = maxX
	}
	if x < 0 {
		x = 0
	}
	return x
}

// OpenTab opens a tab unless pop-ups are blocked.
func (f *FakeEnvironment) OpenTab(_ context.Context, rawURL string) (jarvistypes.Tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("OpenTab"); err != nil {
		return nil, err
	}
	if f.PopupBlocked {
		return nil, jarvistypes.ErrPopupBlocked
	}
	tab := &FakeTab{url: rawURL, Info: jarvistypes.PageInfo{Title: rawURL, URL: rawURL}}
	if u, err := url.Parse(rawURL); err == nil {
		tab.Info.Hostname = u.Hostname()
	}
	f.tabs = append(f.tabs, tab)
	return tab, nil
}

// Activate switches page-level calls to tab. Only open tabs created by this environment qualify.
func (f *FakeEnvironment) Activate(_ context.Context, tab jarvistypes.Tab) bool {
	t, ok := tab.(*FakeTab)
	if !ok || t.Closed() {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, known := range f.tabs {
		if known == t {
			f.active = t
			f.record("activate:" + t.url)
			return true
		}
	}
	return false
}

// ActiveURL returns the URL of the active tab, or "" while the initial page is active.
func (f *FakeEnvironment) ActiveURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil || f.active.Closed() {
		return ""
	}
	return f.active.url
}

// OpenedURLs returns the URLs of every tab opened so far, in order.
func (f *FakeEnvironment) OpenedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	urls := make([]string, 0, len(f.tabs))
	for _, t := range f.tabs {
		urls = append(urls, t.url)
	}
	return urls
}

// Tabs returns the opened tabs.
func (f *FakeEnvironment) Tabs() []*FakeTab {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeTab(nil), f.tabs...)
}

// ScrollState returns the current geometry.
func (f *FakeEnvironment) ScrollState(_ context.Context) (jarvistypes.ScrollState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ScrollState"); err != nil {
		return jarvistypes.ScrollState{}, err
	}
	return f.state, nil
}

// ScrollBy scrolls relative to the current offset.
func (f *FakeEnvironment) ScrollBy(_ context.Context, dx, dy int, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ScrollBy"); err != nil {
		return err
	}
	f.ScrollCalls++
	f.state.X = f.clampX(f.state.X + dx)
	f.state.Y = f.clampY(f.state.Y + dy)
	return nil
}

// ScrollTo scrolls to an absolute offset.
func (f *FakeEnvironment) ScrollTo(_ context.Context, x, y int, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ScrollTo"); err != nil {
		return err
	}
	f.ScrollCalls++
	f.state.X = f.clampX(x)
	f.state.Y = f.clampY(y)
	return nil
}

// SetScrollY moves the viewport without counting a scroll call.
func (f *FakeEnvironment) SetScrollY(y int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Y = f.clampY(y)
}

// ScrollY returns the vertical offset.
func (f *FakeEnvironment) ScrollY() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Y
}

// ScrollCount returns the number of ScrollBy and ScrollTo calls.
func (f *FakeEnvironment) ScrollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ScrollCalls
}

// QuerySelector returns the first matching element or nil.
func (f *FakeEnvironment) QuerySelector(ctx context.Context, selector string) (jarvistypes.Element, error) {
	all, err := f.QuerySelectorAll(ctx, selector)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

// QuerySelectorAll supports tag, #id, .class, [attr], [attr*="v"] and comma-separated lists.
func (f *FakeEnvironment) QuerySelectorAll(_ context.Context, selector string) ([]jarvistypes.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("QuerySelector"); err != nil {
		return nil, err
	}
	parts := strings.Split(selector, ",")
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("invalid selector %q", selector)
		}
	}
	var out []jarvistypes.Element
	for _, el := range f.elements {
		for _, p := range parts {
			if matchSelector(el, strings.TrimSpace(p)) {
				out = append(out, el)
				break
			}
		}
	}
	return out, nil
}

func matchSelector(el *FakeElement, sel string) bool {
	switch {
	case strings.HasPrefix(sel, "#"):
		return el.Attrs["id"] != "" && el.Attrs["id"] == sel[1:]
	case strings.HasPrefix(sel, "."):
		for _, c := range strings.Fields(el.Attrs["class"]) {
			if c == sel[1:] {
				return true
			}
		}
		return false
	case strings.Contains(sel, "["):
		open := strings.Index(sel, "[")
		tag := sel[:open]
		if tag != "" && tag != el.Tag {
			return false
		}
		inner := strings.TrimSuffix(sel[open+1:], "]")
		if name, value, ok := strings.Cut(inner, "*="); ok {
			value = strings.Trim(value, `"'`)
			v, has := el.Attrs[name]
			return has && strings.Contains(v, value)
		}
		_, has := el.Attrs[inner]
		return has
	}
	return el.Tag == sel
}

// QueryText returns elements whose text contains text, ignoring case.
func (f *FakeEnvironment) QueryText(_ context.Context, text string) ([]jarvistypes.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	needle := strings.ToLower(text)
	var out []jarvistypes.Element
	for _, el := range f.elements {
		if strings.Contains(strings.ToLower(el.Text), needle) {
			out = append(out, el)
		}
	}
	return out, nil
}

// ScrolledInto returns the elements passed to ScrollIntoView, in order.
func (f *FakeEnvironment) ScrolledInto() []*FakeElement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeElement(nil), f.scrolledInto...)
}

// PageInfo returns the active tab's metadata, or Info while the initial page is active.
func (f *FakeEnvironment) PageInfo(_ context.Context) (jarvistypes.PageInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active != nil && !f.active.Closed() {
		return f.active.Info, nil
	}
	return f.Info, nil
}

// HTML returns the configured page markup.
func (f *FakeEnvironment) HTML(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("HTML"); err != nil {
		return "", err
	}
	return f.PageHTML, nil
}

// ShowIndicator records an indicator text.
func (f *FakeEnvironment) ShowIndicator(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indicators = append(f.indicators, text)
	return nil
}

// ClearIndicators removes all indicators.
func (f *FakeEnvironment) ClearIndicators(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indicators = nil
	f.IndicatorsCleared++
	return nil
}

// Indicators returns the indicators currently shown.
func (f *FakeEnvironment) Indicators() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.indicators...)
}

// Screenshot returns the configured image bytes.
func (f *FakeEnvironment) Screenshot(_ context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("Screenshot"); err != nil {
		return nil, err
	}
	return f.ScreenshotData, nil
}

// HistoryLength returns the configured history length.
func (f *FakeEnvironment) HistoryLength(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.HistoryLen, nil
}

// Back records a history step backwards.
func (f *FakeEnvironment) Back(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("back")
	return nil
}

// Forward records a history step forwards.
func (f *FakeEnvironment) Forward(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("forward")
	return nil
}

// Reload records a reload.
func (f *FakeEnvironment) Reload(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("reload")
	return nil
}

// CloseCurrent records closing the active page.
func (f *FakeEnvironment) CloseCurrent(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("closeCurrent")
	return nil
}

// RequestFullscreen enters fullscreen when supported.
func (f *FakeEnvironment) RequestFullscreen(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.FullscreenSupported {
		return jarvistypes.ErrUnsupported
	}
	f.Fullscreen = true
	f.record("fullscreen")
	return nil
}

// ExitFullscreen leaves fullscreen, or returns ErrUnsupported when not in fullscreen.
func (f *FakeEnvironment) ExitFullscreen(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Fullscreen {
		return jarvistypes.ErrUnsupported
	}
	f.Fullscreen = false
	f.record("exitFullscreen")
	return nil
}

// SetZoom stores the zoom level.
func (f *FakeEnvironment) SetZoom(_ context.Context, level float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Zoom = level
	f.record(fmt.Sprintf("zoom:%g", level))
	return nil
}

// ControlMedia records a media action.
func (f *FakeEnvironment) ControlMedia(_ context.Context, action string, volume float64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if action == "volume" {
		f.record(fmt.Sprintf("media:volume:%g", volume))
	} else {
		f.record("media:" + action)
	}
	return f.MediaCount, nil
}

// Calls returns the navigation and media calls made so far.
func (f *FakeEnvironment) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
