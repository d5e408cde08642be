package jarvistypes

import (
	"context"
	"errors"
)

var (
	// ErrPopupBlocked is returned by TabOpener when the browser refuses to open a tab.
	ErrPopupBlocked = errors.New("pop-up blocked")

	// ErrUnsupported is returned when the environment lacks a requested capability.
	ErrUnsupported = errors.New("operation not supported")
)

// Tab is a browser tab opened on behalf of the dispatcher.
type Tab interface {
	URL() string
	Closed() bool
	Close() error
}

// TabOpener opens new browser tabs.
type TabOpener interface {
	OpenTab(ctx context.Context, url string) (Tab, error)
}

// TabActivator is implemented by environments with more than one page. Activate makes tab the
// page that viewport, document and navigator calls act on, and reports whether it could.
type TabActivator interface {
	Activate(ctx context.Context, tab Tab) bool
}

// ScrollState describes the current viewport and document geometry.
type ScrollState struct {
	X              int
	Y              int
	ScrollWidth    int
	ScrollHeight   int
	ViewportWidth  int
	ViewportHeight int
}

// MaxScrollY returns the largest vertical offset the document allows.
func (s ScrollState) MaxScrollY() int {
	return s.ScrollHeight - s.ViewportHeight
}

// MaxScrollX returns the largest horizontal offset the document allows.
func (s ScrollState) MaxScrollX() int {
	return s.ScrollWidth - s.ViewportWidth
}

// Viewport scrolls the active page.
type Viewport interface {
	ScrollState(ctx context.Context) (ScrollState, error)
	ScrollBy(ctx context.Context, dx, dy int, smooth bool) error
	ScrollTo(ctx context.Context, x, y int, smooth bool) error
}

// Rect is an element bounding box relative to the viewport.
type Rect struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
	Height float64
	Width  float64
}

// Element is a DOM element of the active page.
type Element interface {
	TextContent(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, error)
	Property(ctx context.Context, name string) (string, error)
	Rect(ctx context.Context) (Rect, error)
	ScrollIntoView(ctx context.Context, block string) error
	Style(ctx context.Context) (string, error)
	SetStyle(ctx context.Context, css string) error
	Click(ctx context.Context) error
}

// PageInfo carries document-level metadata.
type PageInfo struct {
	Title        string
	URL          string
	Hostname     string
	LastModified string
}

// Document queries and decorates the DOM of the active page.
// QuerySelector returns a nil Element and nil error when nothing matches.
// QueryText returns elements whose text content contains text, case-insensitively, in document order.
type Document interface {
	QuerySelector(ctx context.Context, selector string) (Element, error)
	QuerySelectorAll(ctx context.Context, selector string) ([]Element, error)
	QueryText(ctx context.Context, text string) ([]Element, error)
	PageInfo(ctx context.Context) (PageInfo, error)
	HTML(ctx context.Context) (string, error)
	ShowIndicator(ctx context.Context, text string) error
	ClearIndicators(ctx context.Context) error
	Screenshot(ctx context.Context) ([]byte, error)
}

// Navigator controls history, reloads, fullscreen and zoom of the active page.
type Navigator interface {
	HistoryLength(ctx context.Context) (int, error)
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Reload(ctx context.Context) error
	CloseCurrent(ctx context.Context) error
	RequestFullscreen(ctx context.Context) error
	ExitFullscreen(ctx context.Context) error
	SetZoom(ctx context.Context, level float64) error
}

// MediaController drives audio and video elements on the active page.
// It returns the number of media elements affected.
type MediaController interface {
	ControlMedia(ctx context.Context, action string, volume float64) (int, error)
}

// Environment is the full browser capability set consumed by the scroll engine and dispatcher.
type Environment interface {
	TabOpener
	Viewport
	Document
	Navigator
	MediaController
}

// Storage is a string key/value store, the equivalent of browser local storage.
// GetItem reports false when the key is absent.
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Speaker turns text into audible speech using a voice profile.
type Speaker interface {
	Speak(ctx context.Context, text string, profile VoiceProfile) error
}

// SystemControl adjusts operating-system level settings such as volume.
type SystemControl interface {
	Volume(ctx context.Context, control string) error
}

// Notifier shows desktop notifications.
type Notifier interface {
	Notify(title, message string) error
}

// ImageGenerator creates images for a prompt and returns the paths of the saved files.
type ImageGenerator interface {
	GenerateImages(ctx context.Context, prompt string) ([]string, error)
}
