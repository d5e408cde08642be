package jarvistypes

import "time"

// ScrollType selects how the scroll engine executes a ScrollCommand.
type ScrollType string

// Scroll types understood by the scroll engine.
const (
	ScrollPlain ScrollType = "scroll"
	ScrollAuto  ScrollType = "autoScroll"
	ScrollSmart ScrollType = "smartScroll"
)

// Direction is a scroll direction or document extreme.
type Direction string

// Supported directions.
const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionLeft   Direction = "left"
	DirectionRight  Direction = "right"
	DirectionTop    Direction = "top"
	DirectionBottom Direction = "bottom"
)

// Scroll defaults, in pixels and milliseconds.
const (
	DefaultScrollAmount   = 300
	DefaultScrollSpeed    = 1000
	DefaultScrollDuration = 20000
)

// ScrollCommand describes one scroll request.
// A zero Amount, Speed or Duration means the engine default applies.
// Percentage is set only for "scroll to N%" requests.
type ScrollCommand struct {
	Type       ScrollType `json:"type"`
	Direction  Direction  `json:"direction"`
	Amount     int        `json:"amount,omitempty"`
	Speed      int        `json:"speed,omitempty"`
	Duration   int        `json:"duration,omitempty"`
	Smooth     bool       `json:"smooth"`
	Target     string     `json:"target,omitempty"`
	Continuous bool       `json:"continuous,omitempty"`
	Percentage *float64   `json:"percentage,omitempty"`
}

// Position is a scroll offset in pixels.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ScrollResponse is the result of one scroll engine operation.
type ScrollResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Position  *Position `json:"position,omitempty"`
	Completed bool      `json:"completed,omitempty"`
}

// ScrollSample is one entry of the scroll position history.
type ScrollSample struct {
	Position
	Timestamp time.Time `json:"timestamp"`
}
