// Package scroll executes page scrolling for JARVIS: plain scrolls, timed auto-scrolls and
// content-aware smart scrolls. It also owns the scroll phrase grammar.
package scroll

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"jarvis/internal/logger"
	"jarvis/pkg/jarvistypes"
)

const (
	historyLimit      = 50
	boundaryCheckWait = 100
	highlightMillis   = 2000
)

// Page is the part of the browser environment the engine drives.
type Page interface {
	jarvistypes.Viewport
	jarvistypes.Document
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeUnit sets the duration of one "millisecond" of command timing.
// Tests pass a microsecond so a 20 s auto-scroll finishes in 20 ms.
func WithTimeUnit(unit time.Duration) Option {
	return func(e *Engine) {
		if unit > 0 {
			e.unit = unit
		}
	}
}

// autoRun is one active auto-scroll.
type autoRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Engine is the scroll state machine. It is Idle until an auto-scroll starts and returns to
// Idle on stop, on reaching a document boundary, or after the configured duration.
type Engine struct {
	page Page
	unit time.Duration
	log  *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// exec serializes ExecuteScrollCommand so stop-then-start is atomic.
	exec sync.Mutex

	mu             sync.Mutex
	enabled        bool
	scrolling      bool
	run            *autoRun
	current        *jarvistypes.ScrollCommand
	lastCompletion *jarvistypes.ScrollResponse
	history        []jarvistypes.ScrollSample
}

// NewEngine creates an Engine driving page.
func NewEngine(page Page, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		page:    page,
		unit:    time.Millisecond,
		log:     logger.NewStyledLogger("Scroll"),
		ctx:     ctx,
		cancel:  cancel,
		enabled: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetEnabled turns the engine on or off. Disabling stops any active auto-scroll.
func (e *Engine) SetEnabled(ctx context.Context, enabled bool) {
	if !enabled {
		e.StopScrolling(ctx)
	}
	e.mu.Lock()
	e.enabled = enabled
	e.mu.Unlock()
}

// ExecuteScrollCommand runs cmd after stopping any active auto-scroll. Concurrent calls run one
// at a time. Failures are reported in the response, never returned as errors.
func (e *Engine) ExecuteScrollCommand(ctx context.Context, cmd jarvistypes.ScrollCommand) jarvistypes.ScrollResponse {
	e.exec.Lock()
	defer e.exec.Unlock()

	e.mu.Lock()
	enabled := e.enabled
	e.mu.Unlock()
	if !enabled {
		return jarvistypes.ScrollResponse{Success: false, Message: "Scroll engine is currently disabled"}
	}

	e.StopScrolling(ctx)

	current := &cmd
	e.mu.Lock()
	e.current = current
	e.mu.Unlock()
	// Only a running auto-scroll keeps its command current.
	defer func() {
		e.mu.Lock()
		if e.current == current && e.run == nil {
			e.current = nil
		}
		e.mu.Unlock()
	}()

	e.log.Debug("Executing scroll command", "state", string(cmd.Type), "direction", cmd.Direction)

	var (
		resp jarvistypes.ScrollResponse
		err  error
	)
	switch {
	case cmd.Percentage != nil:
		resp, err = e.ScrollToPercentage(ctx, *cmd.Percentage, cmd.Smooth)
	case cmd.Type == jarvistypes.ScrollPlain:
		resp, err = e.basicScroll(ctx, cmd)
	case cmd.Type == jarvistypes.ScrollAuto:
		resp, err = e.autoScroll(ctx, cmd)
	case cmd.Type == jarvistypes.ScrollSmart:
		resp, err = e.smartScroll(ctx, cmd)
	default:
		resp = jarvistypes.ScrollResponse{Success: false, Message: fmt.Sprintf("Unknown scroll type: %s", cmd.Type)}
	}
	if err != nil {
		e.log.Warn("Scroll failed", "error", err)
		return jarvistypes.ScrollResponse{Success: false, Message: fmt.Sprintf("Scroll error: %v", err)}
	}
	return resp
}

func (e *Engine) basicScroll(ctx context.Context, cmd jarvistypes.ScrollCommand) (jarvistypes.ScrollResponse, error) {
	amount := cmd.Amount
	if amount <= 0 {
		amount = jarvistypes.DefaultScrollAmount
	}

	state, err := e.page.ScrollState(ctx)
	if err != nil {
		return jarvistypes.ScrollResponse{}, err
	}

	message := fmt.Sprintf("Scrolled %s by %dpx", cmd.Direction, amount)
	switch cmd.Direction {
	case jarvistypes.DirectionUp:
		err = e.page.ScrollBy(ctx, 0, -amount, cmd.Smooth)
	case jarvistypes.DirectionDown:
		err = e.page.ScrollBy(ctx, 0, amount, cmd.Smooth)
	case jarvistypes.DirectionLeft:
		err = e.page.ScrollBy(ctx, -amount, 0, cmd.Smooth)
	case jarvistypes.DirectionRight:
		err = e.page.ScrollBy(ctx, amount, 0, cmd.Smooth)
	case jarvistypes.DirectionTop:
		err = e.page.ScrollTo(ctx, state.X, 0, cmd.Smooth)
		message = "Scrolled to top"
	case jarvistypes.DirectionBottom:
		err = e.page.ScrollTo(ctx, state.X, state.ScrollHeight, cmd.Smooth)
		message = "Scrolled to bottom"
	default:
		return jarvistypes.ScrollResponse{Success: false, Message: fmt.Sprintf("Unknown scroll direction: %s", cmd.Direction)}, nil
	}
	if err != nil {
		return jarvistypes.ScrollResponse{}, err
	}

	pos, err := e.position(ctx)
	if err != nil {
		return jarvistypes.ScrollResponse{}, err
	}
	return jarvistypes.ScrollResponse{Success: true, Message: message, Position: pos}, nil
}

func (e *Engine) autoScroll(ctx context.Context, cmd jarvistypes.ScrollCommand) (jarvistypes.ScrollResponse, error) {
	amount := cmd.Amount
	if amount <= 0 {
		amount = jarvistypes.DefaultScrollAmount
	}
	speed := cmd.Speed
	if speed <= 0 {
		speed = jarvistypes.DefaultScrollSpeed
	}
	duration := cmd.Duration
	if duration <= 0 {
		duration = jarvistypes.DefaultScrollDuration
	}

	direction := cmd.Direction
	switch direction {
	case jarvistypes.DirectionTop:
		direction = jarvistypes.DirectionUp
	case jarvistypes.DirectionBottom, "":
		direction = jarvistypes.DirectionDown
	}

	pos, err := e.position(ctx)
	if err != nil {
		return jarvistypes.ScrollResponse{}, err
	}

	runCtx, cancel := context.WithCancel(e.ctx)
	run := &autoRun{cancel: cancel, done: make(chan struct{})}

	e.mu.Lock()
	previous := e.run
	e.scrolling = true
	e.run = run
	e.mu.Unlock()
	if previous != nil {
		previous.cancel()
		<-previous.done
	}

	e.log.Info("Auto-scroll started", "state", "scrolling", "direction", direction, "speed", speed, "duration", duration)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(run.done)
		e.autoLoop(runCtx, run, direction, amount, speed, duration/speed)
	}()

	seconds := strconv.FormatFloat(float64(duration)/1000, 'f', -1, 64)
	return jarvistypes.ScrollResponse{
		Success:  true,
		Message:  fmt.Sprintf("Started auto-scrolling %s for %ss", direction, seconds),
		Position: pos,
	}, nil
}

func (e *Engine) autoLoop(ctx context.Context, run *autoRun, direction jarvistypes.Direction, amount, speed, maxScrolls int) {
	start := time.Now()
	count := 0

	dx, dy := 0, 0
	switch direction {
	case jarvistypes.DirectionUp:
		dy = -amount
	case jarvistypes.DirectionDown:
		dy = amount
	case jarvistypes.DirectionLeft:
		dx = -amount
	case jarvistypes.DirectionRight:
		dx = amount
	}

	for {
		if count >= maxScrolls {
			elapsed := int(math.Round(float64(time.Since(start)/e.unit) / 1000))
			e.finish(run, true, fmt.Sprintf("Auto-scroll completed. Scrolled %d times in %ds.", count, elapsed))
			return
		}

		before, err := e.page.ScrollState(ctx)
		if err != nil {
			e.finish(run, false, fmt.Sprintf("Scroll error: %v", err))
			return
		}
		_ = e.page.ShowIndicator(ctx, fmt.Sprintf("Auto-scrolling %s...", direction))
		if err := e.page.ScrollBy(ctx, dx, dy, true); err != nil {
			e.finish(run, false, fmt.Sprintf("Scroll error: %v", err))
			return
		}
		count++

		if !e.sleep(ctx, boundaryCheckWait) {
			return
		}
		after, err := e.page.ScrollState(ctx)
		if err != nil {
			e.finish(run, false, fmt.Sprintf("Scroll error: %v", err))
			return
		}
		e.record(after)
		if atBoundary(direction, before, after) {
			e.finish(run, true, fmt.Sprintf("Auto-scroll reached the end after %d scrolls.", count))
			return
		}

		if rest := speed - boundaryCheckWait; rest > 0 {
			if !e.sleep(ctx, rest) {
				return
			}
		}
	}
}

// atBoundary reports whether a step left the position unchanged at the extreme it was heading to.
func atBoundary(direction jarvistypes.Direction, before, after jarvistypes.ScrollState) bool {
	switch direction {
	case jarvistypes.DirectionDown:
		return after.Y == before.Y && after.Y >= after.MaxScrollY()
	case jarvistypes.DirectionUp:
		return after.Y == before.Y && after.Y <= 0
	case jarvistypes.DirectionRight:
		return after.X == before.X && after.X >= after.MaxScrollX()
	case jarvistypes.DirectionLeft:
		return after.X == before.X && after.X <= 0
	}
	return false
}

// finish moves the engine back to Idle if run is still the active auto-scroll.
func (e *Engine) finish(run *autoRun, success bool, message string) {
	pos, _ := e.position(e.ctx)

	e.mu.Lock()
	if e.run != run {
		e.mu.Unlock()
		return
	}
	e.scrolling = false
	e.run = nil
	e.current = nil
	e.lastCompletion = &jarvistypes.ScrollResponse{Success: success, Message: message, Position: pos, Completed: true}
	e.mu.Unlock()

	_ = e.page.ClearIndicators(e.ctx)
	e.log.Info("Auto-scroll finished", "state", "idle", "message", message)
}

// sleep waits n time units and reports false when ctx was cancelled first.
func (e *Engine) sleep(ctx context.Context, n int) bool {
	t := time.NewTimer(time.Duration(n) * e.unit)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// StopScrolling cancels any active auto-scroll and clears the indicators. It is idempotent.
func (e *Engine) StopScrolling(ctx context.Context) {
	e.mu.Lock()
	run := e.run
	wasScrolling := e.scrolling
	e.run = nil
	e.scrolling = false
	e.current = nil
	e.mu.Unlock()

	if run != nil {
		run.cancel()
		<-run.done
	}
	if err := e.page.ClearIndicators(ctx); err != nil {
		e.log.Debug("Failed to clear indicators", "error", err)
	}
	if wasScrolling {
		e.log.Info("Auto-scroll stopped", "state", "idle")
	}
}

// IsCurrentlyScrolling reports whether an auto-scroll is active.
func (e *Engine) IsCurrentlyScrolling() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scrolling
}

// CurrentCommand returns the command being executed, or nil when Idle.
func (e *Engine) CurrentCommand() *jarvistypes.ScrollCommand {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	c := *e.current
	return &c
}

// LastCompletion returns the final response of the most recent auto-scroll that ended on its own.
func (e *Engine) LastCompletion() *jarvistypes.ScrollResponse {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastCompletion == nil {
		return nil
	}
	r := *e.lastCompletion
	return &r
}

// ScrollHistory returns the last recorded positions, oldest first.
func (e *Engine) ScrollHistory() []jarvistypes.ScrollSample {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]jarvistypes.ScrollSample(nil), e.history...)
}

// ScrollToPercentage scrolls to p percent of the scrollable height.
func (e *Engine) ScrollToPercentage(ctx context.Context, p float64, smooth bool) (jarvistypes.ScrollResponse, error) {
	state, err := e.page.ScrollState(ctx)
	if err != nil {
		return jarvistypes.ScrollResponse{}, err
	}
	maxScroll := state.MaxScrollY()
	target := 0
	if maxScroll > 0 {
		target = int(math.Round(float64(maxScroll) * p / 100))
	}
	if err := e.page.ScrollTo(ctx, state.X, target, smooth); err != nil {
		return jarvistypes.ScrollResponse{}, err
	}
	pos, err := e.position(ctx)
	if err != nil {
		return jarvistypes.ScrollResponse{}, err
	}
	return jarvistypes.ScrollResponse{
		Success:  true,
		Message:  fmt.Sprintf("Scrolled to %s%% of page", strconv.FormatFloat(p, 'f', -1, 64)),
		Position: pos,
	}, nil
}

// GetScrollPercentage returns the vertical position as a percentage of the scrollable height.
// A page that cannot scroll reports 0.
func (e *Engine) GetScrollPercentage(ctx context.Context) (float64, error) {
	state, err := e.page.ScrollState(ctx)
	if err != nil {
		return 0, err
	}
	maxScroll := state.MaxScrollY()
	if maxScroll <= 0 {
		return 0, nil
	}
	return float64(state.Y) / float64(maxScroll) * 100, nil
}

// position reads the current offset and appends it to the history.
func (e *Engine) position(ctx context.Context) (*jarvistypes.Position, error) {
	state, err := e.page.ScrollState(ctx)
	if err != nil {
		return nil, err
	}
	e.record(state)
	return &jarvistypes.Position{X: state.X, Y: state.Y}, nil
}

func (e *Engine) record(state jarvistypes.ScrollState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, jarvistypes.ScrollSample{
		Position:  jarvistypes.Position{X: state.X, Y: state.Y},
		Timestamp: time.Now(),
	})
	if len(e.history) > historyLimit {
		e.history = e.history[len(e.history)-historyLimit:]
	}
}

// Close stops scrolling, restores highlighted elements and waits for background work.
func (e *Engine) Close() {
	e.StopScrolling(context.Background())
	e.cancel()
	e.wg.Wait()
}
