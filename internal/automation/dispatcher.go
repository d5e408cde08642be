// Package automation executes structured commands against a browser environment.
//
// The Dispatcher runs one command at a time. Commands issued while it is busy are queued in
// arrival order and drained in the background once the last running command completes.
// High-priority commands skip the queue and run alongside the running command.
package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"jarvis/internal/catalog"
	"jarvis/internal/grammar"
	"jarvis/internal/logger"
	"jarvis/internal/scroll"
	"jarvis/pkg/jarvistypes"
)

const (
	historyLimit = 100
	chainDelay   = 500
	queueDelay   = 300
)

// HandlerFunc executes one command kind. A returned error stops the dispatcher queue;
// expected failures such as an unknown platform are reported in the response instead.
type HandlerFunc func(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeUnit sets the length of one "millisecond" of dispatcher delays.
func WithTimeUnit(unit time.Duration) Option {
	return func(d *Dispatcher) {
		if unit > 0 {
			d.unit = unit
		}
	}
}

// WithCatalog replaces the embedded catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(d *Dispatcher) { d.catalog = c }
}

// WithScrollEngine shares an existing scroll engine. The dispatcher does not close it.
func WithScrollEngine(e *scroll.Engine) Option {
	return func(d *Dispatcher) { d.scroller = e }
}

// WithStorage enables bookmarks.
func WithStorage(s jarvistypes.Storage) Option {
	return func(d *Dispatcher) { d.storage = s }
}

// WithSystemControl enables system volume control.
func WithSystemControl(s jarvistypes.SystemControl) Option {
	return func(d *Dispatcher) { d.system = s }
}

// WithNotifier reports the results of queued commands, which have no caller to return to.
func WithNotifier(n jarvistypes.Notifier) Option {
	return func(d *Dispatcher) { d.notifier = n }
}

// WithImageGenerator makes generateImage create images instead of searching for them.
func WithImageGenerator(g jarvistypes.ImageGenerator) Option {
	return func(d *Dispatcher) { d.imageGen = g }
}

// WithChooser fixes the random source used for platform routing.
func WithChooser(c grammar.Chooser) Option {
	return func(d *Dispatcher) { d.chooser = c }
}

// WithClock replaces time.Now for tab keys and history timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithScreenshotDir sets where screenshots are written.
func WithScreenshotDir(dir string) Option {
	return func(d *Dispatcher) { d.screenshotDir = dir }
}

type trackedTab struct {
	key string
	tab jarvistypes.Tab
}

// Dispatcher executes StructuredCommands. All state is per instance.
type Dispatcher struct {
	env           jarvistypes.Environment
	catalog       *catalog.Catalog
	scroller      *scroll.Engine
	ownsScroller  bool
	storage       jarvistypes.Storage
	system        jarvistypes.SystemControl
	notifier      jarvistypes.Notifier
	imageGen      jarvistypes.ImageGenerator
	chooser       grammar.Chooser
	now           func() time.Time
	unit          time.Duration
	screenshotDir string
	log           *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	idle     *sync.Cond
	handlers map[jarvistypes.CommandKind]HandlerFunc
	enabled  bool
	active   int
	draining bool
	queue    []jarvistypes.StructuredCommand
	tabs     []trackedTab
	history  []jarvistypes.HistoryEntry
}

// NewDispatcher creates a Dispatcher for env. Unless WithScrollEngine is given it creates
// and owns a scroll engine on the same environment.
func NewDispatcher(env jarvistypes.Environment, opts ...Option) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		env:           env,
		unit:          time.Millisecond,
		now:           time.Now,
		screenshotDir: os.TempDir(),
		log:           logger.NewStyledLogger("Automation"),
		ctx:           ctx,
		cancel:        cancel,
		enabled:       true,
	}
	d.idle = sync.NewCond(&d.mu)
	for _, opt := range opts {
		opt(d)
	}
	if d.catalog == nil {
		d.catalog = catalog.MustDefault()
	}
	if d.scroller == nil {
		d.scroller = scroll.NewEngine(env, scroll.WithTimeUnit(d.unit))
		d.ownsScroller = true
	}
	d.handlers = d.defaultHandlers()
	return d
}

// RegisterHandler installs or replaces the handler for kind.
func (d *Dispatcher) RegisterHandler(kind jarvistypes.CommandKind, fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = fn
}

// ScrollEngine returns the engine used for scroll commands.
func (d *Dispatcher) ScrollEngine() *scroll.Engine {
	return d.scroller
}

// Execute runs cmd, queues it when another command is running, or rejects it when disabled.
// It always returns exactly one response.
func (d *Dispatcher) Execute(ctx context.Context, cmd jarvistypes.StructuredCommand) jarvistypes.AutomationResponse {
	start := time.Now()

	d.mu.Lock()
	if !d.enabled {
		d.mu.Unlock()
		return timed(jarvistypes.Failed("Automation is currently disabled"), start)
	}
	if d.busy() && cmd.Priority != jarvistypes.PriorityHigh {
		d.queue = append(d.queue, cmd)
		size := len(d.queue)
		d.mu.Unlock()
		d.log.Debug("Command queued", "kind", string(cmd.Kind), "queue", size)
		return timed(jarvistypes.Succeeded("Command queued for execution", nil), start)
	}
	d.active++
	d.mu.Unlock()

	resp, err := d.run(ctx, cmd)
	d.complete(err)
	return timed(resp, start)
}

// run executes cmd and its chain. The returned error means the dispatcher must stop.
func (d *Dispatcher) run(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	resp, err := d.invoke(ctx, cmd)
	if err != nil {
		return d.failure(cmd, err), err
	}
	d.record(cmd, resp)

	for i, chained := range cmd.ChainedCommands {
		if err := d.sleep(ctx, chainDelay); err != nil {
			return d.failure(cmd, err), err
		}
		chainResp, err := d.invoke(ctx, chained)
		if err != nil {
			return d.failure(chained, err), err
		}
		d.log.Info("Chained command finished", "kind", string(chained.Kind), "step", i+1, "success", chainResp.Success)
	}
	return resp, nil
}

func (d *Dispatcher) failure(cmd jarvistypes.StructuredCommand, err error) jarvistypes.AutomationResponse {
	d.log.Error("Command failed", "kind", string(cmd.Kind), "error", err)
	return jarvistypes.Failed(fmt.Sprintf("Automation error: %v", err))
}

// invoke calls the handler for cmd and converts a panic into an error.
func (d *Dispatcher) invoke(ctx context.Context, cmd jarvistypes.StructuredCommand) (resp jarvistypes.AutomationResponse, err error) {
	d.mu.Lock()
	handler, ok := d.handlers[cmd.Kind]
	d.mu.Unlock()
	if !ok {
		return jarvistypes.Failed(fmt.Sprintf("Unknown automation command: %s", cmd.Kind)), nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	logger.CommandDispatch(string(cmd.Kind), cmd.Action, cmd.Target)
	return handler(ctx, cmd)
}

// complete ends one active execution. On success it starts draining the queue when this was
// the last active execution; on failure the queue is left untouched.
func (d *Dispatcher) complete(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active--
	if err == nil && d.active == 0 && !d.draining && len(d.queue) > 0 {
		d.draining = true
		go d.drain()
	}
	if !d.busy() {
		d.idle.Broadcast()
	}
}

// drain runs queued commands one at a time, each after a short pause.
func (d *Dispatcher) drain() {
	defer func() {
		d.mu.Lock()
		d.draining = false
		if !d.busy() {
			d.idle.Broadcast()
		}
		d.mu.Unlock()
	}()

	for {
		if err := d.sleep(d.ctx, queueDelay); err != nil {
			return
		}

		d.mu.Lock()
		if len(d.queue) == 0 || !d.enabled {
			d.mu.Unlock()
			return
		}
		next := d.queue[0]
		d.queue = d.queue[1:]
		d.active++
		d.mu.Unlock()

		start := time.Now()
		resp, err := d.run(d.ctx, next)
		d.mu.Lock()
		d.active--
		d.mu.Unlock()
		d.report(next, timed(resp, start))
		if err != nil {
			return
		}
	}
}

// report delivers the result of a queued command.
func (d *Dispatcher) report(cmd jarvistypes.StructuredCommand, resp jarvistypes.AutomationResponse) {
	d.log.Info("Queued command finished", "kind", string(cmd.Kind), "success", resp.Success, "message", resp.Message)
	if d.notifier == nil {
		return
	}
	if err := d.notifier.Notify("JARVIS", resp.Message); err != nil {
		d.log.Debug("Notification failed", "error", err)
	}
}

// busy reports whether a command is running or the queue is being drained. Callers hold mu.
func (d *Dispatcher) busy() bool {
	return d.active > 0 || d.draining
}

func (d *Dispatcher) record(cmd jarvistypes.StructuredCommand, resp jarvistypes.AutomationResponse) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = append(d.history, jarvistypes.HistoryEntry{Command: cmd, Response: resp, Timestamp: d.now()})
	if len(d.history) > historyLimit {
		d.history = d.history[len(d.history)-historyLimit:]
	}
}

// sleep waits n time units or until ctx is done.
func (d *Dispatcher) sleep(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	t := time.NewTimer(time.Duration(n) * d.unit)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.ctx.Done():
		return d.ctx.Err()
	case <-t.C:
		return nil
	}
}

func timed(resp jarvistypes.AutomationResponse, start time.Time) jarvistypes.AutomationResponse {
	resp.ExecutionTime = time.Since(start)
	return resp
}

// IsExecuting reports whether a command is running or queued work is being drained.
func (d *Dispatcher) IsExecuting() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy()
}

// Wait blocks until no command is running and the queue drain has stopped.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.busy() {
		d.idle.Wait()
	}
}

// SetEnabled turns command execution on or off. Disabling drops pending commands.
func (d *Dispatcher) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
	if !enabled {
		d.queue = nil
	}
	d.log.Info("Automation toggled", "state", map[bool]string{true: "enabled", false: "disabled"}[enabled])
}

// Enabled reports whether commands are accepted.
func (d *Dispatcher) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// ClearQueue drops pending commands. Work already running is not interrupted.
func (d *Dispatcher) ClearQueue() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = nil
}

// QueueStatus lists pending commands in execution order.
func (d *Dispatcher) QueueStatus() jarvistypes.QueueStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	status := jarvistypes.QueueStatus{Length: len(d.queue), Commands: make([]string, 0, len(d.queue))}
	for _, c := range d.queue {
		status.Commands = append(status.Commands, string(c.Kind))
	}
	return status
}

// History returns executed commands, oldest first.
func (d *Dispatcher) History() []jarvistypes.HistoryEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]jarvistypes.HistoryEntry(nil), d.history...)
}

// GetOpenTabs returns the keys of tracked tabs that are still open, oldest first.
func (d *Dispatcher) GetOpenTabs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := make([]string, 0, len(d.tabs))
	for _, t := range d.tabs {
		if !t.tab.Closed() {
			keys = append(keys, t.key)
		}
	}
	return keys
}

// CloseAllTabs closes every tracked tab and forgets them.
func (d *Dispatcher) CloseAllTabs() error {
	d.mu.Lock()
	tabs := d.tabs
	d.tabs = nil
	d.mu.Unlock()

	var errs []error
	for _, t := range tabs {
		if t.tab.Closed() {
			continue
		}
		if err := t.tab.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", t.key, err))
		}
	}
	return errors.Join(errs...)
}

// Close stops background work and releases the owned scroll engine.
func (d *Dispatcher) Close() {
	d.cancel()
	d.Wait()
	if d.ownsScroller {
		d.scroller.Close()
	}
}
