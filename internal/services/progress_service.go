package services

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const defaultProgressInterval = 100 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ProgressService draws single-line spinners with an elapsed-seconds counter while the shell
// waits on slow work such as an AI reply. Each indicator rewrites its own line and erases it on stop.
type ProgressService struct {
	initialized bool
	out         io.Writer
	interval    time.Duration
	style       lipgloss.Style

	mu     sync.Mutex
	active map[string]*indicator
}

type indicator struct {
	label string
	start time.Time
	stop  chan struct{}
	done  chan struct{}
	width int
}

// NewProgressService creates a service writing to out. A nil out disables drawing.
func NewProgressService(out io.Writer) *ProgressService {
	return &ProgressService{
		out:      out,
		interval: defaultProgressInterval,
		style:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		active:   make(map[string]*indicator),
	}
}

// Name returns the service name "progress" for registration.
func (p *ProgressService) Name() string {
	return "progress"
}

// Initialize marks the service ready.
func (p *ProgressService) Initialize() error {
	p.initialized = true
	return nil
}

// SetInterval changes the redraw interval for indicators started afterwards.
func (p *ProgressService) SetInterval(d time.Duration) {
	if d > 0 {
		p.mu.Lock()
		p.interval = d
		p.mu.Unlock()
	}
}

// Start shows an indicator labelled label, replacing any indicator already running under id.
func (p *ProgressService) Start(id, label string) error {
	if !p.initialized {
		return fmt.Errorf("progress service not initialized")
	}
	if p.out == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.active[id]; ok {
		p.halt(existing)
		delete(p.active, id)
	}

	ind := &indicator{
		label: label,
		start: time.Now(),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	p.active[id] = ind
	go p.run(ind, p.interval)
	return nil
}

// Stop erases the indicator registered under id and waits for it to finish.
func (p *ProgressService) Stop(id string) error {
	if !p.initialized {
		return fmt.Errorf("progress service not initialized")
	}

	p.mu.Lock()
	ind, ok := p.active[id]
	if ok {
		delete(p.active, id)
	}
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("progress indicator %q not found", id)
	}
	close(ind.stop)
	<-ind.done
	return nil
}

// StopAll erases every running indicator.
func (p *ProgressService) StopAll() {
	p.mu.Lock()
	running := p.active
	p.active = make(map[string]*indicator)
	p.mu.Unlock()

	for _, ind := range running {
		close(ind.stop)
		<-ind.done
	}
}

// IsActive reports whether an indicator is running under id.
func (p *ProgressService) IsActive(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[id]
	return ok
}

// Track runs fn with an indicator shown for its duration.
func (p *ProgressService) Track(id, label string, fn func() error) error {
	if err := p.Start(id, label); err != nil {
		return fn()
	}
	defer func() { _ = p.Stop(id) }()
	return fn()
}

// halt must be called with p.mu held.
func (p *ProgressService) halt(ind *indicator) {
	close(ind.stop)
	p.mu.Unlock()
	<-ind.done
	p.mu.Lock()
}

func (p *ProgressService) run(ind *indicator, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		p.erase(ind)
		close(ind.done)
	}()

	frame := 0
	for {
		select {
		case <-ind.stop:
			return
		case <-ticker.C:
			p.draw(ind, frame)
			frame = (frame + 1) % len(spinnerFrames)
		}
	}
}

func (p *ProgressService) draw(ind *indicator, frame int) {
	text := fmt.Sprintf("%s %s %ds", spinnerFrames[frame], ind.label, int(time.Since(ind.start).Seconds()))
	p.erase(ind)
	_, _ = fmt.Fprint(p.out, "\r"+p.style.Render(text))
	ind.width = lipgloss.Width(text)
}

func (p *ProgressService) erase(ind *indicator) {
	if ind.width > 0 {
		_, _ = fmt.Fprint(p.out, "\r"+strings.Repeat(" ", ind.width)+"\r")
		ind.width = 0
	}
}
