package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressBar represents a terminal progress bar. It is safe for concurrent
// use.
type ProgressBar struct {
	mu      sync.Mutex
	total   int
	current int
	width   int
	prefix  string
	start   time.Time
	out     io.Writer
}

// NewProgressBar creates a new progress bar writing to stderr
func NewProgressBar(total int, prefix string) *ProgressBar {
	return &ProgressBar{
		total:  total,
		width:  40,
		prefix: prefix,
		start:  time.Now(),
		out:    os.Stderr,
	}
}

// Update updates the progress bar
func (p *ProgressBar) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current
	p.render()
}

// Increment increments the progress by 1
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	p.render()
}

// Current returns the current progress.
func (p *ProgressBar) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Finish completes the progress bar
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.total
	p.render()
	if IsTerminal() {
		fmt.Fprintln(p.out)
	}
}

func (p *ProgressBar) render() {
	if !IsTerminal() || p.total <= 0 {
		return
	}

	current := p.current
	if current > p.total {
		current = p.total
	}
	percent := float64(current) / float64(p.total)
	filled := int(percent * float64(p.width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.width-filled)

	elapsed := time.Since(p.start).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(current) / elapsed
	}

	fmt.Fprintf(p.out, "\r%s [%s] %d/%d (%.0f/s)", p.prefix, bar, current, p.total, rate)
}
