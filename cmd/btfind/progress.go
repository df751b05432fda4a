package main

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	progressUpdateInterval = 100 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// ProgressPrinter shows a countdown while a blocking inquiry runs.
//
// A ProgressPrinter is single-use: Start once, Stop once (extra Stops are no-ops).
type ProgressPrinter struct {
	out      io.Writer
	prefix   string
	duration time.Duration

	startTime time.Time
	ticker    *time.Ticker
	stopOnce  sync.Once
	stopChan  chan struct{}
	done      chan struct{}
}

// NewCountdownProgressPrinter counts down from duration. When duration is 0 it
// counts elapsed seconds instead.
func NewCountdownProgressPrinter(out io.Writer, prefix string, duration time.Duration) *ProgressPrinter {
	return &ProgressPrinter{
		out:      out,
		prefix:   prefix,
		duration: duration,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins updating the progress line in a background goroutine.
func (p *ProgressPrinter) Start() {
	p.startTime = time.Now()
	p.ticker = time.NewTicker(progressUpdateInterval)
	fmt.Fprintf(p.out, "\r%s...   ", p.prefix)

	go func() {
		defer close(p.done)
		for {
			select {
			case <-p.stopChan:
				return
			case <-p.ticker.C:
				fmt.Fprintf(p.out, "\r%s (%ds)   ", p.prefix, p.seconds(time.Since(p.startTime)))
			}
		}
	}()
}

// seconds returns the remaining (or elapsed) whole seconds, rounded to nearest.
func (p *ProgressPrinter) seconds(elapsed time.Duration) int {
	if p.duration <= 0 {
		return int(elapsed.Seconds())
	}
	remaining := p.duration - elapsed
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds() + 0.5)
}

// Stop stops the updates and clears the line.
func (p *ProgressPrinter) Stop() {
	p.stopOnce.Do(func() {
		if p.ticker == nil {
			return
		}
		p.ticker.Stop()
		close(p.stopChan)
		<-p.done
		fmt.Fprint(p.out, clearLineSequence)
	})
}

// startProgress starts a countdown on stderr when it is a terminal.
// The returned stop function is always safe to call.
func startProgress(w io.Writer, prefix string, duration time.Duration) func() {
	if !stderrIsTerminal() {
		return func() {}
	}
	p := NewCountdownProgressPrinter(w, prefix, duration)
	p.Start()
	return p.Stop
}
