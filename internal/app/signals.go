package app

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	// GracefulShutdownTimeout is the maximum time to wait for background requests.
	GracefulShutdownTimeout = 5 * time.Second
	// ForcedShutdownTimeout is the time after which we force exit.
	ForcedShutdownTimeout = 10 * time.Second
)

// GoroutineTracker tracks running goroutines for graceful shutdown.
type GoroutineTracker struct {
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewGoroutineTracker creates a new goroutine tracker.
func NewGoroutineTracker() *GoroutineTracker {
	return &GoroutineTracker{}
}

// Add registers a new goroutine. It returns false once the tracker is closed.
func (t *GoroutineTracker) Add() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.wg.Add(1)
	return true
}

// Done marks a goroutine as completed.
func (t *GoroutineTracker) Done() {
	t.wg.Done()
}

// WaitWithTimeout waits for all goroutines with a timeout.
// Returns true if all goroutines completed, false if timed out.
func (t *GoroutineTracker) WaitWithTimeout(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Close prevents new goroutines from being added.
func (t *GoroutineTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

// track runs cmd under the tracker. Once shutdown started the command is
// dropped.
func (a *App) track(cmd func() tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if !a.tracker.Add() {
			return nil
		}
		defer a.tracker.Done()
		return cmd()
	}
}

// setupSignalHandler quits the program on SIGHUP, SIGTERM or SIGQUIT.
// bubbletea reads ctrl+c as a key, so SIGINT only arrives from outside.
// Returns a cleanup function that should be called when the app exits.
func (a *App) setupSignalHandler(p *tea.Program) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigChan:
			a.base.Info("received signal", "signal", sig.String())

			forceExitTimer := time.AfterFunc(ForcedShutdownTimeout, func() {
				a.base.Warn("forced shutdown due to timeout")
				os.Exit(1)
			})
			defer forceExitTimer.Stop()

			// in-flight requests see the cancellation before the program stops
			a.cancel()
			p.Quit()
			p.Wait()

		case <-done:
			return

		case <-a.ctx.Done():
			return
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
