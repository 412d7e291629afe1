package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler tells the user what an interrupted store operation left behind.
type InterruptHandler struct {
	writer      io.Writer
	stop        chan struct{}
	stopOnce    sync.Once
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{
		writer: writer,
		stop:   make(chan struct{}),
	}
}

// Watch returns a context canceled on SIGINT/SIGTERM or when ctx ends.
// If that happens before Stop, a message naming operation is written once.
func (h *InterruptHandler) Watch(ctx context.Context, operation string) context.Context {
	ctx, cancel := context.WithCancel(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
		case <-ctx.Done():
		case <-h.stop:
			cancel()
			return
		}
		h.markInterrupted(operation)
		cancel()
	}()

	return ctx
}

// Stop detaches the handler after the operation finished normally.
func (h *InterruptHandler) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *InterruptHandler) markInterrupted(operation string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.interrupted {
		return
	}
	h.interrupted = true

	msg := "\n" + FormatWarning(operation+" interrupted!") +
		"\n" + FormatInfo("Records the store already accepted keep their new state. Reload to see them.") + "\n"
	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the watched operation was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
