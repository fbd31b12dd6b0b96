// Package interrupt runs registered shutdown handlers when the process receives
// SIGINT/SIGTERM or a shutdown is requested programmatically.
package interrupt

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/Hubmakerlabs/localstr/pkg/qu"
	"github.com/Hubmakerlabs/localstr/pkg/slog"
)

var log, _ = slog.New(os.Stderr)

type HandlerWithSource struct {
	Source string
	Fn     func()
}

var (
	requested atomic.Bool
	startOnce sync.Once

	// signals is the list of signals that cause the interrupt
	signals = []os.Signal{os.Interrupt, syscall.SIGTERM}

	// ShutdownRequestChan is a channel that can receive shutdown requests
	ShutdownRequestChan = qu.T()

	// HandlersDone is closed after all interrupt handlers run the first time
	// an interrupt is signaled.
	HandlersDone = qu.T()

	handlersMx sync.Mutex
	handlers   []HandlerWithSource
)

// Listener waits for an interrupt signal or a shutdown request and runs the
// handlers in LIFO order.
func Listener(ch <-chan os.Signal) {
	select {
	case sig := <-ch:
		log.D.Ln("received interrupt signal", sig)
	case <-ShutdownRequestChan.Wait():
		log.W.Ln("received shutdown request - shutting down...")
	}
	requested.Store(true)
	handlersMx.Lock()
	hs := make([]HandlerWithSource, len(handlers))
	copy(hs, handlers)
	handlersMx.Unlock()
	log.D.Ln("running interrupt callbacks", len(hs))
	for i := len(hs) - 1; i >= 0; i-- {
		log.D.Ln("running callback", i, hs[i].Source)
		hs[i].Fn()
	}
	log.D.Ln("interrupt handlers finished")
	HandlersDone.Q()
}

// AddHandler adds a handler to call when a SIGINT (Ctrl+C) is received.
func AddHandler(handler func()) {
	_, loc, line, _ := runtime.Caller(1)
	msg := fmt.Sprintf("%s:%d", loc, line)
	log.D.Ln("handler added by:", msg)
	handlersMx.Lock()
	handlers = append(handlers, HandlerWithSource{msg, handler})
	handlersMx.Unlock()
	startOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, signals...)
		go Listener(ch)
	})
}

// Request programmatically requests a shutdown
func Request() {
	if requested.Swap(true) {
		log.D.Ln("requested again")
		return
	}
	ShutdownRequestChan.Q()
}

// Requested returns true if an interrupt has been requested
func Requested() bool { return requested.Load() }
