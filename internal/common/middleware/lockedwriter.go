package middleware

import (
	"net/http"
	"sync"

	"github.com/adyen/checkout-sessions-go/internal/common/httpx"
)

// lockedWriter serializes writes between a handler goroutine and the timeout
// path. After a timeout claims the writer, handler writes are discarded.
type lockedWriter struct {
	mu       sync.Mutex
	rw       *httpx.ResponseWriter
	timedOut bool
}

func (l *lockedWriter) Header() http.Header {
	return l.rw.Header()
}

func (l *lockedWriter) WriteHeader(code int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timedOut {
		return
	}
	l.rw.WriteHeader(code)
}

func (l *lockedWriter) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	return l.rw.Write(b)
}

// claim marks the writer as timed out and reports whether the response is still unwritten.
func (l *lockedWriter) claim() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timedOut = true
	return !l.rw.Written()
}
