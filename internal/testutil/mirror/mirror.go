// Package mirror provides a threadsafe transcript buffer tests can
// synchronize on, keeping chunk boundaries on loopback sockets
// deterministic.
package mirror

import (
	"strings"
	"sync"
	"testing"
	"time"
)

type Buffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// WaitFor blocks until the transcript contains substr.
func (b *Buffer) WaitFor(t testing.TB, substr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(b.String(), substr) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("transcript never contained %q: %q", substr, b.String())
}
