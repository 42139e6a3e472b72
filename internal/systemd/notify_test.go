package systemd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
	err  error
}

func (r *recorder) notify(state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, state)
	return r.err == nil, r.err
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func newTestNotifier(rec *recorder) *Notifier {
	n := NewNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	n.notify = rec.notify
	return n
}

func TestNotifierMessages(t *testing.T) {
	rec := &recorder{}
	n := newTestNotifier(rec)

	n.Ready("serving 2 controllers")
	n.Status("draining")
	n.Stopping()

	want := []string{"READY=1\nSTATUS=serving 2 controllers", "STATUS=draining", "STOPPING=1"}
	got := rec.messages()
	if len(got) != len(want) {
		t.Fatalf("messages = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNotifierErrorIsNotFatal(t *testing.T) {
	rec := &recorder{err: errors.New("socket gone")}
	newTestNotifier(rec).Ready("up")
	if len(rec.messages()) != 1 {
		t.Error("notify not attempted")
	}
}

func TestWatchdogPings(t *testing.T) {
	rec := &recorder{}
	n := newTestNotifier(rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.runWatchdog(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for len(rec.messages()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	msgs := rec.messages()
	if len(msgs) < 2 || msgs[0] != "WATCHDOG=1" {
		t.Errorf("watchdog messages = %q", msgs)
	}
}

func TestWatchdogDisabled(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "")
	rec := &recorder{}
	newTestNotifier(rec).Watchdog(context.Background())
	if len(rec.messages()) != 0 {
		t.Errorf("watchdog pinged without WATCHDOG_USEC: %q", rec.messages())
	}
}
