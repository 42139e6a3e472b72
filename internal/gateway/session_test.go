package gateway

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/smazurov/videohubd/internal/videohub"
)

func newPipeSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	sess := NewSession(server, discardLogger())
	t.Cleanup(func() {
		_ = sess.Close()
		_ = client.Close()
	})
	return sess, client
}

func nextEvent(t *testing.T, sess *Session) Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, err := sess.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	return ev
}

func TestSession_States(t *testing.T) {
	sess, _ := newPipeSession(t)

	if got := sess.State(); got != SessionConnecting {
		t.Errorf("initial state = %v, want connecting", got)
	}
	sess.Activate()
	if got := sess.State(); got != SessionActive {
		t.Errorf("state after Activate = %v, want active", got)
	}
	_ = sess.Close()
	if got := sess.State(); got != SessionClosed {
		t.Errorf("state after Close = %v, want closed", got)
	}
	if err := sess.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
	if err := sess.Outbox().Push("x"); !errors.Is(err, ErrPeerGone) {
		t.Errorf("Push after Close = %v, want ErrPeerGone", err)
	}
}

func TestSession_CommandFraming(t *testing.T) {
	sess, client := newPipeSession(t)
	sess.Activate()

	go func() {
		_, _ = io.WriteString(client, "\nVIDEO OUTPUT ROUTING:\r\n1 0\r\n\r\n")
	}()

	ev := nextEvent(t, sess)
	if ev.Kind != EventCommand {
		t.Fatalf("Kind = %v, want command", ev.Kind)
	}
	if ev.Command.Header != videohub.HeaderOutputRouting {
		t.Errorf("Header = %q", ev.Command.Header)
	}
	if got, want := ev.Command.Text(), "VIDEO OUTPUT ROUTING:\n1 0\n\n"; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
}

func TestSession_OutboxTakesPriority(t *testing.T) {
	sess, client := newPipeSession(t)
	sess.Activate()

	go func() {
		_, _ = io.WriteString(client, "PING:\n\n")
	}()

	// wait until the command is framed and waiting
	deadline := time.Now().Add(2 * time.Second)
	for len(sess.blocks) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("command block never framed")
		}
		time.Sleep(time.Millisecond)
	}

	if err := sess.Outbox().Push("VIDEO OUTPUT ROUTING:\n0 1\n\n"); err != nil {
		t.Fatalf("Push: %v", err)
	}

	first := nextEvent(t, sess)
	if first.Kind != EventOutbound || first.Message != "VIDEO OUTPUT ROUTING:\n0 1\n\n" {
		t.Fatalf("first event = %+v, want queued broadcast", first)
	}
	second := nextEvent(t, sess)
	if second.Kind != EventCommand || second.Command.Header != videohub.HeaderPing {
		t.Fatalf("second event = %+v, want PING command", second)
	}
}

func TestSession_OutboxDrainedBeforePendingCommand(t *testing.T) {
	sess, client := newPipeSession(t)
	sess.Activate()

	go func() {
		_, _ = io.WriteString(client, "PING:\n\n")
	}()
	deadline := time.Now().Add(2 * time.Second)
	for len(sess.blocks) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("command block never framed")
		}
		time.Sleep(time.Millisecond)
	}

	// broadcasts queued while the command waits are all delivered first
	if err := sess.Outbox().Push("one"); err != nil {
		t.Fatal(err)
	}
	if ev := nextEvent(t, sess); ev.Message != "one" {
		t.Fatalf("event = %+v, want one", ev)
	}
	_ = sess.Outbox().Push("two")
	_ = sess.Outbox().Push("three")

	var kinds []EventKind
	for range 3 {
		kinds = append(kinds, nextEvent(t, sess).Kind)
	}
	want := []EventKind{EventOutbound, EventOutbound, EventCommand}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event kinds = %v, want %v", kinds, want)
		}
	}
}

func TestSession_PeerCloseEndsStream(t *testing.T) {
	sess, client := newPipeSession(t)
	sess.Activate()
	_ = client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := sess.Next(ctx)
	if !errors.Is(err, io.EOF) {
		t.Errorf("Next error = %v, want io.EOF", err)
	}
	if got := sess.State(); got != SessionClosing {
		t.Errorf("state = %v, want closing", got)
	}
}

func TestSession_ContextCancel(t *testing.T) {
	sess, _ := newPipeSession(t)
	sess.Activate()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sess.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next error = %v, want context.Canceled", err)
	}
}

func TestSessionState_String(t *testing.T) {
	tests := []struct {
		state SessionState
		want  string
	}{
		{SessionConnecting, "connecting"},
		{SessionActive, "active"},
		{SessionClosing, "closing"},
		{SessionClosed, "closed"},
		{SessionState(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
