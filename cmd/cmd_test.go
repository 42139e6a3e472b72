package cmd

import (
	"context"
	"bytes"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/videohubd/internal/gateway"
	"github.com/smazurov/videohubd/internal/router"
	"github.com/smazurov/videohubd/internal/videohub"
)

func writeSources(t *testing.T, sources []router.Source) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.toml")
	if err := router.SaveSourcesFile(path, sources); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenBackend(t *testing.T) {
	t.Run("static", func(t *testing.T) {
		b, err := OpenBackend(BackendOptions{SourcesFile: "sources.toml"})
		if err != nil {
			t.Fatalf("OpenBackend: %v", err)
		}
		defer b.Close()
		if b.Mode != ModeStatic || b.Hub != nil {
			t.Errorf("backend = %+v", b)
		}
	})

	t.Run("relay", func(t *testing.T) {
		b, err := OpenBackend(BackendOptions{Mode: ModeRelay, RelayAddr: "127.0.0.1:0"})
		if err != nil {
			t.Fatalf("OpenBackend: %v", err)
		}
		if b.Hub == nil {
			t.Error("relay backend has no hub")
		}
		if err := b.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := OpenBackend(BackendOptions{Mode: "ndi"}); err == nil {
			t.Error("unknown mode accepted")
		}
	})
}

func TestRelayURL(t *testing.T) {
	tests := []struct {
		addr net.Addr
		want string
	}{
		{&net.TCPAddr{IP: net.IPv6unspecified, Port: 8554}, "rtsp://127.0.0.1:8554"},
		{&net.TCPAddr{Port: 8554}, "rtsp://127.0.0.1:8554"},
		{&net.TCPAddr{IP: net.ParseIP("10.0.0.9"), Port: 554}, "rtsp://10.0.0.9:554"},
		{&net.TCPAddr{IP: net.ParseIP("::1"), Port: 554}, "rtsp://[::1]:554"},
	}
	for _, tt := range tests {
		if got := relayURL(tt.addr); got != tt.want {
			t.Errorf("relayURL(%v) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestSourcesCmd(t *testing.T) {
	path := writeSources(t, []router.Source{
		{Name: "CAM-1 (Studio)", Address: "10.0.0.21:5961", Label: "Camera 1"},
		{Name: "CAM-2 (Studio)", Address: "10.0.0.22:5961"},
	})

	var out bytes.Buffer
	c := CreateSourcesCmd()
	c.SetOut(&out)
	c.SetArgs([]string{"--sources-file", path})
	if err := c.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("output:\n%s", out.String())
	}
	if !strings.HasPrefix(lines[1], "0") || !strings.Contains(lines[1], "Camera 1") {
		t.Errorf("first source line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "CAM-2 (Studio)") || !strings.Contains(lines[2], "10.0.0.22:5961") {
		t.Errorf("second source line = %q", lines[2])
	}
}

func TestSourcesCmd_Empty(t *testing.T) {
	c := CreateSourcesCmd()
	c.SetOut(io.Discard)
	c.SetErr(io.Discard)
	c.SetArgs([]string{"--sources-file", writeSources(t, nil)})
	if err := c.Execute(); err == nil {
		t.Fatal("empty sources file should fail")
	}
}

func startGateway(t *testing.T) *gateway.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sources := []router.Source{{Name: "CAM0"}, {Name: "CAM1"}}
	r, err := gateway.Setup(t.Context(), gateway.SetupOptions{
		Discoverer: staticSources(sources),
		Factory:    router.NewLoggingFactory(logger),
		NumOutputs: 2,
		Device:     videohub.DeviceInfo{FriendlyName: "Studio"},
		Logger:     logger,
	})
	if err != nil {
		t.Fatal(err)
	}
	srv := gateway.NewServer(r, logger)
	if err := srv.Start("127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = srv.Stop()
		_ = r.Close()
	})
	return srv
}

type staticSources []router.Source

func (s staticSources) Discover(_ context.Context, _ time.Duration) ([]router.Source, error) {
	return s, nil
}

func TestFetchStatus(t *testing.T) {
	srv := startGateway(t)

	var out bytes.Buffer
	if err := FetchStatus(&out, srv.Addr().String(), 2*time.Second); err != nil {
		t.Fatalf("FetchStatus: %v", err)
	}

	dump := out.String()
	for _, want := range []string{
		"PROTOCOL PREAMBLE:\n",
		"Friendly name: Studio\n",
		"INPUT LABELS:\n0 CAM0\n1 CAM1\n\n",
		"VIDEO OUTPUT ROUTING:\n0 0\n1 1\n\n",
	} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump missing %q:\n%s", want, dump)
		}
	}
	if !strings.HasSuffix(dump, "VIDEO OUTPUT LOCKS:\n0 U\n1 U\n\n") {
		t.Errorf("dump should end with the locks block:\n%s", dump)
	}
}

func TestFetchStatus_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	if err := FetchStatus(io.Discard, addr, time.Second); err == nil {
		t.Fatal("FetchStatus succeeded against a closed port")
	}
}
