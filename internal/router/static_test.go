package router

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStaticDiscoverer_Discover(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.toml")
	content := `
version = 1

[[sources]]
name = "CAM-1 (Studio)"
address = "10.0.0.21:5961"
label = "Camera 1"

[[sources]]
name = "CAM-2 (Studio)"
address = "10.0.0.22:5961"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	sources, err := NewStaticDiscoverer(path).Discover(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Name != "CAM-1 (Studio)" || sources[0].Address != "10.0.0.21:5961" {
		t.Errorf("unexpected first source %+v", sources[0])
	}
	if sources[0].DisplayLabel() != "Camera 1" {
		t.Errorf("DisplayLabel = %q, want Camera 1", sources[0].DisplayLabel())
	}
	if sources[1].DisplayLabel() != "CAM-2 (Studio)" {
		t.Errorf("DisplayLabel fallback = %q", sources[1].DisplayLabel())
	}
}

func TestStaticDiscoverer_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.toml")
	if err := os.WriteFile(path, []byte("version = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewStaticDiscoverer(path).Discover(context.Background(), time.Second)
	if !errors.Is(err, ErrNoSources) {
		t.Errorf("expected ErrNoSources, got %v", err)
	}
}

func TestStaticDiscoverer_MissingName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.toml")
	if err := os.WriteFile(path, []byte("[[sources]]\naddress = \"1.2.3.4\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSourcesFile(path); err == nil {
		t.Error("expected error for nameless source")
	}
}

func TestSaveSourcesFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.toml")
	in := []Source{{Name: "a", Address: "1.1.1.1:1"}, {Name: "b", Address: "2.2.2.2:2", Label: "B"}}

	if err := SaveSourcesFile(path, in); err != nil {
		t.Fatalf("SaveSourcesFile failed: %v", err)
	}
	out, err := LoadSourcesFile(path)
	if err != nil {
		t.Fatalf("LoadSourcesFile failed: %v", err)
	}
	if len(out) != 2 || out[1] != in[1] {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestLoggingActuator(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	factory := NewLoggingFactory(logger)

	a, err := factory.CreateOutputRoute("Output 0")
	if err != nil {
		t.Fatalf("CreateOutputRoute failed: %v", err)
	}
	if _, dupErr := factory.CreateOutputRoute("Output 0"); dupErr == nil {
		t.Error("expected duplicate output route to fail")
	}

	la := a.(*LoggingActuator)
	if err := la.Change(Source{Name: "cam"}); err != nil {
		t.Fatalf("Change failed: %v", err)
	}
	if src, ok := la.Current(); !ok || src.Name != "cam" {
		t.Errorf("Current = %+v, %v", src, ok)
	}

	_ = la.Clear()
	if _, ok := la.Current(); ok {
		t.Error("expected no current source after Clear")
	}

	_ = la.Close()
	if err := la.Change(Source{Name: "cam"}); err == nil {
		t.Error("expected Change after Close to fail")
	}
}
