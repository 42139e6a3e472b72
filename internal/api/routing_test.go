package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/smazurov/videohubd/internal/api/models"
	"github.com/smazurov/videohubd/internal/gateway"
	"github.com/smazurov/videohubd/internal/logging"
	"github.com/smazurov/videohubd/internal/router"
	"github.com/smazurov/videohubd/internal/streaming"
	"github.com/smazurov/videohubd/internal/videohub"
)

type failingActuator struct{}

func (failingActuator) Change(router.Source) error { return errors.New("backend down") }
func (failingActuator) Clear() error { return nil }
func (failingActuator) Close() error { return nil }

func newTestRegistry(t *testing.T, inputs, outputs int, failOutput int) *gateway.Registry {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	table, err := videohub.NewTable(inputs, outputs)
	if err != nil {
		t.Fatal(err)
	}
	sources := make([]router.Source, inputs)
	for i := range sources {
		sources[i] = router.Source{Name: fmt.Sprintf("CAM%d", i), Address: fmt.Sprintf("rtsp://relay/cam%d", i)}
	}

	factory := router.NewLoggingFactory(logger)
	actuators := make([]router.Actuator, outputs)
	for i := range actuators {
		if i == failOutput {
			actuators[i] = failingActuator{}
			continue
		}
		actuators[i], err = factory.CreateOutputRoute(fmt.Sprintf("Output %d", i))
		if err != nil {
			t.Fatal(err)
		}
	}

	r, err := gateway.NewRegistry(table, sources, actuators, nil, logger)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func newTestAPI(t *testing.T, r *gateway.Registry, hub *streaming.Hub) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	s := &Server{router: r, hub: hub, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	s.registerRoutes(api)
	return api
}

func TestHealth(t *testing.T) {
	r := newTestRegistry(t, 2, 2, -1)
	_ = r.RegisterPeer("10.0.0.1:1", gateway.NewOutbox())
	api := newTestAPI(t, r, nil)

	resp := api.Get("/api/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}
	var body models.HealthData
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Peers != 1 || body.Build.GoVersion == "" {
		t.Errorf("health = %+v", body)
	}
}

func TestGetRouting(t *testing.T) {
	api := newTestAPI(t, newTestRegistry(t, 2, 3, -1), nil)

	resp := api.Get("/api/routing")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	var body models.RoutingData
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Inputs) != 2 || len(body.Outputs) != 3 {
		t.Fatalf("routing sized %d/%d", len(body.Inputs), len(body.Outputs))
	}
	if body.Inputs[1].Source != "CAM1" || body.Inputs[1].Address != "rtsp://relay/cam1" {
		t.Errorf("input 1 = %+v", body.Inputs[1])
	}
	wantInputs := []int{0, 1, 0}
	for i, out := range body.Outputs {
		if out.Input != wantInputs[i] || out.Lock != "U" {
			t.Errorf("output %d = %+v", i, out)
		}
	}
}

func TestSetRoute(t *testing.T) {
	r := newTestRegistry(t, 2, 2, 1)
	peer := gateway.NewOutbox()
	_ = r.RegisterPeer("10.0.0.1:1", peer)
	api := newTestAPI(t, r, nil)

	tests := []struct {
		name     string
		path     string
		input    int
		wantCode int
	}{
		{"valid", "/api/routing/0", 1, http.StatusOK},
		{"output out of range", "/api/routing/7", 0, http.StatusUnprocessableEntity},
		{"input out of range", "/api/routing/0", 9, http.StatusUnprocessableEntity},
		{"backend failure", "/api/routing/1", 0, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.Put(tt.path, map[string]any{"input": tt.input})
			if resp.Code != tt.wantCode {
				t.Errorf("status = %d, want %d: %s", resp.Code, tt.wantCode, resp.Body.String())
			}
		})
	}

	if got := r.Snapshot().Outputs[0].Input; got != 1 {
		t.Errorf("output 0 routes to %d, want 1", got)
	}
	if got := r.Snapshot().Outputs[1].Input; got != 1 {
		t.Errorf("failed route was committed: output 1 routes to %d", got)
	}

	// only the valid change reaches controllers
	msg, ok := peer.Pop()
	if !ok || msg != "VIDEO OUTPUT ROUTING:\n0 1\n\n" {
		t.Errorf("broadcast = %q, %v", msg, ok)
	}
	if peer.Len() != 0 {
		t.Errorf("%d unexpected broadcasts", peer.Len())
	}
}

func TestSetInputLabel(t *testing.T) {
	r := newTestRegistry(t, 2, 1, -1)
	peer := gateway.NewOutbox()
	_ = r.RegisterPeer("10.0.0.1:1", peer)
	api := newTestAPI(t, r, nil)

	tests := []struct {
		name     string
		path     string
		label    string
		wantCode int
	}{
		{"valid", "/api/inputs/1/label", "Wide Shot", http.StatusOK},
		{"unchanged", "/api/inputs/1/label", "Wide Shot", http.StatusOK},
		{"input out of range", "/api/inputs/5/label", "Nope", http.StatusNotFound},
		{"multi-line label", "/api/inputs/0/label", "a\nb", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.Put(tt.path, map[string]any{"label": tt.label})
			if resp.Code != tt.wantCode {
				t.Errorf("status = %d, want %d: %s", resp.Code, tt.wantCode, resp.Body.String())
			}
		})
	}

	if got := r.Snapshot().Inputs[1].Label; got != "Wide Shot" {
		t.Errorf("input 1 label = %q", got)
	}
	// the repeated label is not pushed twice
	msg, ok := peer.Pop()
	if !ok || msg != "INPUT LABELS:\n1 Wide Shot\n\n" {
		t.Errorf("broadcast = %q, %v", msg, ok)
	}
	if peer.Len() != 0 {
		t.Errorf("%d unexpected broadcasts", peer.Len())
	}
}

func TestListPeers(t *testing.T) {
	r := newTestRegistry(t, 1, 1, -1)
	_ = r.RegisterPeer("10.0.0.2:1", gateway.NewOutbox())
	_ = r.RegisterPeer("10.0.0.1:1", gateway.NewOutbox())
	api := newTestAPI(t, r, nil)

	resp := api.Get("/api/peers")
	var body models.PeerListData
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 2 || body.Peers[0].Address != "10.0.0.1:1" {
		t.Errorf("peers = %+v", body)
	}
}

func TestRelayRoute(t *testing.T) {
	r := newTestRegistry(t, 1, 1, -1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	api := newTestAPI(t, r, nil)
	if resp := api.Get("/api/relay"); resp.Code != http.StatusNotFound {
		t.Errorf("relay endpoint without hub: status %d", resp.Code)
	}

	hub := streaming.NewHub(logger)
	_ = hub.AddOutput("output-0")
	api = newTestAPI(t, r, hub)
	resp := api.Get("/api/relay")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"path":"output-0"`) {
		t.Errorf("body = %s", resp.Body.String())
	}
}

func TestSetLogLevel(t *testing.T) {
	api := newTestAPI(t, newTestRegistry(t, 1, 1, -1), nil)

	resp := api.Put("/api/logging/gateway", map[string]any{"level": "debug"})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}
	if !logging.GetLogger("gateway").Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("gateway logger not at debug")
	}

	if resp := api.Put("/api/logging/gateway", map[string]any{"level": "chatty"}); resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid level status = %d", resp.Code)
	}
}
