package cmd

import (
	"fmt"
	"net"
	"strconv"

	"github.com/smazurov/videohubd/internal/logging"
	"github.com/smazurov/videohubd/internal/router"
	"github.com/smazurov/videohubd/internal/streaming"
)

// Discovery modes.
const (
	ModeStatic = "static"
	ModeRelay  = "relay"
)

// BackendOptions selects how sources are discovered and routed.
type BackendOptions struct {
	Mode        string
	SourcesFile string
	RelayAddr   string
}

// Backend pairs a Discoverer with the RouteFactory that drives its outputs.
type Backend struct {
	Mode       string
	Discoverer router.Discoverer
	Factory    router.RouteFactory

	// Hub is set in relay mode.
	Hub   *streaming.Hub
	relay *streaming.Server
}

// OpenBackend builds the backend for opts.Mode. In relay mode the RTSP relay
// is started so sources can announce during discovery.
func OpenBackend(opts BackendOptions) (*Backend, error) {
	switch opts.Mode {
	case ModeStatic, "":
		return &Backend{
			Mode:       ModeStatic,
			Discoverer: router.NewStaticDiscoverer(opts.SourcesFile),
			Factory:    router.NewLoggingFactory(logging.GetLogger("router")),
		}, nil

	case ModeRelay:
		logger := logging.GetLogger("streaming")
		hub := streaming.NewHub(logger)
		srv := streaming.NewServer(hub, logger)
		if err := srv.Start(opts.RelayAddr); err != nil {
			return nil, fmt.Errorf("failed to start RTSP relay: %w", err)
		}
		relay := streaming.NewRelay(hub, relayURL(srv.Addr()))
		return &Backend{
			Mode:       ModeRelay,
			Discoverer: relay,
			Factory:    relay,
			Hub:        hub,
			relay:      srv,
		}, nil

	default:
		return nil, fmt.Errorf("unknown discovery mode %q (want %s or %s)", opts.Mode, ModeStatic, ModeRelay)
	}
}

// Close stops the relay, if any.
func (b *Backend) Close() error {
	if b.relay == nil {
		return nil
	}
	return b.relay.Stop()
}

// relayURL is the base URL sources are published under. Wildcard listen
// addresses are reported as loopback.
func relayURL(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return "rtsp://" + addr.String()
	}
	host := "127.0.0.1"
	if tcp.IP != nil && !tcp.IP.IsUnspecified() {
		host = tcp.IP.String()
	}
	return "rtsp://" + net.JoinHostPort(host, strconv.Itoa(tcp.Port))
}
