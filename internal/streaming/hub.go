package streaming

import (
	"cmp"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/AlexxIT/go2rtc/pkg/core"
	"github.com/AlexxIT/go2rtc/pkg/rtsp"
	"github.com/smazurov/videohubd/internal/logging"
)

var (
	// ErrStreamNotFound is returned when a requested stream has no producer.
	ErrStreamNotFound = errors.New("stream not found")

	// ErrOutputExists is returned when an output path is created twice.
	ErrOutputExists = errors.New("output already exists")

	// ErrOutputNotRouted is returned when a consumer asks for an output with no source.
	ErrOutputNotRouted = errors.New("output has no source")
)

// producer is an RTSP connection pushing one source via ANNOUNCE.
type producer struct {
	conn   *rtsp.Conn
	remote string
	since  time.Time
}

// outputPath is a relay path consumers play from. Its source can be switched
// at any time; switching stops attached consumers so they reconnect.
type outputPath struct {
	source    string
	consumers map[*rtsp.Conn]struct{}
}

// ProducerInfo describes an announced source.
type ProducerInfo struct {
	Name   string
	Remote string
	Since  time.Time
}

// OutputInfo describes an output path.
type OutputInfo struct {
	Path      string
	Source    string
	Consumers int
}

// Hub tracks producers by source name and output paths by path name.
// Producers are RTSP connections pushing with ANNOUNCE.
// Consumers are RTSP clients (DESCRIBE) playing either a source directly or
// an output path.
type Hub struct {
	producers map[string]*producer
	outputs   map[string]*outputPath
	mu        sync.RWMutex
	logger    logging.Logger
}

// NewHub creates a new stream hub.
func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		producers: make(map[string]*producer),
		outputs:   make(map[string]*outputPath),
		logger:    logger,
	}
}

// AddProducer registers an RTSP producer for source name, replacing any
// existing one. Consumers of outputs routed to name are restarted.
func (h *Hub) AddProducer(name string, conn *rtsp.Conn, remote string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.producers[name]; ok {
		h.logger.Info("Replacing existing producer", "source", name)
		_ = existing.conn.Stop()
		h.kickSourceLocked(name)
	}

	h.producers[name] = &producer{conn: conn, remote: remote, since: time.Now()}
	relayProducers.Set(float64(len(h.producers)))
	h.logger.Info("Producer added", "source", name, "remote", remote)
}

// RemoveProducer removes the producer for name if conn still owns it.
func (h *Hub) RemoveProducer(name string, conn *rtsp.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.producers[name]
	if !ok || p.conn != conn {
		return
	}
	_ = p.conn.Stop()
	delete(h.producers, name)
	h.kickSourceLocked(name)
	relayProducers.Set(float64(len(h.producers)))
	h.logger.Info("Producer removed", "source", name)
}

// HasProducer checks if a producer exists for source name.
func (h *Hub) HasProducer(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.producers[name]
	return ok
}

// Producers lists announced sources ordered by name.
func (h *Hub) Producers() []ProducerInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	list := make([]ProducerInfo, 0, len(h.producers))
	for name, p := range h.producers {
		list = append(list, ProducerInfo{Name: name, Remote: p.remote, Since: p.since})
	}
	slices.SortFunc(list, func(a, b ProducerInfo) int { return cmp.Compare(a.Name, b.Name) })
	return list
}

// Outputs lists output paths ordered by path.
func (h *Hub) Outputs() []OutputInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	list := make([]OutputInfo, 0, len(h.outputs))
	for path, o := range h.outputs {
		list = append(list, OutputInfo{Path: path, Source: o.source, Consumers: len(o.consumers)})
	}
	slices.SortFunc(list, func(a, b OutputInfo) int { return cmp.Compare(a.Path, b.Path) })
	return list
}

// AddOutput creates an unrouted output path.
func (h *Hub) AddOutput(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.outputs[path]; ok {
		return ErrOutputExists
	}
	h.outputs[path] = &outputPath{consumers: make(map[*rtsp.Conn]struct{})}
	return nil
}

// SetOutputSource points path at source and restarts its consumers. An empty
// source clears the output.
func (h *Hub) SetOutputSource(path, source string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	o, ok := h.outputs[path]
	if !ok {
		return ErrStreamNotFound
	}
	if source != "" {
		if _, ok := h.producers[source]; !ok {
			return ErrStreamNotFound
		}
	}
	if o.source == source {
		return nil
	}
	o.source = source
	h.kickLocked(o)
	relaySwitches.WithLabelValues(path).Inc()
	return nil
}

// OutputSource returns the source currently routed to path.
func (h *Hub) OutputSource(path string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	o, ok := h.outputs[path]
	if !ok || o.source == "" {
		return "", false
	}
	return o.source, true
}

// RemoveOutput deletes path and stops its consumers.
func (h *Hub) RemoveOutput(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if o, ok := h.outputs[path]; ok {
		h.kickLocked(o)
		delete(h.outputs, path)
	}
}

// WireConsumer connects a consumer to the tracks behind path. path names an
// output path or, failing that, a source directly.
func (h *Hub) WireConsumer(path string, cons *rtsp.Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	source := path
	o, isOutput := h.outputs[path]
	if isOutput {
		if o.source == "" {
			return ErrOutputNotRouted
		}
		source = o.source
	}

	prod := h.producers[source]
	if prod == nil {
		return ErrStreamNotFound
	}

	for _, receiver := range prod.conn.Receivers {
		media := &core.Media{
			Kind:      core.GetKind(receiver.Codec.Name),
			Direction: core.DirectionRecvonly,
			Codecs:    []*core.Codec{receiver.Codec},
		}
		if err := cons.AddTrack(media, receiver.Codec, receiver); err != nil {
			h.logger.Warn("Failed to add track", "path", path, "error", err)
		}
	}

	if isOutput {
		o.consumers[cons] = struct{}{}
		relayConsumers.Inc()
	}
	return nil
}

// RemoveConsumer forgets a consumer that disconnected.
func (h *Hub) RemoveConsumer(path string, cons *rtsp.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if o, ok := h.outputs[path]; ok {
		if _, attached := o.consumers[cons]; attached {
			delete(o.consumers, cons)
			relayConsumers.Dec()
		}
	}
}

// kickSourceLocked restarts consumers of every output routed to source.
func (h *Hub) kickSourceLocked(source string) {
	for _, o := range h.outputs {
		if o.source == source {
			h.kickLocked(o)
		}
	}
}

func (h *Hub) kickLocked(o *outputPath) {
	for cons := range o.consumers {
		_ = cons.Stop()
		delete(o.consumers, cons)
		relayConsumers.Dec()
	}
}

// Stop closes all producers and consumers.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for name, p := range h.producers {
		_ = p.conn.Stop()
		delete(h.producers, name)
	}
	for _, o := range h.outputs {
		h.kickLocked(o)
	}
	relayProducers.Set(0)
	h.logger.Info("Hub stopped")
}
