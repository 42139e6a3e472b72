package videohub

import (
	"strconv"
	"strings"
)

// Block headers as they appear on the wire, without the trailing colon.
const (
	HeaderPreamble      = "PROTOCOL PREAMBLE"
	HeaderDevice        = "VIDEOHUB DEVICE"
	HeaderInputLabels   = "INPUT LABELS"
	HeaderOutputLabels  = "OUTPUT LABELS"
	HeaderOutputRouting = "VIDEO OUTPUT ROUTING"
	HeaderOutputLocks   = "VIDEO OUTPUT LOCKS"
	HeaderPing          = "PING"
)

// Replies sent to the issuing controller.
const (
	ACK = "ACK\n"
	NAK = "NAK\n"
)

// Block is one protocol block: a header and its parameter lines.
type Block struct {
	Header string
	Lines  []string
}

// String renders the block including the blank-line terminator.
func (b Block) String() string {
	var sb strings.Builder
	sb.WriteString(b.Header)
	sb.WriteString(":\n")
	for _, line := range b.Lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	return sb.String()
}

// RenderPreamble renders the PROTOCOL PREAMBLE block.
func (t *Table) RenderPreamble() string {
	return Block{Header: HeaderPreamble, Lines: []string{"Version: " + ProtocolVersion}}.String()
}

// RenderDeviceInfo renders the VIDEOHUB DEVICE block.
func (t *Table) RenderDeviceInfo() string {
	lines := []string{
		"Device present: true",
		"Model name: " + t.device.ModelName,
	}
	if t.device.FriendlyName != "" {
		lines = append(lines, "Friendly name: "+t.device.FriendlyName)
	}
	lines = append(lines,
		"Video inputs: "+strconv.Itoa(len(t.inputLabels)),
		"Video processing units: 0",
		"Video outputs: "+strconv.Itoa(len(t.outputLabels)),
		"Video monitoring outputs: 0",
		"Serial ports: 0",
	)
	return Block{Header: HeaderDevice, Lines: lines}.String()
}

// RenderInputLabels renders the INPUT LABELS block.
func (t *Table) RenderInputLabels() string {
	return indexedBlock(HeaderInputLabels, t.inputLabels)
}

// RenderOutputLabels renders the OUTPUT LABELS block.
func (t *Table) RenderOutputLabels() string {
	return indexedBlock(HeaderOutputLabels, t.outputLabels)
}

// RenderRouting renders the VIDEO OUTPUT ROUTING block.
func (t *Table) RenderRouting() string {
	lines := make([]string, len(t.routes))
	for out, in := range t.routes {
		lines[out] = strconv.Itoa(out) + " " + strconv.Itoa(in)
	}
	return Block{Header: HeaderOutputRouting, Lines: lines}.String()
}

// RenderLocks renders the VIDEO OUTPUT LOCKS block.
func (t *Table) RenderLocks() string {
	lines := make([]string, len(t.locks))
	for out, lock := range t.locks {
		lines[out] = strconv.Itoa(out) + " " + lock.String()
	}
	return Block{Header: HeaderOutputLocks, Lines: lines}.String()
}

// FullStatusDump concatenates every status block in protocol order.
func (t *Table) FullStatusDump() string {
	var sb strings.Builder
	sb.WriteString(t.RenderPreamble())
	sb.WriteString(t.RenderDeviceInfo())
	sb.WriteString(t.RenderInputLabels())
	sb.WriteString(t.RenderOutputLabels())
	sb.WriteString(t.RenderRouting())
	sb.WriteString(t.RenderLocks())
	return sb.String()
}

// RenderRoutes renders a VIDEO OUTPUT ROUTING block for a subset of outputs.
func RenderRoutes(routes []Route) string {
	lines := make([]string, len(routes))
	for i, r := range routes {
		lines[i] = r.String()
	}
	return Block{Header: HeaderOutputRouting, Lines: lines}.String()
}

// RenderLockChanges renders a VIDEO OUTPUT LOCKS block for a subset of outputs.
func RenderLockChanges(changes []LockChange) string {
	lines := make([]string, len(changes))
	for i, c := range changes {
		lines[i] = c.String()
	}
	return Block{Header: HeaderOutputLocks, Lines: lines}.String()
}

// RenderInputLabel renders an INPUT LABELS block carrying one label.
func RenderInputLabel(index int, label string) string {
	return Block{Header: HeaderInputLabels, Lines: []string{strconv.Itoa(index) + " " + label}}.String()
}

func indexedBlock(header string, labels []string) string {
	lines := make([]string, len(labels))
	for i, label := range labels {
		lines[i] = strconv.Itoa(i) + " " + label
	}
	return Block{Header: header, Lines: lines}.String()
}
