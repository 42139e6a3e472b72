package videohub

import (
	"fmt"
	"strings"
)

// ProtocolVersion is announced in the PROTOCOL PREAMBLE block.
const ProtocolVersion = "2.7"

// DefaultModelName is reported when no model name is configured.
const DefaultModelName = "Blackmagic Smart Videohub"

// LockState is the rendered lock flag of an output.
type LockState byte

// Lock flags as they appear on the wire.
const (
	Unlocked LockState = 'U'
	Locked   LockState = 'L'
	Owned    LockState = 'O'
)

// ParseLockState parses a lock flag. F (force unlock) maps to Unlocked.
func ParseLockState(s string) (LockState, error) {
	switch s {
	case "U", "F":
		return Unlocked, nil
	case "L":
		return Locked, nil
	case "O":
		return Owned, nil
	default:
		return 0, fmt.Errorf("%w: lock flag %q", ErrMalformedParameter, s)
	}
}

func (l LockState) String() string {
	return string(l)
}

// DeviceInfo describes the values rendered in the VIDEOHUB DEVICE block.
type DeviceInfo struct {
	ModelName    string
	FriendlyName string
}

// Table is the canonical routing state for a fixed number of inputs and outputs.
// Outputs are stored in index-ordered slices so rendering is deterministic.
type Table struct {
	device       DeviceInfo
	inputLabels  []string
	outputLabels []string
	routes       []int
	locks        []LockState
}

// NewTable creates a table with identity routing, unlocked outputs and default
// labels. Outputs beyond the input count route to input 0.
func NewTable(numInputs, numOutputs int) (*Table, error) {
	if numInputs <= 0 {
		return nil, ErrNoInputs
	}
	if numOutputs < 0 {
		return nil, fmt.Errorf("%w: %d outputs", ErrOutOfRange, numOutputs)
	}

	t := &Table{
		device:       DeviceInfo{ModelName: DefaultModelName},
		inputLabels:  make([]string, numInputs),
		outputLabels: make([]string, numOutputs),
		routes:       make([]int, numOutputs),
		locks:        make([]LockState, numOutputs),
	}

	for i := range t.inputLabels {
		t.inputLabels[i] = fmt.Sprintf("Input %d", i)
	}
	for i := range t.outputLabels {
		t.outputLabels[i] = fmt.Sprintf("Output %d", i)
		if i < numInputs {
			t.routes[i] = i
		}
		t.locks[i] = Unlocked
	}

	return t, nil
}

// SetDevice replaces the device description. Empty fields keep their defaults.
func (t *Table) SetDevice(info DeviceInfo) {
	if info.ModelName == "" {
		info.ModelName = DefaultModelName
	}
	t.device = info
}

// NumInputs returns the fixed input count.
func (t *Table) NumInputs() int { return len(t.inputLabels) }

// NumOutputs returns the fixed output count.
func (t *Table) NumOutputs() int { return len(t.outputLabels) }

// SetInputLabel replaces the label of an input.
func (t *Table) SetInputLabel(index int, label string) error {
	if index < 0 || index >= len(t.inputLabels) {
		return fmt.Errorf("%w: input %d", ErrOutOfRange, index)
	}
	if err := validateLabel(label); err != nil {
		return err
	}
	t.inputLabels[index] = label
	return nil
}

// SetOutputLabel replaces the label of an output.
func (t *Table) SetOutputLabel(index int, label string) error {
	if index < 0 || index >= len(t.outputLabels) {
		return fmt.Errorf("%w: output %d", ErrOutOfRange, index)
	}
	if err := validateLabel(label); err != nil {
		return err
	}
	t.outputLabels[index] = label
	return nil
}

// InputLabel returns the label of an input.
func (t *Table) InputLabel(index int) (string, error) {
	if index < 0 || index >= len(t.inputLabels) {
		return "", fmt.Errorf("%w: input %d", ErrOutOfRange, index)
	}
	return t.inputLabels[index], nil
}

// OutputLabel returns the label of an output.
func (t *Table) OutputLabel(index int) (string, error) {
	if index < 0 || index >= len(t.outputLabels) {
		return "", fmt.Errorf("%w: output %d", ErrOutOfRange, index)
	}
	return t.outputLabels[index], nil
}

// CheckRoute validates a route without applying it.
func (t *Table) CheckRoute(output, input int) error {
	if output < 0 || output >= len(t.routes) {
		return fmt.Errorf("%w: output %d", ErrOutOfRange, output)
	}
	if input < 0 || input >= len(t.inputLabels) {
		return fmt.Errorf("%w: input %d", ErrOutOfRange, input)
	}
	return nil
}

// Route assigns input to output. Nothing changes when either index is invalid.
func (t *Table) Route(output, input int) error {
	if err := t.CheckRoute(output, input); err != nil {
		return err
	}
	t.routes[output] = input
	return nil
}

// RouteOf returns the input currently assigned to output.
func (t *Table) RouteOf(output int) (int, error) {
	if output < 0 || output >= len(t.routes) {
		return 0, fmt.Errorf("%w: output %d", ErrOutOfRange, output)
	}
	return t.routes[output], nil
}

// SetLock records the lock flag of an output. Locks are rendered only.
func (t *Table) SetLock(output int, state LockState) error {
	if output < 0 || output >= len(t.locks) {
		return fmt.Errorf("%w: output %d", ErrOutOfRange, output)
	}
	t.locks[output] = state
	return nil
}

// Lock returns the lock flag of an output.
func (t *Table) Lock(output int) (LockState, error) {
	if output < 0 || output >= len(t.locks) {
		return 0, fmt.Errorf("%w: output %d", ErrOutOfRange, output)
	}
	return t.locks[output], nil
}

func validateLabel(label string) error {
	if strings.ContainsAny(label, "\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return nil
}
