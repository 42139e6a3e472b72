package videohub

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is one inbound block: the header line and its parameter lines.
type Command struct {
	// Header is the keyword without its trailing colon. Empty when the first
	// line is not a colon-terminated keyword.
	Header string
	Params []string
	lines  []string
}

// ParseCommand splits a framed block into header and parameters.
func ParseCommand(lines []string) Command {
	cmd := Command{lines: lines}
	if len(lines) == 0 {
		return cmd
	}
	first := strings.TrimSpace(lines[0])
	if header, ok := strings.CutSuffix(first, ":"); ok {
		cmd.Header = header
	}
	cmd.Params = lines[1:]
	return cmd
}

// Text renders the block as received, terminated by a blank line.
func (c Command) Text() string {
	var sb strings.Builder
	for _, line := range c.lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	return sb.String()
}

// IsQuery reports whether the block carries no parameters, which asks the
// device to echo the current state of that block.
func (c Command) IsQuery() bool {
	return len(c.Params) == 0
}

// Route assigns an input to an output.
type Route struct {
	Output int
	Input  int
}

func (r Route) String() string {
	return strconv.Itoa(r.Output) + " " + strconv.Itoa(r.Input)
}

// ParseRoute parses an "<output> <input>" parameter line.
func ParseRoute(line string) (Route, error) {
	a, b, err := splitPair(line)
	if err != nil {
		return Route{}, err
	}
	out, err := strconv.Atoi(a)
	if err != nil {
		return Route{}, fmt.Errorf("%w: output %q", ErrMalformedParameter, a)
	}
	in, err := strconv.Atoi(b)
	if err != nil {
		return Route{}, fmt.Errorf("%w: input %q", ErrMalformedParameter, b)
	}
	return Route{Output: out, Input: in}, nil
}

// ParseRoutes parses every parameter line, failing on the first bad one.
func ParseRoutes(lines []string) ([]Route, error) {
	routes := make([]Route, 0, len(lines))
	for _, line := range lines {
		r, err := ParseRoute(line)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, nil
}

// LockChange sets the lock flag of an output.
type LockChange struct {
	Output int
	State  LockState
}

func (l LockChange) String() string {
	return strconv.Itoa(l.Output) + " " + l.State.String()
}

// ParseLockChange parses an "<output> <L|U|O|F>" parameter line.
func ParseLockChange(line string) (LockChange, error) {
	a, b, err := splitPair(line)
	if err != nil {
		return LockChange{}, err
	}
	out, err := strconv.Atoi(a)
	if err != nil {
		return LockChange{}, fmt.Errorf("%w: output %q", ErrMalformedParameter, a)
	}
	state, err := ParseLockState(b)
	if err != nil {
		return LockChange{}, err
	}
	return LockChange{Output: out, State: state}, nil
}

// ParseLockChanges parses every parameter line, failing on the first bad one.
func ParseLockChanges(lines []string) ([]LockChange, error) {
	changes := make([]LockChange, 0, len(lines))
	for _, line := range lines {
		c, err := ParseLockChange(line)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, nil
}

func splitPair(line string) (string, string, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedParameter, line)
	}
	return fields[0], fields[1], nil
}
