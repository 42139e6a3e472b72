package videohub

import "errors"

var (
	// ErrOutOfRange is returned when an input or output index is outside the table.
	ErrOutOfRange = errors.New("index out of range")

	// ErrInvalidLabel is returned for labels that cannot be carried on one protocol line.
	ErrInvalidLabel = errors.New("invalid label")

	// ErrMalformedParameter is returned when a parameter line does not parse.
	ErrMalformedParameter = errors.New("malformed parameter line")

	// ErrNoInputs is returned when a table is created without any inputs.
	ErrNoInputs = errors.New("routing table needs at least one input")

	// ErrLineTooLong is returned by the block reader for oversized lines.
	ErrLineTooLong = errors.New("protocol line too long")

	// ErrBlockTooLong is returned when a block exceeds MaxBlockLines.
	ErrBlockTooLong = errors.New("protocol block has too many lines")
)
