package videohub

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const (
	// MaxLineLength bounds a single protocol line.
	MaxLineLength = 64 * 1024
	// MaxBlockLines bounds the lines of one block, header included.
	MaxBlockLines = 4096
)

// BlockReader frames a line stream into blocks. An empty line terminates the
// pending block; empty lines with nothing pending are skipped.
type BlockReader struct {
	scanner *bufio.Scanner
	pending []string
}

// NewBlockReader creates a block reader over r.
func NewBlockReader(r io.Reader) *BlockReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), MaxLineLength)
	return &BlockReader{scanner: scanner}
}

// ReadBlock returns the lines of the next complete block. It returns io.EOF at
// end of stream; a trailing unterminated block is discarded.
func (br *BlockReader) ReadBlock() ([]string, error) {
	for br.scanner.Scan() {
		line := strings.TrimRight(br.scanner.Text(), "\r")
		if line == "" {
			if len(br.pending) == 0 {
				continue
			}
			block := br.pending
			br.pending = nil
			return block, nil
		}
		if len(br.pending) >= MaxBlockLines {
			br.pending = nil
			return nil, ErrBlockTooLong
		}
		br.pending = append(br.pending, line)
	}

	if err := br.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, ErrLineTooLong
		}
		return nil, err
	}
	return nil, io.EOF
}
