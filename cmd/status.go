package cmd

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/smazurov/videohubd/internal/videohub"
	"github.com/spf13/cobra"
)

// CreateStatusCmd creates the status command.
func CreateStatusCmd() *cobra.Command {
	var addr string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the status dump of a running gateway",
		Long:  `Connects as a Videohub controller, prints the initial status dump and disconnects.`,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return FetchStatus(c.OutOrStdout(), addr, timeout)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:9990", "Gateway address")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Connect and read timeout")

	return cmd
}

// FetchStatus reads the status dump from addr and copies it to w, ending
// after the output locks block.
func FetchStatus(w io.Writer, addr string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))

	br := videohub.NewBlockReader(conn)
	for {
		lines, err := br.ReadBlock()
		if errors.Is(err, io.EOF) {
			return errors.New("connection closed before the status dump completed")
		}
		if err != nil {
			return fmt.Errorf("failed to read status: %w", err)
		}

		cmd := videohub.ParseCommand(lines)
		if _, err := io.WriteString(w, cmd.Text()); err != nil {
			return err
		}
		if cmd.Header == videohub.HeaderOutputLocks {
			return nil
		}
	}
}
