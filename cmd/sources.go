package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/smazurov/videohubd/internal/logging"
	"github.com/spf13/cobra"
)

// CreateSourcesCmd creates the sources command.
func CreateSourcesCmd() *cobra.Command {
	var opts BackendOptions
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Run source discovery once and print the result",
		Long: `Runs the same discovery the gateway performs at startup and prints the ` +
			`sources in input order. In relay mode the RTSP relay listens for the ` +
			`whole timeout so sources can announce.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			backend, err := OpenBackend(opts)
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			sources, err := backend.Discoverer.Discover(context.Background(), timeout)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INPUT\tLABEL\tNAME\tADDRESS")
			for i, src := range sources {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, src.DisplayLabel(), src.Name, src.Address)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&opts.Mode, "mode", ModeStatic, "Discovery mode (static, relay)")
	cmd.Flags().StringVar(&opts.SourcesFile, "sources-file", "sources.toml", "Static sources file")
	cmd.Flags().StringVar(&opts.RelayAddr, "relay-addr", ":8554", "RTSP relay listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "How long relay discovery waits for announcements")

	return cmd
}
