// Command mockwhisper stands in for a Whisper-compatible transcription endpoint
// during local development. It accepts the same multipart request and answers
// with a fixed verbose_json transcript.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	var (
		addr string
		opts handlerOptions
	)

	cmd := &cobra.Command{
		Use:           "mockwhisper",
		Short:         "Fake Whisper transcription server for local development",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
			mux := http.NewServeMux()
			mux.Handle("POST /v1/audio/transcriptions", newHandler(opts, logger))

			logger.Info("Mock transcription server starting",
				slog.String("address", addr),
				slog.String("endpoint", fmt.Sprintf("http://%s/v1/audio/transcriptions", addr)),
			)
			srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:9000", "Listen address")
	cmd.Flags().StringVar(&opts.Text, "text", "This is a test transcription.", "Transcript returned for every request")
	cmd.Flags().StringVar(&opts.Language, "language", "english", "Language reported in the response")
	cmd.Flags().DurationVar(&opts.Delay, "delay", 200*time.Millisecond, "Simulated processing time")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
