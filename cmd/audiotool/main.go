// Command audiotool converts between the audio formats spoken by the
// translation websocket: IMA ADPCM blocks, 16-bit PCM WAV and MP3.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "audiotool",
		Short:         "Inspect and convert ADPCM, WAV and MP3 audio",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newDecodeADPCMCmd(),
		newEncodeADPCMCmd(),
		newMP3ToWAVCmd(),
		newWAVInfoCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
