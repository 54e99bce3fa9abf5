package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skypro1111/voice-translate-service/internal/audio"
)

func newDecodeADPCMCmd() *cobra.Command {
	var rate int
	cmd := &cobra.Command{
		Use:   "decode-adpcm <input.adpcm> <output.wav>",
		Short: "Decode concatenated ADPCM blocks into a PCM WAV file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			samples := audio.DecodeADPCM(data)
			if len(samples) == 0 {
				return fmt.Errorf("no complete ADPCM block in %s", args[0])
			}
			if err := os.WriteFile(args[1], audio.PCMToWAV(samples, rate), 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "decoded %d samples (%.2fs at %d Hz) to %s\n",
				len(samples), float64(len(samples))/float64(rate), rate, args[1])
			return nil
		},
	}
	cmd.Flags().IntVarP(&rate, "rate", "r", 16000, "Sample rate written to the WAV header")
	return cmd
}

func newEncodeADPCMCmd() *cobra.Command {
	var (
		rate      int
		chunkSize int
	)
	cmd := &cobra.Command{
		Use:   "encode-adpcm <input.wav> <output.adpcm>",
		Short: "Encode a mono 16-bit WAV file into ADPCM blocks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			samples, sourceRate, err := audio.DecodeWAV(data)
			if err != nil {
				return err
			}
			if rate > 0 && rate != sourceRate {
				samples = audio.Resample(samples, sourceRate, rate)
			}

			blocks, err := audio.PCMToADPCM(samples, chunkSize)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], bytes.Join(blocks, nil), 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "encoded %d samples into %d blocks to %s\n",
				len(samples), len(blocks), args[1])
			return nil
		},
	}
	cmd.Flags().IntVarP(&rate, "rate", "r", 0, "Resample to this rate first (0 keeps the source rate)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 256, "Samples per ADPCM block")
	return cmd
}

func newMP3ToWAVCmd() *cobra.Command {
	var rate int
	cmd := &cobra.Command{
		Use:   "mp3-to-wav <input.mp3> <output.wav>",
		Short: "Decode MP3 to mono PCM WAV at the given rate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			samples, err := audio.MP3ToPCM(data, rate)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], audio.PCMToWAV(samples, rate), 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "decoded %d samples at %d Hz to %s\n", len(samples), rate, args[1])
			return nil
		},
	}
	cmd.Flags().IntVarP(&rate, "rate", "r", 16000, "Output sample rate")
	return cmd
}

func newWAVInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wav-info <file.wav>",
		Short: "Print the format of a WAV file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			info, err := audio.GetWAVInfo(data)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}
