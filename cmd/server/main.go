package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skypro1111/voice-translate-service/internal/config"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "voice-translate-service"
	serviceVersion    = "1.0.0"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           serviceName,
	Short:         "Real-time speech translation over websockets",
	Version:       serviceVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `voice-translate-service accepts streamed speech over a websocket, recognizes it,
translates it into the conversation's other language and streams synthesized speech back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg, configPath)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Load and validate the configuration file, then exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "configuration %s is valid (listen %s:%d, storage %s, tts %s)\n",
			configPath, cfg.Server.Address, cfg.Server.Port, cfg.Storage.Backend, cfg.Audio.TTSFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to configuration file")
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
