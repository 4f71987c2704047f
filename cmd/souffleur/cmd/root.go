package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msto63/souffleur/pkg/core/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "souffleur",
	Short: "souffleur - Interview question capture",
	Long: `souffleur listens to the interviewer through your microphone,
cuts the speech into complete questions and suggests an answer for each
one, locally with Ollama or through the OpenAI API.

Commands:
  listen   - Start listening (TUI or log output)
  devices  - List audio input devices
  history  - Show captured questions and answers
  version  - Show version information`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./souffleur.toml or ~/.config/souffleur/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads --config, or the default locations when it is unset
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadFromEnv()
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
