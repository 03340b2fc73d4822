package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dawctl",
	Short: "Control surface for a dawcore render engine",
	Long: `dawctl is a small control-actor harness around pkg/engine:

  play       - open a PortAudio stream and drive playback interactively
  bounce     - render a project to a WAV-free raw PCM file, faster than realtime
  render     - alias for bounce
  telemetry  - stream the telemetry queue's latest record over a websocket`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "dawcore.toml", "engine config file")
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "dawctl: %s: %v\n", msg, err)
}
