// Command dawctl is a small control-actor harness around pkg/engine: it
// loads a project config, attaches a sink, and drives playback from the
// terminal.
package main

import (
	"os"

	"github.com/wavepath/dawcore/cmd/dawctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
