package cmd

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/wavepath/dawcore/internal/config"
	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/engine"
	"github.com/wavepath/dawcore/pkg/transport"
	"github.com/wavepath/dawcore/pkg/xchan"
)

var bounceOutput string

var bounceCmd = &cobra.Command{
	Use:     "bounce",
	Aliases: []string{"render"},
	Short:   "Render a project to raw interleaved float32 PCM, faster than realtime",
	RunE:    runBounce,
}

func init() {
	bounceCmd.Flags().StringVarP(&bounceOutput, "output", "o", "out.pcm", "output file path")
	rootCmd.AddCommand(bounceCmd)
}

// fileSink writes every rendered block's raw samples to an output file,
// with no real-time pacing — the render loop runs as fast as the CPU
// allows, which is the whole point of a bounce.
type fileSink struct {
	f *os.File
}

func (s *fileSink) Write(buf *audio.Buffer) {
	for _, v := range buf.Data() {
		bits := math.Float32bits(v)
		var b [4]byte
		b[0] = byte(bits)
		b[1] = byte(bits >> 8)
		b[2] = byte(bits >> 16)
		b[3] = byte(bits >> 24)
		s.f.Write(b[:])
	}
}

func runBounce(command *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		cfg = config.Default()
	}
	eng, err := engine.New(cfg)
	if err != nil {
		printError("failed to construct engine", err)
		return err
	}

	f, err := os.Create(bounceOutput)
	if err != nil {
		printError("failed to create output file", err)
		return err
	}
	defer f.Close()

	eng.Transport.AttachSink(&fileSink{f: f})
	eng.EnqueueCommand(xchan.Command{Kind: xchan.Play})

	for eng.Transport.State() == transport.Playing {
		eng.Transport.RunOnce()
	}

	fmt.Printf("bounced to %s\n", bounceOutput)
	return nil
}
