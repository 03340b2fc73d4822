package cmd

import (
	"fmt"
	"os"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/fatih/color"
	"github.com/gordonklaus/portaudio"
	"github.com/spf13/cobra"

	"github.com/wavepath/dawcore/internal/config"
	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/engine"
	"github.com/wavepath/dawcore/pkg/transport"
	"github.com/wavepath/dawcore/pkg/xchan"
)

var (
	playYellow = color.New(color.FgYellow).SprintfFunc()
	playGreen  = color.New(color.FgGreen).SprintfFunc()
	playCyan   = color.New(color.FgCyan).SprintfFunc()
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open a PortAudio stream and drive playback interactively",
	Long: `play attaches a PortAudio output stream to the engine's render loop
as its Sink, then listens for keyboard input:

  space  play/pause
  left   seek back one second
  right  seek forward one second
  q      stop and quit`,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
}

// portaudioSink adapts transport.Sink to a PortAudio stream write.
type portaudioSink struct {
	stream *portaudio.Stream
	out    []float32
}

func (s *portaudioSink) Write(buf *audio.Buffer) {
	copy(s.out, buf.Data())
	s.stream.Write()
}

func runPlay(command *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		cfg = config.Default()
	}
	eng, err := engine.New(cfg)
	if err != nil {
		printError("failed to construct engine", err)
		return err
	}

	if err := portaudio.Initialize(); err != nil {
		printError("portaudio init failed", err)
		return err
	}
	defer portaudio.Terminate()

	out := make([]float32, cfg.BufferFrames*cfg.Channels)
	stream, err := portaudio.OpenDefaultStream(0, cfg.Channels, cfg.SampleRate, cfg.BufferFrames, &out)
	if err != nil {
		printError("failed to open audio stream", err)
		return err
	}
	if err := stream.Start(); err != nil {
		printError("failed to start audio stream", err)
		return err
	}
	defer stream.Close()

	sink := &portaudioSink{stream: stream, out: out}
	eng.Transport.AttachSink(sink)

	done := make(chan struct{})
	go func() {
		defer close(done)
		eng.Run()
	}()

	fmt.Println(playGreen("dawctl play — space: play/pause, arrows: seek, q: quit"))

	err = keyboard.Listen(func(key keys.Key) (stop bool, err error) {
		switch key.Code {
		case keys.Space:
			state := eng.Transport.State()
			if state == transport.Playing {
				eng.EnqueueCommand(xchan.Command{Kind: xchan.Pause})
			} else {
				eng.EnqueueCommand(xchan.Command{Kind: xchan.Play})
			}
		case keys.Left:
			seekFrame := eng.Transport.Cursor() - int64(cfg.SampleRate)
			if seekFrame < 0 {
				seekFrame = 0
			}
			eng.EnqueueCommand(xchan.Command{Kind: xchan.Seek, Frame: seekFrame})
		case keys.Right:
			eng.EnqueueCommand(xchan.Command{Kind: xchan.Seek, Frame: eng.Transport.Cursor() + int64(cfg.SampleRate)})
		case keys.RuneKey:
			if len(key.Runes) > 0 && key.Runes[0] == 'q' {
				return true, nil
			}
		case keys.CtrlC, keys.Escape:
			return true, nil
		}
		if tel, ok := eng.LatestTelemetry(); ok {
			fmt.Printf("\r%s peak=%.3f rms=%.3f cursor=%d   ",
				playCyan("meters"), tel.LeftPeak, tel.LeftRMS, tel.FrameCursor)
		}
		return false, nil
	})
	if err != nil {
		printError("keyboard listener failed", err)
	}

	eng.Shutdown()
	<-done
	fmt.Fprintln(os.Stdout)
	return nil
}
