package cmd

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/wavepath/dawcore/internal/config"
	"github.com/wavepath/dawcore/pkg/engine"
)

var telemetryAddr string

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Stream the telemetry queue's latest record over a websocket",
	Long: `telemetry starts a websocket server that pushes the engine's
most recent peak/RMS/cursor record to every connected browser, exercising
the control surface's telemetry-read contract from outside the process.`,
	RunE: runTelemetry,
}

func init() {
	telemetryCmd.Flags().StringVar(&telemetryAddr, "addr", ":8088", "listen address")
	rootCmd.AddCommand(telemetryCmd)
}

var telemetryUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func runTelemetry(command *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		cfg = config.Default()
	}
	eng, err := engine.New(cfg)
	if err != nil {
		printError("failed to construct engine", err)
		return err
	}

	go eng.Run()

	http.HandleFunc("/telemetry", func(w http.ResponseWriter, r *http.Request) {
		conn, err := telemetryUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			tel, ok := eng.LatestTelemetry()
			if !ok {
				continue
			}
			payload, err := json.Marshal(tel)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	})

	return http.ListenAndServe(telemetryAddr, nil)
}
