package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanchriswhite/framegrab/internal/api"
	"github.com/bryanchriswhite/framegrab/internal/capture"
	"github.com/bryanchriswhite/framegrab/internal/keyboard"
	"github.com/bryanchriswhite/framegrab/internal/logger"
	"github.com/bryanchriswhite/framegrab/internal/output"
	"github.com/bryanchriswhite/framegrab/internal/overlay"
	"github.com/bryanchriswhite/framegrab/internal/recorder"
	"github.com/bryanchriswhite/framegrab/internal/session"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture BASE_PATH",
	Short: "Capture frames into a new session under BASE_PATH",
	Long: `Connect to the configured camera and save every frame as an uncompressed
PNG file in BASE_PATH/<YYYYMMDDTHHMMSS>/ until 'q' is pressed, Ctrl+C is hit
or --max-frames frames are saved.

BASE_PATH is created if missing (one level only). BASE_PATH/run_info is
rewritten to point at the new session directory.`,
	Example: `  # Capture from /dev/video0 with a live preview on port 8080
  framegrab capture /data/captures

  # Second camera, no preview, stop after 500 frames
  framegrab capture /data/captures --camera-index 1 --no-preview --max-frames 500

  # Dry run with the synthetic test pattern
  framegrab capture /tmp/run --camera-type pattern`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

var noPreview bool

func init() {
	rootCmd.AddCommand(captureCmd)

	f := captureCmd.Flags()
	f.String("camera-type", "", "camera backend (v4l2, gstreamer, x11, pattern)")
	f.Int("camera-index", 0, "camera index, opens /dev/videoN")
	f.String("device", "", "camera device path (overrides --camera-index)")
	f.Bool("preview", true, "serve a live MJPEG preview")
	f.Bool("window", false, "also show frames in an X11 window")
	f.BoolVar(&noPreview, "no-preview", false, "disable the live preview")
	f.Int("port", 0, "preview server port (default is 8080)")
	f.Int("max-frames", 0, "stop after this many frames (0 means until 'q')")

	v.BindPFlag("camera.type", f.Lookup("camera-type"))
	v.BindPFlag("camera.index", f.Lookup("camera-index"))
	v.BindPFlag("camera.device", f.Lookup("device"))
	v.BindPFlag("preview.enabled", f.Lookup("preview"))
	v.BindPFlag("preview.window", f.Lookup("window"))
	v.BindPFlag("preview.port", f.Lookup("port"))
	v.BindPFlag("capture.max_frames", f.Lookup("max-frames"))
}

func runCapture(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	base := args[0]

	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()
	if noPreview {
		cfg.Preview.Enabled = false
	}
	log := logger.WithComponent("capture")

	dev, err := capture.Open(cfg.Camera)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	keys := keyboard.NewPoller(os.Stdin)
	defer keys.Close()

	tracker := api.NewTracker()
	rcfg := recorder.Config{
		Sessions:  session.NewManager(nil, nil),
		Device:    dev,
		Writer:    output.NewPNGWriter(nil),
		Keys:      keys,
		Observer:  tracker,
		MaxFrames: cfg.Capture.MaxFrames,
	}

	var outputs []output.Output
	if cfg.Preview.Enabled {
		preview := output.NewMJPEGOutput(output.Config{
			MaxWidth: cfg.Preview.MaxWidth,
			Quality:  cfg.Preview.JPEGQuality,
		})
		server := api.NewServer(preview.GetHTTPHandler(), tracker)
		if _, err := server.Start(cfg.Preview.Port); err != nil {
			log.Warn().Err(err).Msg("Preview server not started, capturing without browser preview")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					log.Debug().Err(err).Msg("Preview server shutdown")
				}
			}()
			outputs = append(outputs, preview)
		}
	}
	if cfg.Preview.Window {
		w, h := windowSize(cfg.Camera.Width, cfg.Camera.Height, cfg.Preview.MaxWidth)
		outputs = append(outputs, output.NewX11Window("framegrab - "+base, w, h))
	}
	if len(outputs) > 0 {
		rcfg.Preview = output.NewMulti(outputs...)
		if cfg.Preview.Caption {
			rcfg.Caption = overlay.NewCaption()
		}
	}

	report, err := recorder.New(rcfg).Run(ctx, base)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.String())
	return nil
}

// windowSize fits the camera frame into maxWidth, keeping the aspect ratio
func windowSize(width, height, maxWidth int) (int, int) {
	if maxWidth <= 0 || width <= maxWidth {
		return width, height
	}
	return maxWidth, height * maxWidth / width
}
