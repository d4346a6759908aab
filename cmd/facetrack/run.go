package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/facetrack/internal/app"
	"github.com/ayusman/facetrack/internal/capture"
	"github.com/ayusman/facetrack/internal/config"
	"github.com/ayusman/facetrack/internal/orientation"
	"github.com/ayusman/facetrack/internal/overlay"
	"github.com/ayusman/facetrack/internal/server"
	"github.com/ayusman/facetrack/internal/store"
	"github.com/ayusman/facetrack/internal/tray"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start face tracking and the HTTP server (default)",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.Store.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	initial := orientation.Unknown
	if cfg.Display.Orientation != "" {
		if initial, err = orientation.Parse(cfg.Display.Orientation); err != nil {
			return err
		}
	}

	hub := server.NewOverlayHub(logger)
	presenters := []overlay.Presenter{hub}

	var t *tray.Tray
	if cfg.Overlay.Tray {
		t = tray.New()
		presenters = append(presenters, t)
	}

	a := app.New(app.Config{
		Store: st,
		CameraConfig: capture.Config{
			DeviceID: cfg.Camera.DeviceID,
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
			FPS:      cfg.Camera.FPS,
		},
		DetectorConfig: cfg.Detector.Detector(),
		Display:        cfg.Display.Size(),
		Orientation:    initial,
		OverlayBuffer:  cfg.Overlay.Buffer,
		Presenters:     presenters,
		Logger:         logger,
	})

	srv := server.New(server.Config{
		StaticDir:   cfg.Server.StaticDir,
		Store:       st,
		Preview:     a.Preview(),
		Latest:      a.Latest(),
		Hub:         hub,
		Surface:     a.Surface(),
		Orientation: a.Orientation(),
		Validator:   config.NewValidator(),
		Logger:      logger,
		StreamFPS:   cfg.Server.StreamFPS,
		JPEGQuality: cfg.Server.JPEGQuality,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(); err != nil {
		return fmt.Errorf("start tracking: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe(cfg.Server.Addr)
	}()
	serverDone := awaitServer(serverErr, logger, stop)

	if t != nil {
		t.OnToggle(a.SetEnabled)
		t.OnSettings(func() { openBrowser(logger, previewURL(cfg.Server.Addr)) })
		t.OnQuit(stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// systray needs the main goroutine on macOS.
		t.Run()
		stop()
	}

	select {
	case <-ctx.Done():
		select {
		case err = <-serverDone:
		default:
		}
	case err = <-serverDone:
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Shutdown)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		logger.WithError(serr).Error("server shutdown failed")
	}
	a.Stop()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// awaitServer relays the server's exit error and cancels the run as soon as
// the server stops, so a failed listener also ends the tray loop. The error is
// delivered before stop is called.
func awaitServer(serverErr <-chan error, logger logrus.FieldLogger, stop func()) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := <-serverErr
		if err != nil {
			logger.WithError(err).Error("http server stopped")
		}
		done <- err
		stop()
	}()
	return done
}

func previewURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(logger logrus.FieldLogger, url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.WithError(err).WithField("url", url).Warn("failed to open browser")
	}
}
