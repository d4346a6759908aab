package app

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/facetrack/internal/capture"
	"github.com/ayusman/facetrack/internal/detector"
)

// runPipeline consumes frames from the capture stream until ctx is cancelled
// or the stream ends.
func (a *App) runPipeline(ctx context.Context, frames <-chan capture.Frame, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			a.handleFrame(ctx, frame)
		}
	}
}

// handleFrame processes one frame and releases it. A frame that cannot be
// processed is logged and skipped; the next frame is processed normally.
func (a *App) handleFrame(ctx context.Context, frame capture.Frame) {
	defer frame.Close()

	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	if !a.IsEnabled() {
		return
	}

	a.preview.Publish(frame)

	res, err := a.processor.Process(ctx, frame, a.surface.Get())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		n := a.skipped.Add(1)
		entry := a.log.WithError(err).WithFields(logrus.Fields{
			"frame_id": frame.ID,
			"skipped":  n,
		})
		if errors.Is(err, detector.ErrUnavailable) {
			entry.Warn("face detection failed, frame skipped")
		} else {
			entry.Debug("frame skipped")
		}
		return
	}

	a.processed.Add(1)
	if res.Hidden {
		return
	}
	a.log.WithFields(logrus.Fields{
		"frame_id": frame.ID,
		"faces":    len(res.Detections),
		"code":     res.Code,
	}).Debug("faces tracked")
}
