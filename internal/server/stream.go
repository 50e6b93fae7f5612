package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ayusman/posturewatch/internal/app"
	"github.com/ayusman/posturewatch/internal/capture"
)

// StreamHandler serves the annotated camera feed as MJPEG.
type StreamHandler struct {
	app    *app.App
	logger *zap.SugaredLogger
}

// NewStreamHandler creates a new StreamHandler for the given session.
func NewStreamHandler(a *app.App, logger *zap.SugaredLogger) *StreamHandler {
	return &StreamHandler{app: a, logger: logger}
}

// ServeHTTP streams MJPEG frames until the client goes away or the camera
// is stopped.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.app.CameraRunning() {
		writeJSON(w, http.StatusServiceUnavailable, cameraResponse{Error: "Camera is not running"})
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, _ := w.(http.Flusher)

	err := h.app.Stream(r.Context(), func(jpeg []byte) error {
		if err := writePart(w, jpeg); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, capture.ErrCameraNotOpen):
		h.logger.Debugw("stream ended", "remote", r.RemoteAddr, "reason", err)
	default:
		h.logger.Warnw("stream failed", "remote", r.RemoteAddr, "error", err)
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := w.Write([]byte("\r\n"))
	return err
}
