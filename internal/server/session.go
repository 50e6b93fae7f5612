package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/ayusman/posturewatch/internal/capture"
)

// maxFrameBody caps a /process_frame request body.
const maxFrameBody = 16 << 20

type cameraResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type processFrameRequest struct {
	Frame string `json:"frame"`
}

type processFrameResponse struct {
	Error         string  `json:"error,omitempty"`
	Status        string  `json:"status"`
	Confidence    float64 `json:"confidence"`
	RawConfidence float64 `json:"raw_confidence"`
}

// handleMetrics handles GET /metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.config.App.Metrics())
}

// handleStartCamera handles GET /start_camera.
func (s *Server) handleStartCamera(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.config.App.StartCamera(); err != nil {
		s.logger.Errorw("failed to start camera", "error", err)
		writeJSON(w, http.StatusInternalServerError, cameraResponse{Error: "Failed to open camera"})
		return
	}
	writeJSON(w, http.StatusOK, cameraResponse{Success: true})
}

// handleStopCamera handles GET /stop_camera.
func (s *Server) handleStopCamera(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.config.App.StopCamera(); err != nil {
		s.logger.Warnw("error closing camera", "error", err)
	}
	writeJSON(w, http.StatusOK, cameraResponse{Success: true})
}

// handleProcessFrame handles POST /process_frame: it classifies one
// client-supplied base64 image with the session classifier.
func (s *Server) handleProcessFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	reqID := uuid.NewString()

	var req processFrameRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFrameBody)).Decode(&req); err != nil {
		s.frameError(w, reqID, "Invalid request body", err)
		return
	}
	if req.Frame == "" {
		s.frameError(w, reqID, "No frame provided", nil)
		return
	}

	frame, err := capture.DecodeBase64(req.Frame)
	defer frame.Close()
	if err != nil {
		s.frameError(w, reqID, err.Error(), err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.InferenceTimeout)
	defer cancel()

	obs, err := s.config.App.Classify(ctx, &frame)
	if err != nil {
		s.frameError(w, reqID, err.Error(), err)
		return
	}

	s.logger.Debugw("frame classified", "request", reqID, "status", obs.Status, "confidence", obs.Confidence)
	writeJSON(w, http.StatusOK, processFrameResponse{
		Status:        obs.Status,
		Confidence:    obs.Confidence,
		RawConfidence: obs.RawConfidence,
	})
}

func (s *Server) frameError(w http.ResponseWriter, reqID, message string, err error) {
	s.logger.Infow("process_frame rejected", "request", reqID, "error", err)
	writeJSON(w, http.StatusBadRequest, processFrameResponse{
		Error:  message,
		Status: "error",
	})
}
