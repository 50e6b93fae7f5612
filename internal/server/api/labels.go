package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/posturewatch/internal/store"
)

// LabelsHandler handles HTTP requests for the model class label map.
type LabelsHandler struct {
	labels *store.LabelRepository
	reload func() error
}

// NewLabelsHandler creates a LabelsHandler. reload is called after every
// change so the running classifier picks it up; it may be nil.
func NewLabelsHandler(labels *store.LabelRepository, reload func() error) *LabelsHandler {
	return &LabelsHandler{labels: labels, reload: reload}
}

type labelsResponse struct {
	Labels map[int]string `json:"labels"`
}

type setLabelRequest struct {
	Label string `json:"label"`
}

// ServeHTTP routes /api/labels and /api/labels/{class_id}.
func (h *LabelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/labels")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w)
		return
	}

	classID, err := strconv.Atoi(path)
	if err != nil || classID < 0 {
		writeError(w, http.StatusBadRequest, "Invalid class id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.set(w, r, classID)
	case http.MethodDelete:
		h.delete(w, classID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *LabelsHandler) list(w http.ResponseWriter) {
	labels, err := h.labels.All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list labels")
		return
	}
	writeJSON(w, http.StatusOK, labelsResponse{Labels: labels})
}

func (h *LabelsHandler) set(w http.ResponseWriter, r *http.Request, classID int) {
	var req setLabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.labels.Set(classID, req.Label); err != nil {
		if errors.Is(err, store.ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save label")
		return
	}
	if !h.reloaded(w) {
		return
	}
	h.list(w)
}

func (h *LabelsHandler) delete(w http.ResponseWriter, classID int) {
	if err := h.labels.Delete(classID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Label not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete label")
		return
	}
	if !h.reloaded(w) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LabelsHandler) reloaded(w http.ResponseWriter) bool {
	if h.reload == nil {
		return true
	}
	if err := h.reload(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload classifier")
		return false
	}
	return true
}
