package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"paircode/internal/model"
	"paircode/internal/service"
	"paircode/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// EditorHandler handles driver arbitration and shared file endpoints
type EditorHandler struct {
	driverSvc *service.DriverService
	fileSvc   *service.FileService
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(driverSvc *service.DriverService, fileSvc *service.FileService) *EditorHandler {
	return &EditorHandler{driverSvc: driverSvc, fileSvc: fileSvc}
}

// AcquireDriver handles POST /v1/rooms/{roomId}/driver
func (h *EditorHandler) AcquireDriver(w http.ResponseWriter, r *http.Request) {
	tok, err := h.driverSvc.Acquire(r.Context(), mux.Vars(r)["roomId"], middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

// ReleaseDriver handles DELETE /v1/rooms/{roomId}/driver
func (h *EditorHandler) ReleaseDriver(w http.ResponseWriter, r *http.Request) {
	tok, err := h.driverSvc.Release(r.Context(), mux.Vars(r)["roomId"], middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

// ForceTakeDriver handles POST /v1/rooms/{roomId}/driver/force
func (h *EditorHandler) ForceTakeDriver(w http.ResponseWriter, r *http.Request) {
	tok, err := h.driverSvc.ForceTake(r.Context(), mux.Vars(r)["roomId"], middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

// ListFiles handles GET /v1/rooms/{roomId}/files
func (h *EditorHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	reg, err := h.fileSvc.List(r.Context(), mux.Vars(r)["roomId"], middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg.Wire())
}

// UpdateFile handles PUT /v1/rooms/{roomId}/files/{path}
func (h *EditorHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	path := strings.TrimPrefix(vars["path"], "/")

	var req model.UpdateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reg, err := h.fileSvc.Update(r.Context(), vars["roomId"], middleware.GetUserID(r.Context()), path, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg.Wire())
}

// SwitchFile handles PUT /v1/rooms/{roomId}/active-file
func (h *EditorHandler) SwitchFile(w http.ResponseWriter, r *http.Request) {
	var req model.SwitchFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reg, err := h.fileSvc.Switch(r.Context(), mux.Vars(r)["roomId"], middleware.GetUserID(r.Context()), req.Path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg.Wire())
}
