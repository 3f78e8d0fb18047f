package handler

import (
	"encoding/json"
	"net/http"

	"paircode/internal/model"
	"paircode/internal/service"
	"paircode/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// FeedbackHandler handles reflection, notes and summary endpoints
type FeedbackHandler struct {
	feedbackSvc *service.FeedbackService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(feedbackSvc *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackSvc: feedbackSvc}
}

// Questions handles GET /v1/reflection-questions
func (h *FeedbackHandler) Questions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.feedbackSvc.Questions())
}

// GetReflection handles GET /v1/rooms/{roomId}/reflection
func (h *FeedbackHandler) GetReflection(w http.ResponseWriter, r *http.Request) {
	reflection, err := h.feedbackSvc.GetReflection(r.Context(), mux.Vars(r)["roomId"], middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if reflection == nil {
		writeError(w, http.StatusNotFound, "no reflection yet")
		return
	}
	writeJSON(w, http.StatusOK, reflection)
}

// SaveReflection handles PUT /v1/rooms/{roomId}/reflection
func (h *FeedbackHandler) SaveReflection(w http.ResponseWriter, r *http.Request) {
	var req model.SaveReflectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.feedbackSvc.SaveReflection(r.Context(), mux.Vars(r)["roomId"], middleware.GetUserID(r.Context()), req.Responses); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetNotes handles GET /v1/rooms/{roomId}/notes
func (h *FeedbackHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.feedbackSvc.GetNotes(r.Context(), mux.Vars(r)["roomId"], middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if notes == nil {
		notes = &model.PrivateNotes{}
	}
	writeJSON(w, http.StatusOK, notes)
}

// SaveNotes handles PUT /v1/rooms/{roomId}/notes
func (h *FeedbackHandler) SaveNotes(w http.ResponseWriter, r *http.Request) {
	var req model.SaveNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.feedbackSvc.SaveNotes(r.Context(), mux.Vars(r)["roomId"], middleware.GetUserID(r.Context()), req.Content); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /v1/rooms/{roomId}/summary
func (h *FeedbackHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.feedbackSvc.Summary(r.Context(), mux.Vars(r)["roomId"], middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
