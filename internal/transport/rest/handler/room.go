package handler

import (
	"encoding/json"
	"net/http"

	"paircode/internal/model"
	"paircode/internal/service"
	"paircode/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// RoomHandler handles room lifecycle and session endpoints
type RoomHandler struct {
	roomSvc     *service.RoomService
	sessionSvc  *service.SessionService
	presenceSvc *service.PresenceService
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomSvc *service.RoomService, sessionSvc *service.SessionService, presenceSvc *service.PresenceService) *RoomHandler {
	return &RoomHandler{
		roomSvc:     roomSvc,
		sessionSvc:  sessionSvc,
		presenceSvc: presenceSvc,
	}
}

// Create handles POST /v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRoomRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	resp, err := h.roomSvc.CreateRoom(r.Context(), middleware.GetUserID(r.Context()), req.TaskID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomSvc.ListRooms(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// Get handles GET /v1/rooms/{roomId}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	room, err := h.roomSvc.GetRoom(r.Context(), roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if room.RoleOf(middleware.GetUserID(r.Context())) == model.RoleNone {
		writeServiceError(w, model.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// Delete handles DELETE /v1/rooms/{roomId}
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	if err := h.roomSvc.DeleteRoom(r.Context(), roomID, middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdvancePhase handles POST /v1/rooms/{roomId}/phase
func (h *RoomHandler) AdvancePhase(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	var req model.AdvancePhaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phase == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := h.roomSvc.AdvancePhase(r.Context(), roomID, middleware.GetUserID(r.Context()), req.Phase)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// Session handles GET /v1/rooms/{roomId}/session
func (h *RoomHandler) Session(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	view, err := h.sessionSvc.Snapshot(r.Context(), roomID, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ToggleHand handles POST /v1/rooms/{roomId}/hand
func (h *RoomHandler) ToggleHand(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	raised, hands, err := h.presenceSvc.ToggleHand(r.Context(), roomID, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"raised":      raised,
		"raisedHands": hands,
	})
}
