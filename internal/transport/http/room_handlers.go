package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiremeet/internal/core"
)

// RoomHandlers exposes read-only views of live rooms.
type RoomHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{hub: hub, log: logger}
}

// RoomResponse describes a live room.
type RoomResponse struct {
	Code    string           `json:"code"`
	Count   int              `json:"count"`
	Members []MemberResponse `json:"members"`
}

// MemberResponse is a participant in a live room.
type MemberResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetRoom returns the current members of a room.
// GET /api/rooms/:code
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	code := c.Param("code")

	members, err := h.hub.RoomMembers(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, core.ErrHubStopped) {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "shutting down"})
			return
		}
		h.log.Error().Err(err).Str("room", code).Msg("failed to inspect room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if len(members) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	response := RoomResponse{
		Code:    code,
		Count:   len(members),
		Members: make([]MemberResponse, 0, len(members)),
	}
	for _, m := range members {
		response.Members = append(response.Members, MemberResponse{ID: string(m.ID), Name: m.Name})
	}

	c.JSON(http.StatusOK, response)
}
