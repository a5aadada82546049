package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/in"
)

type ReservationController struct {
	useCase in.ReservationUseCase
}

func NewReservationController(useCase in.ReservationUseCase) *ReservationController {
	return &ReservationController{useCase: useCase}
}

// RegisterRoutes вешает limit только на изменяющие запросы
func (c *ReservationController) RegisterRoutes(api *gin.RouterGroup, limit gin.HandlerFunc) {
	api.GET("/reservations/:id", c.getReservation)
	api.POST("/reservations", limit, c.createReservation)
	api.POST("/reservations/:id/extend", limit, c.extendReservation)
	api.POST("/reservations/:id/commit", limit, c.commitReservation)
	api.DELETE("/reservations/:id", limit, c.releaseReservation)
	api.DELETE("/sessions/:sessionId/reservations", limit, c.releaseSession)
}

type CreateReservationRequest struct {
	ProviderID string              `json:"providerId" binding:"required"`
	SlotStart  json_types.DateTime `json:"slotStart"`
	LocationID string              `json:"locationId"`
	SessionID  string              `json:"sessionId" binding:"required"`
}

type SessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

func reservationID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		badRequest(ctx, "invalid reservation ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (c *ReservationController) createReservation(ctx *gin.Context) {
	var req CreateReservationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err.Error())
		return
	}

	reservation, err := c.useCase.CreateReservation(ctx.Request.Context(), domain.ReservationRequest{
		ProviderID: req.ProviderID,
		SlotStart:  req.SlotStart.Date,
		LocationID: req.LocationID,
		SessionID:  req.SessionID,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, reservation)
}

func (c *ReservationController) getReservation(ctx *gin.Context) {
	id, ok := reservationID(ctx)
	if !ok {
		return
	}

	reservation, err := c.useCase.GetReservation(ctx.Request.Context(), id, ctx.Query("sessionId"))
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, reservation)
}

func (c *ReservationController) extendReservation(ctx *gin.Context) {
	id, ok := reservationID(ctx)
	if !ok {
		return
	}

	var req SessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err.Error())
		return
	}

	expiresAt, err := c.useCase.ExtendReservation(ctx.Request.Context(), id, req.SessionID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if expiresAt == nil {
		holdGone(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":        id,
		"expiresAt": expiresAt.Format(time.RFC3339),
	})
}

func (c *ReservationController) commitReservation(ctx *gin.Context) {
	id, ok := reservationID(ctx)
	if !ok {
		return
	}

	var req SessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err.Error())
		return
	}

	committed, err := c.useCase.CommitReservation(ctx.Request.Context(), id, req.SessionID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if !committed {
		holdGone(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":        id,
		"committed": true,
	})
}

func (c *ReservationController) releaseReservation(ctx *gin.Context) {
	id, ok := reservationID(ctx)
	if !ok {
		return
	}

	if err := c.useCase.ReleaseReservation(ctx.Request.Context(), id, ctx.Query("sessionId")); err != nil {
		writeError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (c *ReservationController) releaseSession(ctx *gin.Context) {
	released, err := c.useCase.ReleaseSession(ctx.Request.Context(), ctx.Param("sessionId"))
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"released": released})
}
