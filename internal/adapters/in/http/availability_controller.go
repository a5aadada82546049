package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/in"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
	"github.com/suchimauz/appointment-availability-engine/internal/utils"
)

// maxHorizonDays ограничивает поиск ближайшего слота: каждый день - запрос к источнику расписаний
const maxHorizonDays = 365

type AvailabilityController struct {
	useCase in.AvailabilityUseCase
	clock   out.ClockPort
	cfg     *config.Config
}

func NewAvailabilityController(useCase in.AvailabilityUseCase, clock out.ClockPort, cfg *config.Config) *AvailabilityController {
	return &AvailabilityController{
		useCase: useCase,
		clock:   clock,
		cfg:     cfg,
	}
}

func (c *AvailabilityController) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/slots/generate", c.generateSlots)
	api.POST("/slots/conflict", c.checkConflict)
	api.POST("/availability", c.getAvailability)
	api.GET("/providers/:providerId/availability", c.providerAvailability)
	api.GET("/providers/:providerId/next-available", c.nextAvailable)
}

type GenerateSlotsRequest struct {
	Config domain.ScheduleConfig `json:"config"`
	Date   json_types.Date       `json:"date"`
}

type CheckConflictRequest struct {
	SlotStart       json_types.TimeOfDay         `json:"slotStart"`
	DurationMinutes int                          `json:"durationMinutes"`
	Date            *json_types.Date             `json:"date,omitempty"`
	Existing        []domain.ExistingAppointment `json:"existing"`
}

type AvailabilityRequest struct {
	Config   domain.ScheduleConfig        `json:"config"`
	Date     json_types.Date              `json:"date"`
	Existing []domain.ExistingAppointment `json:"existing"`
}

func (c *AvailabilityController) generateSlots(ctx *gin.Context) {
	var req GenerateSlotsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err.Error())
		return
	}
	if req.Date.Date.IsZero() {
		badRequest(ctx, "date is required")
		return
	}

	slots, err := c.useCase.GenerateSlots(req.Config, req.Date.Date)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"date":  req.Date,
		"slots": slots,
	})
}

func (c *AvailabilityController) checkConflict(ctx *gin.Context) {
	var req CheckConflictRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err.Error())
		return
	}
	if req.DurationMinutes <= 0 {
		badRequest(ctx, "durationMinutes must be positive")
		return
	}

	existing := req.Existing
	// С датой сравниваем только записи того же дня
	if req.Date != nil && !req.Date.Date.IsZero() {
		existing = make([]domain.ExistingAppointment, 0, len(req.Existing))
		for _, appointment := range req.Existing {
			if utils.SameDay(appointment.StartDateTime.Date.In(req.Date.Date.Location()), req.Date.Date) {
				existing = append(existing, appointment)
			}
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"conflict": c.useCase.HasConflict(req.SlotStart, req.DurationMinutes, existing),
	})
}

func (c *AvailabilityController) getAvailability(ctx *gin.Context) {
	var req AvailabilityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err.Error())
		return
	}
	if req.Date.Date.IsZero() {
		badRequest(ctx, "date is required")
		return
	}

	slots, err := c.useCase.GetAvailability(req.Config, req.Date.Date, req.Existing)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"date":  req.Date,
		"slots": slots,
	})
}

func (c *AvailabilityController) providerAvailability(ctx *gin.Context) {
	providerID := ctx.Param("providerId")

	date, err := utils.ParseDate(ctx.Query("date"))
	if err != nil {
		badRequest(ctx, "invalid date format")
		return
	}

	slots, debug, err := c.useCase.ProviderAvailability(ctx.Request.Context(), providerID, date, ctx.Query("sessionId"))
	if err != nil {
		writeError(ctx, err)
		return
	}

	response := gin.H{
		"providerId": providerID,
		"date":       utils.StartCurrentDay(date.In(config.TimeZone)).Format("2006-01-02"),
		"slots":      slots,
	}
	if ctx.Query("debug") == "true" {
		response["debug"] = debug
	}

	ctx.JSON(http.StatusOK, response)
}

func (c *AvailabilityController) nextAvailable(ctx *gin.Context) {
	providerID := ctx.Param("providerId")

	from := c.clock.Now()
	if raw := ctx.Query("from"); raw != "" {
		parsed, err := utils.ParseDate(raw)
		if err != nil {
			badRequest(ctx, "invalid from format")
			return
		}
		from = parsed
	}

	days := 0
	if raw := ctx.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxHorizonDays {
			badRequest(ctx, fmt.Sprintf("days must be an integer between 1 and %d", maxHorizonDays))
			return
		}
		days = parsed
	}

	next, err := c.useCase.NextAvailable(ctx.Request.Context(), providerID, from, days)
	if err != nil {
		writeError(ctx, err)
		return
	}

	if next == nil {
		ctx.JSON(http.StatusOK, gin.H{
			"providerId": providerID,
			"available":  false,
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"providerId": providerID,
		"available":  true,
		"slotStart":  next.Format(time.RFC3339),
	})
}
