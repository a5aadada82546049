package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

// writeError переводит доменные ошибки в HTTP статусы
func writeError(ctx *gin.Context, err error) {
	var cfgErr *domain.ConfigurationError

	switch {
	case errors.As(err, &cfgErr):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    cfgErr.Error(),
			"problems": cfgErr.Problems,
		})
	case errors.Is(err, domain.ErrSlotHeld), errors.Is(err, domain.ErrSlotTaken):
		ctx.JSON(http.StatusConflict, gin.H{
			"error":     err.Error(),
			"available": false,
		})
	case errors.Is(err, domain.ErrScheduleNotFound), errors.Is(err, domain.ErrReservationNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidReservationRequest):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// Резерв истек или освобожден: клиент должен заново запросить доступность
func holdGone(ctx *gin.Context) {
	ctx.JSON(http.StatusGone, gin.H{
		"error":     domain.ErrReservationNotFound.Error(),
		"available": false,
	})
}
