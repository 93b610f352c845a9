package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	availabilityRepo "reservely/database/repository/availability"
	"reservely/models"
	"reservely/services/booking"
	"reservely/utils"
)

// BookingHandler exposes the booking orchestration endpoints.
type BookingHandler struct {
	Service booking.BookingService
	Slots   availabilityRepo.AvailabilityRepository
	Logger  *zap.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc booking.BookingService, slots availabilityRepo.AvailabilityRepository, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Slots: slots, Logger: logger}
}

// CreateBooking handles POST /api/bookings, single or recurring-batch.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	bookings, err := h.Service.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if req.Recurring != nil {
		c.JSON(http.StatusCreated, gin.H{"bookings": bookings})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": bookings[0]})
}

// GetBooking handles GET /api/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.Service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// GetBookingBySerial handles GET /api/bookings?serial_key=..., the lookup
// guests use with the serial from their confirmation.
func (h *BookingHandler) GetBookingBySerial(c *gin.Context) {
	serial := c.Query("serial_key")
	if serial == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "serial_key query parameter is required")
		return
	}

	b, err := h.Service.GetBySerialKey(c.Request.Context(), serial)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// ListProviderBookings handles GET /api/providers/:id/bookings.
func (h *BookingHandler) ListProviderBookings(c *gin.Context) {
	from, to, err := parseWindow(c)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid time window", err.Error())
		return
	}

	bookings, err := h.Service.ListByProvider(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// UpdateBooking handles PATCH /api/bookings/:id.
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	var req models.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	b, err := h.Service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// RequestCancellation handles POST /api/bookings/:id/cancel/request.
func (h *BookingHandler) RequestCancellation(c *gin.Context) {
	var req models.CancellationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	if err := h.Service.RequestCancellation(c.Request.Context(), c.Param("id"), req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "verification code sent"})
}

// VerifyCancellation handles POST /api/bookings/:id/cancel/verify.
func (h *BookingHandler) VerifyCancellation(c *gin.Context) {
	var req models.CancellationVerify
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	b, err := h.Service.VerifyCancellation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// ListProviderSlots handles GET /api/providers/:id/slots.
func (h *BookingHandler) ListProviderSlots(c *gin.Context) {
	from, to, err := parseWindow(c)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid time window", err.Error())
		return
	}

	slots, err := h.Slots.ListByProvider(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

func parseWindow(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from, to := now, now.AddDate(0, 0, 14)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}
	return from, to, nil
}

// respondError maps the domain error taxonomy onto HTTP status codes.
func (h *BookingHandler) respondError(c *gin.Context, err error) {
	var (
		validation *booking.ValidationError
		notFound   *booking.NotFoundError
		conflict   *booking.ConflictError
		illegal    *booking.IllegalTransitionError
		authz      *booking.AuthorizationError
	)

	switch {
	case errors.As(err, &validation):
		utils.JSONError(c, http.StatusBadRequest, "validation failed", validation.Error())
	case errors.As(err, &notFound):
		utils.JSONError(c, http.StatusNotFound, "not found", notFound.Error())
	case errors.As(err, &conflict):
		utils.JSONError(c, http.StatusConflict, "booking conflict", conflict.Error())
	case errors.As(err, &illegal):
		utils.JSONError(c, http.StatusBadRequest, "illegal status transition", illegal.Error())
	case errors.As(err, &authz):
		utils.JSONError(c, http.StatusForbidden, "not authorized", authz.Error())
	default:
		h.Logger.Error("booking request failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal error", "an unexpected error occurred")
	}
}
