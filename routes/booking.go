package routes

import (
	"github.com/gin-gonic/gin"

	"reservely/handlers"
)

// RegisterBookingRoutes registers all endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, h *handlers.BookingHandler) {
	bookings := r.Group("/api/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.GetBookingBySerial) // lookup by ?serial_key=
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id", h.UpdateBooking)
		bookings.POST("/:id/cancel/request", h.RequestCancellation) // Phase 1: issue verification code
		bookings.POST("/:id/cancel/verify", h.VerifyCancellation)   // Phase 2: complete cancellation
	}

	providers := r.Group("/api/providers")
	{
		providers.GET("/:id/slots", h.ListProviderSlots)
		providers.GET("/:id/bookings", h.ListProviderBookings)
	}
}
