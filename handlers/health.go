package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reservely/utils"
)

// HealthHandler handles GET /health from the latest monitor snapshot.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
