package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/banlingbo/comp9321/internal/service"
	"github.com/banlingbo/comp9321/internal/transit"
)

// OperatorProfiles handles GET /operator-profiles/:id
//
// Collects the distinct operators departing from the stop within the next
// 90 minutes (at most five) and returns one generated description per
// operator.
//
// Response 200: {stop_id, profiles:[{operator_name, information}]}.
// Response 400/404: the upstream rejected the stop id with that status.
// Response 500: the generative backend failed.
// Response 503: upstream connection failure.
// Other upstream HTTP errors pass their status code through.
func (h *Handler) OperatorProfiles(c *gin.Context) {
	id, ok := parseStopID(c)
	if !ok {
		return
	}

	profiles, err := h.profilesService.OperatorProfiles(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrGenerationFailed) {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate operator profiles."})
			return
		}
		if errors.Is(err, transit.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Service unavailable."})
			return
		}
		var statusErr *transit.StatusError
		if errors.As(err, &statusErr) {
			switch statusErr.StatusCode {
			case http.StatusBadRequest:
				c.JSON(http.StatusBadRequest, gin.H{"message": "Bad request."})
			case http.StatusNotFound:
				c.JSON(http.StatusNotFound, gin.H{"message": "Stop not found."})
			default:
				c.JSON(statusErr.StatusCode, gin.H{"message": "An unexpected error occurred."})
			}
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An unexpected error occurred."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stop_id":  id,
		"profiles": profiles,
	})
}
