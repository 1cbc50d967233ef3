package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/banlingbo/comp9321/internal/service"
	"github.com/banlingbo/comp9321/internal/transit"
)

// Guide handles GET /guide
//
// Searches all unordered pairs of stored stops in ascending-id order for
// the first pair that has both an upstream journey and points of interest
// near each end, then generates a narrative guide for it and returns the
// document as a file download.
//
// Response 200: the guide document as a text attachment.
// Response 404: no pair of stored stops qualifies.
// Response 500: a pair qualified but generation failed.
// Response 503: upstream connection failure during the search.
func (h *Handler) Guide(c *gin.Context) {
	doc, err := h.guideService.Generate(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoQualifyingPair):
			c.JSON(http.StatusNotFound, gin.H{"message": "No valid journey or POIs found between stops"})
		case errors.Is(err, service.ErrGenerationFailed):
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate content with Gemini API"})
		case errors.Is(err, transit.ErrUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Service unavailable."})
		default:
			var statusErr *transit.StatusError
			if errors.As(err, &statusErr) {
				c.JSON(statusErr.StatusCode, gin.H{"message": "An unexpected error occurred."})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "An unexpected error occurred."})
		}
		return
	}

	c.FileAttachment(doc.Path, doc.Filename)
}
