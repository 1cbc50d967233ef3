// Package handler contains the gin HTTP handlers for the stop directory.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/banlingbo/comp9321/internal/service"
	"github.com/banlingbo/comp9321/internal/storage"
	"github.com/banlingbo/comp9321/internal/transit"
)

// Handler holds the domain dependencies for all HTTP handlers.
// A single Handler is shared across all routes; individual methods are
// registered as gin handler functions.
type Handler struct {
	stopsRepo       storage.StopsRepository
	stopsService    *service.StopsService
	profilesService *service.ProfilesService
	guideService    *service.GuideService
}

// New creates a Handler with the given dependencies.
func New(
	stopsRepo storage.StopsRepository,
	stopsService *service.StopsService,
	profilesService *service.ProfilesService,
	guideService *service.GuideService,
) *Handler {
	return &Handler{
		stopsRepo:       stopsRepo,
		stopsService:    stopsService,
		profilesService: profilesService,
		guideService:    guideService,
	}
}

// parseStopID extracts the :id path parameter as an integer.
// On failure it writes a 400 response and returns (0, false).
func parseStopID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Bad Request: stop id must be an integer."})
		return 0, false
	}
	return id, true
}

// stopSelfLink builds the canonical URL of a stop resource from the
// request's Host header.
func stopSelfLink(c *gin.Context, id int64) gin.H {
	return gin.H{"href": fmt.Sprintf("http://%s/stops/%d", c.Request.Host, id)}
}

// upstreamStatus classifies a transit error: 503 for connection failures,
// the upstream's own status code for HTTP rejections. ok is false when err
// is neither kind.
func upstreamStatus(err error) (code int, ok bool) {
	if errors.Is(err, transit.ErrUnavailable) {
		return http.StatusServiceUnavailable, true
	}
	var statusErr *transit.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	return 0, false
}
