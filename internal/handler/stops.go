package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/banlingbo/comp9321/internal/service"
	"github.com/banlingbo/comp9321/internal/storage"
)

// includableFields is the fixed set of selectable fields for GetStop.
var includableFields = map[string]bool{
	"name":           true,
	"latitude":       true,
	"longitude":      true,
	"last_updated":   true,
	"next_departure": true,
}

// updatableFields is the fixed set of keys a PATCH body may carry.
var updatableFields = map[string]bool{
	"name":      true,
	"latitude":  true,
	"longitude": true,
}

// RegisterStops handles PUT /stops?query=
//
// Resolves the query against the upstream location search, upserts at most
// the first five stop-kind candidates, and returns the full stored table.
//
// Response 200: all candidates already existed (refreshed in place).
// Response 201: at least one new stop was created.
// Response 400: query parameter missing or empty.
// Response 404: the search returned no candidates.
// Response 503: upstream connection failure.
// Upstream HTTP rejections pass their status code through.
func (h *Handler) RegisterStops(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Bad Request: Query parameter is required."})
		return
	}

	stops, createdNew, err := h.stopsService.RegisterByQuery(c.Request.Context(), query)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoStopsFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Not Found: No stops found with the provided query."})
		default:
			if code, ok := upstreamStatus(err); ok {
				if code == http.StatusServiceUnavailable {
					c.JSON(code, gin.H{"message": "Service Unavailable: Error in external API."})
				} else {
					c.JSON(code, gin.H{"message": "Not Found: No stops found with the provided query."})
				}
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to register stops"})
		}
		return
	}

	out := make([]gin.H, 0, len(stops))
	for _, s := range stops {
		out = append(out, gin.H{
			"stop_id":      s.ID,
			"name":         s.Name,
			"latitude":     s.Latitude,
			"longitude":    s.Longitude,
			"last_updated": s.LastUpdated,
			"_links":       gin.H{"self": stopSelfLink(c, s.ID)},
		})
	}

	status := http.StatusOK
	if createdNew {
		status = http.StatusCreated
	}
	c.JSON(status, out)
}

// GetStop handles GET /stops/:id?include=
//
// The optional include parameter is a comma-separated subset of
// {name, latitude, longitude, last_updated, next_departure}; when absent,
// all fields are returned. next_departure is looked up live upstream and
// silently omitted when no departure within the next 120 minutes has a
// platform assigned.
//
// Response 400: unrecognized include field or non-integer id.
// Response 404: stop not in the store.
// Response 503: departures lookup failed upstream.
func (h *Handler) GetStop(c *gin.Context) {
	id, ok := parseStopID(c)
	if !ok {
		return
	}

	includeRaw := c.Query("include")
	var includeFields []string
	if includeRaw != "" {
		includeFields = strings.Split(includeRaw, ",")
		for _, f := range includeFields {
			if !includableFields[f] {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Bad Request: Invalid fields in include parameter."})
				return
			}
		}
	}

	stop, err := h.stopsRepo.GetStop(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to query stop"})
		return
	}
	if stop == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Stop not found"})
		return
	}

	selected := func(field string) bool {
		if len(includeFields) == 0 {
			return true
		}
		for _, f := range includeFields {
			if f == field {
				return true
			}
		}
		return false
	}

	resp := gin.H{"stop_id": stop.ID}
	if selected("name") {
		resp["name"] = stop.Name
	}
	if selected("latitude") {
		resp["latitude"] = stop.Latitude
	}
	if selected("longitude") {
		resp["longitude"] = stop.Longitude
	}
	if selected("last_updated") {
		resp["last_updated"] = stop.LastUpdated
	}

	if selected("next_departure") {
		next, found, err := h.stopsService.NextDeparture(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Service Unavailable: Error fetching departures from external API."})
			return
		}
		// Absence of a qualifying departure is not an error; the field is
		// simply omitted.
		if found {
			resp["next_departure"] = next
		}
	}

	links := gin.H{"self": stopSelfLink(c, id)}
	prev, next, err := h.stopsRepo.Neighbors(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to query stop"})
		return
	}
	if prev != nil {
		links["prev"] = stopSelfLink(c, *prev)
	}
	if next != nil {
		links["next"] = stopSelfLink(c, *next)
	}
	resp["_links"] = links

	c.JSON(http.StatusOK, resp)
}

// DeleteStop handles DELETE /stops/:id
//
// Response 200: the stop was removed.
// Response 404: no stop with that id; the store is unchanged.
func (h *Handler) DeleteStop(c *gin.Context) {
	id, ok := parseStopID(c)
	if !ok {
		return
	}

	existed, err := h.stopsRepo.DeleteStop(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to delete stop"})
		return
	}
	if !existed {
		c.JSON(http.StatusNotFound, gin.H{
			"message": fmt.Sprintf("The stop_id %d was not found in the database.", id),
			"stop_id": id,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("The stop_id %d was removed from the database.", id),
		"stop_id": id,
	})
}

// PatchStop handles PATCH /stops/:id
//
// The body must be a JSON object whose keys are a subset of
// {name, latitude, longitude}. Validation is all-or-nothing: any unknown
// key, any null value, or any wrongly-typed value rejects the whole
// request before the store is touched.
//
// Response 200: {stop_id, last_updated, _links.self} with the fresh stamp.
// Response 400: invalid body.
// Response 404: stop not in the store.
func (h *Handler) PatchStop(c *gin.Context) {
	id, ok := parseStopID(c)
	if !ok {
		return
	}

	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Bad Request: body must be a JSON object."})
		return
	}

	for key := range body {
		if !updatableFields[key] {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": fmt.Sprintf("Bad Request: Invalid or non-updatable field provided - %s", key),
			})
			return
		}
	}

	var upd storage.StopUpdate
	for key, raw := range body {
		if string(raw) == "null" {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": fmt.Sprintf("Bad Request: Field values for %s must not be empty.", key),
			})
			return
		}
		var typeErr error
		switch key {
		case "name":
			upd.Name = new(string)
			typeErr = json.Unmarshal(raw, upd.Name)
		case "latitude":
			upd.Latitude = new(float64)
			typeErr = json.Unmarshal(raw, upd.Latitude)
		case "longitude":
			upd.Longitude = new(float64)
			typeErr = json.Unmarshal(raw, upd.Longitude)
		}
		if typeErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": fmt.Sprintf("Bad Request: Field value for %s has the wrong type.", key),
			})
			return
		}
	}

	found, lastUpdated, err := h.stopsRepo.UpdateStop(c.Request.Context(), id, upd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to update stop"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"message": "Stop not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stop_id":      id,
		"last_updated": lastUpdated,
		"_links":       gin.H{"self": stopSelfLink(c, id)},
	})
}
