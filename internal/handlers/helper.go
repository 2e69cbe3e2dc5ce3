package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// parsePositiveID parses a non-zero unsigned id.
func parsePositiveID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parseIDParam reads a path id, writing a 400 and returning 0 when invalid.
func parseIDParam(c *gin.Context, param string) uint {
	id, ok := parsePositiveID(c.Param(param))
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID must be a positive integer",
			Code:    "INVALID_ID",
		})
		return 0
	}
	return id
}

// parseIDQuery is parseIDParam for a required query parameter.
func parseIDQuery(c *gin.Context, key string) uint {
	id, ok := parsePositiveID(c.Query(key))
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + key,
			Details: key + " query parameter must be a positive integer",
			Code:    "INVALID_ID",
		})
		return 0
	}
	return id
}
