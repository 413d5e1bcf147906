package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/machinemind/predictive-maintenance/pkg/pagination"
)

// parsePagination reads limit and cursor query parameters. It aborts the
// request with 400 on malformed input and reports whether parsing
// succeeded.
func parsePagination(c *gin.Context) (pagination.Params, bool) {
	var params pagination.Params

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return params, false
		}
		params.Limit = limit
	}

	cursor, err := pagination.ParseCursor(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cursor"})
		return params, false
	}
	params.Cursor = cursor

	return params, true
}

func pageResponse[T any](page pagination.Page[T]) gin.H {
	data := page.Data
	if data == nil {
		data = []T{}
	}
	return gin.H{
		"data":        data,
		"next_cursor": pagination.FormatCursor(page.NextCursor),
		"has_more":    page.HasMore,
	}
}
