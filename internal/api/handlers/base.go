// Package handlers implements the HTTP handlers behind the API routes.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ledgermatch/ledgermatch/internal/infrastructure/storage"
)

// Base provides common functionality for the read-only handlers.
type Base struct {
	repo storage.Repository
}

// NewBase creates a new base handler.
func NewBase(repo storage.Repository) *Base {
	return &Base{repo: repo}
}

// IntQuery parses an integer query parameter, returning the default when
// the parameter is absent or not a number.
func IntQuery(c *gin.Context, name string, defaultValue int) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
