package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mealdesk/internal/auth"
	"mealdesk/internal/panel"
	"mealdesk/internal/store"
)

// Problem is the error body of every failed JSON request
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func problem(c *gin.Context, status int, kind, detail string) {
	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(status, Problem{
		Type:   kind,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

// writeError maps panel, store and auth errors onto HTTP statuses. Anything
// unrecognised is a failed store round trip.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, panel.ErrIncomplete):
		problem(c, http.StatusUnprocessableEntity, "incomplete-form", err.Error())
	case errors.Is(err, panel.ErrInvalidStatus):
		problem(c, http.StatusUnprocessableEntity, "invalid-status", err.Error())
	case errors.Is(err, panel.ErrNotFound), errors.Is(err, store.ErrNotFound):
		problem(c, http.StatusNotFound, "not-found", err.Error())
	case errors.Is(err, auth.ErrLoginTaken):
		problem(c, http.StatusConflict, "login-taken", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		problem(c, http.StatusUnauthorized, "invalid-credentials", err.Error())
	default:
		_ = c.Error(err)
		problem(c, http.StatusBadGateway, "store-failure", err.Error())
	}
}
