package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"coursemarket/internal/models"
	"coursemarket/internal/repository"
	"coursemarket/internal/service"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{repository.ErrEmailTaken, http.StatusBadRequest, "email_taken"},
	{service.ErrMissingFields, http.StatusBadRequest, "invalid_input"},
	{service.ErrInvalidRating, http.StatusBadRequest, "invalid_rating"},
	{models.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{service.ErrCourseNotOwned, http.StatusForbidden, "course_not_purchased"},
	{repository.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{repository.ErrCourseNotFound, http.StatusNotFound, "course_not_found"},
	{repository.ErrPurchaseNotFound, http.StatusNotFound, "purchase_not_found"},
	{repository.ErrReviewNotFound, http.StatusNotFound, "review_not_found"},
	{models.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
}

// fail maps domain errors to responses. Anything unrecognised is logged and
// reported as a bare 500.
func (h HandlerSet) fail(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"error": m.code, "message": m.err.Error()})
			return
		}
	}

	_ = c.Error(err)
	h.log.Error().Err(err).
		Str("path", c.Request.URL.Path).
		Str("request_id", c.GetString("X-Request-Id")).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "server error"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": err.Error()})
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id", "message": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}
