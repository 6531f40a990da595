package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"coursemarket/internal/middleware"
	"coursemarket/internal/service"
)

// rating accepts both 5 and "5"; form values reach the API as strings.
type rating int

func (r *rating) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*r = 0
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		var f float64
		if json.Unmarshal(data, &f) != nil || f != float64(int(f)) {
			return fmt.Errorf("rating must be an integer")
		}
		n = int(f)
	}
	*r = rating(n)
	return nil
}

// Rating is validated by the service so that ownership is checked first.
type reviewRequest struct {
	CourseID string `json:"courseId" binding:"required"`
	Text     string `json:"text"`
	Rating   rating `json:"rating"`
}

func (h HandlerSet) CreateReview(c *gin.Context) {
	claims, _ := middleware.Claims(c)

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	review, err := h.reviewService.Create(c.Request.Context(), claims.UserID, service.CreateReviewInput{
		CourseID: req.CourseID,
		Text:     req.Text,
		Rating:   int(req.Rating),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// ListReviews returns approved reviews for ?courseId= and every review
// otherwise.
func (h HandlerSet) ListReviews(c *gin.Context) {
	reviews, err := h.reviewService.List(c.Request.Context(), c.Query("courseId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h HandlerSet) SetReviewStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	review, err := h.reviewService.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

func (h HandlerSet) DeleteReview(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.reviewService.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "review deleted"})
}
