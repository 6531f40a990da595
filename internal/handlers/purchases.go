package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coursemarket/internal/middleware"
)

type purchaseRequest struct {
	CourseID string `json:"courseId" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h HandlerSet) CreatePurchase(c *gin.Context) {
	claims, _ := middleware.Claims(c)

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	purchase, err := h.purchaseService.Create(c.Request.Context(), claims.UserID, req.CourseID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, purchase)
}

func (h HandlerSet) ListPurchases(c *gin.Context) {
	purchases, err := h.purchaseService.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, purchases)
}

func (h HandlerSet) SetPurchaseStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	purchase, err := h.purchaseService.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, purchase)
}

func (h HandlerSet) DeletePurchase(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.purchaseService.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "purchase deleted"})
}
