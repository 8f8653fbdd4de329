package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kujifair/kuji-backend/internal/models"
	"github.com/kujifair/kuji-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RateHandler handles profit-rate configuration requests
type RateHandler struct {
	rateService services.RateService
}

// NewRateHandler creates a new RateHandler
func NewRateHandler(rateService services.RateService) *RateHandler {
	return &RateHandler{
		rateService: rateService,
	}
}

// GetRate handles GET /admin/products/:id/rate
func (h *RateHandler) GetRate(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID format"})
		return
	}

	response, err := h.rateService.GetRate(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rate: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, response)
}

// UpdateRate handles PUT /admin/products/:id/rate
func (h *RateHandler) UpdateRate(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID format"})
		return
	}

	var request models.UpdateRateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if request.ProfitRate == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profitRate is required"})
		return
	}
	if *request.ProfitRate < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profitRate must not be negative"})
		return
	}

	updatedBy, _ := c.Get("userID")
	updatedByStr, _ := updatedBy.(string)

	response, err := h.rateService.SetRate(c.Request.Context(), productID, *request.ProfitRate, updatedByStr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update rate: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, response)
}
