package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kujifair/kuji-backend/internal/models"
	"github.com/kujifair/kuji-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DrawHandler handles draw-related HTTP requests
type DrawHandler struct {
	drawService services.DrawService
	reconciler  services.Reconciler
}

// NewDrawHandler creates a new DrawHandler
func NewDrawHandler(drawService services.DrawService, reconciler services.Reconciler) *DrawHandler {
	return &DrawHandler{
		drawService: drawService,
		reconciler:  reconciler,
	}
}

// ExecuteDraw handles POST /products/:id/draw
func (h *DrawHandler) ExecuteDraw(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID format"})
		return
	}

	var request models.DrawRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	results, err := h.drawService.ExecuteDraw(c.Request.Context(), productID, request.Count, userIDStr)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsufficientInventory):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "results": results})
		case errors.Is(err, services.ErrProductNotActive),
			errors.Is(err, services.ErrInvalidParameter),
			errors.Is(err, services.ErrMissingParameter):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute draw: " + err.Error(), "results": results})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

// GetDrawsByProduct handles GET /admin/products/:id/draws
func (h *DrawHandler) GetDrawsByProduct(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID format"})
		return
	}

	records, err := h.drawService.GetDrawsByProduct(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve draws: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetMyDraws handles GET /users/me/draws
func (h *DrawHandler) GetMyDraws(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	if userIDStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	records, err := h.drawService.GetDrawsByUser(c.Request.Context(), userIDStr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve draws: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// Reconcile handles POST /admin/reconcile/:id
func (h *DrawHandler) Reconcile(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID format"})
		return
	}

	report, err := h.reconciler.ReconcileProduct(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reconciliation failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clean": report.Clean(), "report": report})
}
