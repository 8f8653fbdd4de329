package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kujifair/kuji-backend/internal/models"
	"github.com/kujifair/kuji-backend/internal/services"
)

// VerifyHandler handles the public draw verification endpoint
type VerifyHandler struct {
	verificationService services.VerificationService
}

// NewVerifyHandler creates a new VerifyHandler
func NewVerifyHandler(verificationService services.VerificationService) *VerifyHandler {
	return &VerifyHandler{
		verificationService: verificationService,
	}
}

// Verify handles POST /verify. A hash mismatch is a successful response with
// hashMatch false; only malformed requests are client errors.
func (h *VerifyHandler) Verify(c *gin.Context) {
	var request models.VerifyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	response, err := h.verificationService.Verify(&request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": response})
}
