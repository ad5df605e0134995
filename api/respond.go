package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wasel-app/wasel/internal/domain"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Anything
// untyped is a 500 with a generic body so internals never leak to clients.
func respondError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case domain.IsInvalidState(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case domain.IsCapacity(err), domain.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
