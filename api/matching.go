package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wasel-app/wasel/internal/service/marketplace"
)

type MatchingHandler struct {
	service marketplace.MatchingUseCase
}

func NewMatchingHandler(service marketplace.MatchingUseCase) *MatchingHandler {
	return &MatchingHandler{service: service}
}

func (h *MatchingHandler) Register(router *gin.RouterGroup) {
	router.GET("/requests", h.openRequests)
}

func (h *MatchingHandler) openRequests(c *gin.Context) {
	includeAll := c.Query("all") == "true"

	result, err := h.service.OpenRequests(c.Request.Context(), currentUserID(c), includeAll)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]tripResponse, 0, len(result.Trips))
	for i := range result.Trips {
		responses = append(responses, toTripResponse(&result.Trips[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"requests":               responses,
		"specialization_missing": result.SpecializationMissing,
	})
}
