package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	enginedomain "github.com/sellerdesk/recond/internal/engine/domain"
)

// TransitionChargeback moves a dispute to the requested status. Backward
// moves and moves out of a terminal status come back as 409.
func (s *Server) TransitionChargeback(c *gin.Context) {
	if s.ingestSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	to := enginedomain.ChargebackStatus(strings.TrimSpace(req.Status))
	switch to {
	case enginedomain.ChargebackInitiated,
		enginedomain.ChargebackUnderReview,
		enginedomain.ChargebackWon,
		enginedomain.ChargebackLost:
	default:
		AbortWithError(c, newValidationError("status", "invalid_status", "invalid chargeback status"))
		return
	}

	moved, err := s.ingestSvc.TransitionChargeback(c.Request.Context(), c.Param("id"), to)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.reports.Flush()
	c.JSON(http.StatusOK, gin.H{"chargeback": moved})
}
