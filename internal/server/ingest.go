package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sellerdesk/recond/internal/normalize"
)

type ingestRequest struct {
	Records []map[string]any `json:"records"`
}

// IngestBatch accepts a raw portal export batch under /api/ingest/:schema.
// Rejected records are reported per index; accepted ones invalidate the
// cached report.
func (s *Server) IngestBatch(c *gin.Context) {
	if s.ingestSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	schema := normalize.Schema(c.Param("schema"))
	if !normalize.ValidSchema(schema) {
		AbortWithError(c, newValidationError("schema", "unknown_schema", "unknown ingestion schema"))
		return
	}

	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Records) == 0 {
		AbortWithError(c, newValidationError("records", "required", "records is required"))
		return
	}

	result, err := s.ingestSvc.IngestBatch(c.Request.Context(), schema, req.Records)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if result.Accepted > 0 {
		s.reports.Flush()
	}

	c.JSON(http.StatusOK, gin.H{
		"schema":   string(result.Schema),
		"accepted": result.Accepted,
		"rejected": result.Rejected,
		"rejects":  result.Rejects,
	})
}
