package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sellerdesk/recond/internal/engine"
	enginedomain "github.com/sellerdesk/recond/internal/engine/domain"
	"github.com/sellerdesk/recond/internal/engine/marginaudit"
	"github.com/sellerdesk/recond/internal/worker"
)

func (s *Server) reportTTL() time.Duration {
	ttl := time.Duration(s.cfg.Server.ReportTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Minute
	}
	return ttl
}

// loadReport serves the cached report when fresh and recomputes it from the
// stored snapshot otherwise.
func (s *Server) loadReport(ctx context.Context) (engine.Report, error) {
	if cached, ok := s.reports.Get(worker.ReportCacheKey); ok {
		return cached, nil
	}

	snap, err := s.ingestSvc.LoadSnapshot(ctx)
	if err != nil {
		return engine.Report{}, err
	}
	report := s.engine.Run(snap, s.clock.Now())
	s.reports.Set(worker.ReportCacheKey, report, s.reportTTL())
	return report, nil
}

// GetReport returns the full reconciliation report; ?portal= narrows it to
// one portal's slice of the snapshot.
func (s *Server) GetReport(c *gin.Context) {
	portal := strings.TrimSpace(c.Query("portal"))
	if portal == "" {
		report, err := s.loadReport(c.Request.Context())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"report": report})
		return
	}

	snap, err := s.ingestSvc.LoadSnapshot(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	part, ok := engine.PartitionByPortal(snap)[portal]
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"portal": portal,
		"report": s.engine.Run(part, s.clock.Now()),
	})
}

// GetMarginReport returns the margin audit rows, sorted server-side so
// repeated requests with the same key flip direction client-side.
func (s *Server) GetMarginReport(c *gin.Context) {
	key := marginaudit.SortKey(strings.TrimSpace(c.DefaultQuery("sort", string(marginaudit.KeyMarginDrop))))
	if !marginaudit.ValidKey(key) {
		AbortWithError(c, newValidationError("sort", "invalid_sort_key", "invalid sort key"))
		return
	}
	dir := strings.TrimSpace(c.DefaultQuery("dir", "desc"))
	if dir != "asc" && dir != "desc" {
		AbortWithError(c, newValidationError("dir", "invalid_sort_dir", "dir must be asc or desc"))
		return
	}

	report, err := s.loadReport(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows := make([]marginaudit.Annotated, len(report.Margins))
	copy(rows, report.Margins)
	marginaudit.Sort(rows, key, dir == "desc")

	c.JSON(http.StatusOK, gin.H{
		"margins": rows,
		"summary": report.MarginSummary,
		"sort":    string(key),
		"dir":     dir,
	})
}

// GetAlerts lists risk alerts. ?severity= narrows the list; the counts always
// cover the full set so filtering never skews the aggregate view.
func (s *Server) GetAlerts(c *gin.Context) {
	severity := enginedomain.Severity(strings.TrimSpace(c.Query("severity")))
	if severity != "" && !enginedomain.ValidSeverity(severity) {
		AbortWithError(c, newValidationError("severity", "invalid_severity", "invalid severity"))
		return
	}

	report, err := s.loadReport(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	alerts := report.Alerts
	if severity != "" {
		filtered := make([]enginedomain.RiskAlert, 0, len(alerts))
		for _, a := range alerts {
			if a.Severity == severity {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"counts": report.AlertCounts,
	})
}

func (s *Server) GetHealthScore(c *gin.Context) {
	report, err := s.loadReport(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"score":        report.Health.Score,
		"status":       string(report.Health.Status),
		"generated_at": report.GeneratedAt,
	})
}

// GetPriceChanges lists the recorded price moves for one SKU.
func (s *Server) GetPriceChanges(c *gin.Context) {
	limit := 50
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	changes, err := s.ingestSvc.PriceChanges(c.Request.Context(), c.Param("sku"), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": changes})
}
