package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/weighbill/internal/billing/domain"
	"github.com/smallbiznis/weighbill/internal/observability/logger"
	weighingdomain "github.com/smallbiznis/weighbill/internal/weighing/domain"
	"github.com/smallbiznis/weighbill/pkg/db"
	"go.uber.org/zap"
)

const (
	billFormatJSON = "json"
	billFormatPDF  = "pdf"
)

func (s *Server) GetBill(c *gin.Context) {
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", billFormatJSON)))
	if format != billFormatJSON && format != billFormatPDF {
		AbortWithError(c, newValidationError("format", "invalid_format", "format must be json or pdf"))
		return
	}

	from, to, err := parseWindow(c.Query("from"), c.Query("to"), s.clock.Now(), s.loc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	bill, err := s.billingSvc.BuildBill(c.Request.Context(), billingdomain.BillQuery{
		ProviderID: c.Param("id"),
		From:       from,
		To:         to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if format == billFormatJSON {
		c.JSON(http.StatusOK, bill)
		return
	}

	doc, err := s.pdf.RenderBill(c.Request.Context(), bill)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	data, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	filename := fmt.Sprintf("bill-%s-%s.pdf", bill.ProviderID, bill.To.Format(weighingdomain.TimeLayout))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// Health reports database reachability. The weighing service is not checked.
func (s *Server) Health(c *gin.Context) {
	if err := db.Ping(c.Request.Context(), s.db); err != nil {
		logger.FromContext(c.Request.Context()).Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
