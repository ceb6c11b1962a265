package server

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	ratesFilename = "rates.xlsx"
	xlsxMIME      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	maxRatesUpload = 8 << 20
)

// UploadRates replaces the rate table with the uploaded workbook.
func (s *Server) UploadRates(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRatesUpload)

	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "required", "xlsx file is required"))
		return
	}
	f, err := header.Open()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer f.Close()

	resp, err := s.rateSvc.Replace(c.Request.Context(), f)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DownloadRates(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.rateSvc.Export(c.Request.Context(), &buf); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+ratesFilename+`"`)
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}
