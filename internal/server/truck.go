package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	truckdomain "github.com/smallbiznis/weighbill/internal/truck/domain"
)

func (s *Server) RegisterTruck(c *gin.Context) {
	var req truckdomain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.truckSvc.Register(c.Request.Context(), truckdomain.RegisterRequest{
		ID:         strings.TrimSpace(req.ID),
		ProviderID: strings.TrimSpace(req.ProviderID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": resp.ID, "provider": resp.ProviderID.String()})
}

func (s *Server) UpdateTruck(c *gin.Context) {
	var req truckdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.truckSvc.UpdateProvider(c.Request.Context(), c.Param("id"), truckdomain.UpdateRequest{
		ProviderID: strings.TrimSpace(req.ProviderID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": resp.ID, "provider": resp.ProviderID.String()})
}

// GetTruck reports the truck's tare and sessions from the weighing service.
func (s *Server) GetTruck(c *gin.Context) {
	from, to, err := parseWindow(c.Query("from"), c.Query("to"), s.clock.Now(), s.loc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.truckSvc.Info(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
