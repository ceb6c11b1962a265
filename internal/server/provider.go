package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	providerdomain "github.com/smallbiznis/weighbill/internal/provider/domain"
)

type providerRequest struct {
	Name string `json:"name"`
}

func (s *Server) CreateProvider(c *gin.Context) {
	var req providerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.providerSvc.Create(c.Request.Context(), providerdomain.CreateRequest{
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": resp.ID.String()})
}

func (s *Server) RenameProvider(c *gin.Context) {
	var req providerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.providerSvc.Rename(c.Request.Context(), c.Param("id"), providerdomain.UpdateRequest{
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": resp.ID.String(), "name": resp.Name})
}

func (s *Server) GetProvider(c *gin.Context) {
	resp, err := s.providerSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": resp.ID.String(), "name": resp.Name})
}
