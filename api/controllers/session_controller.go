package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/fbxcast/api/models"
	"github.com/moyoez/fbxcast/auth"
)

type SessionController struct {
	auth *auth.Authenticator
}

func NewSessionController(a *auth.Authenticator) *SessionController {
	return &SessionController{auth: a}
}

func (ctrl *SessionController) HandleSession(c *gin.Context) {
	var req models.SessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}
	if err := ctrl.auth.EstablishSession(c.Request.Context(), req.Challenge); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"phase": ctrl.auth.Phase()})
}

func (ctrl *SessionController) HandleLogout(c *gin.Context) {
	if err := ctrl.auth.Logout(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"phase": ctrl.auth.Phase()})
}
