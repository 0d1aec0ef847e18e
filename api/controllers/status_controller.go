package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/fbxcast/api/models"
	"github.com/moyoez/fbxcast/auth"
	"github.com/moyoez/fbxcast/share"
	"github.com/moyoez/fbxcast/tool"
)

type StatusController struct {
	auth   *auth.Authenticator
	target func() string
}

func NewStatusController(a *auth.Authenticator, target func() string) *StatusController {
	return &StatusController{auth: a, target: target}
}

func (ctrl *StatusController) HandleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{
		Host:      ctrl.auth.Host(),
		Target:    ctrl.target(),
		State:     ctrl.auth.State().Snapshot(),
		InFlight:  InFlight(),
		SeenBoxes: share.ListSeenBoxes(),
	})
}

func (ctrl *StatusController) HandleDiscover(c *gin.Context) {
	desc, err := ctrl.auth.Discover(c.Request.Context())
	if err != nil {
		tool.DefaultLogger.Warnf("Discovery failed: %v", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, desc)
}
