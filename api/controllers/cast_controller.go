package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/fbxcast/api/models"
	"github.com/moyoez/fbxcast/auth"
	"github.com/moyoez/fbxcast/cast"
	"github.com/moyoez/fbxcast/notify"
	"github.com/moyoez/fbxcast/tool"
)

type CastController struct {
	auth      *auth.Authenticator
	cast      *cast.Controller
	notifyURL string
}

func NewCastController(a *auth.Authenticator, c *cast.Controller, notifyURL string) *CastController {
	return &CastController{auth: a, cast: c, notifyURL: notifyURL}
}

func (ctrl *CastController) HandleReceivers(c *gin.Context) {
	receivers, err := ctrl.cast.ListReceivers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ReceiversResponse{Receivers: receivers})
}

func (ctrl *CastController) HandleTarget(c *gin.Context) {
	availability, err := ctrl.cast.FindTargetReceiver(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.TargetResponse{
		Name:         ctrl.cast.Target(),
		Availability: availability.String(),
		Phase:        ctrl.auth.Phase(),
	})
}

func (ctrl *CastController) HandlePlay(c *gin.Context) {
	var req models.PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	play := ctrl.cast.Play
	action := "play"
	if req.Replace {
		play = ctrl.cast.Replace
		action = "replace"
	}
	ok, err := play(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	ctrl.notify(action, req.URL, ok)
	c.JSON(http.StatusOK, models.CastResponse{Acknowledged: ok, Phase: ctrl.auth.Phase()})
}

func (ctrl *CastController) HandleStop(c *gin.Context) {
	ok, err := ctrl.cast.Stop(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ctrl.notify("stop", "", ok)
	c.JSON(http.StatusOK, models.CastResponse{Acknowledged: ok, Phase: ctrl.auth.Phase()})
}

func (ctrl *CastController) notify(action, media string, ok bool) {
	if ctrl.notifyURL == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), tool.DefaultTimeouts().Total())
		defer cancel()
		if err := notify.SendCastNotification(ctx, ctrl.notifyURL, action, ctrl.cast.Target(), media, ok); err != nil {
			tool.DefaultLogger.Warnf("Cast notification failed: %v", err)
		}
	}()
}
