package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/moyoez/fbxcast/api/models"
	"github.com/moyoez/fbxcast/auth"
	"github.com/moyoez/fbxcast/tool"
	"github.com/moyoez/fbxcast/types"
)

type PairController struct {
	auth    *auth.Authenticator
	limiter *rate.Limiter
}

// NewPairController limits approval polling to limit requests per second with the given burst.
func NewPairController(a *auth.Authenticator, limit rate.Limit, burst int) *PairController {
	return &PairController{auth: a, limiter: rate.NewLimiter(limit, burst)}
}

func (ctrl *PairController) HandlePair(c *gin.Context) {
	cred, err := ctrl.auth.RequestAppToken(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PairResponse{
		TrackID: cred.TrackID,
		Phase:   ctrl.auth.Phase(),
		Message: "Confirm the connection on the Freebox front panel",
	})
}

func (ctrl *PairController) HandlePairStatus(c *gin.Context) {
	if !ctrl.limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, tool.FastReturnError("Too many requests"))
		return
	}
	status, err := ctrl.auth.PollApproval(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ApprovalResponse{Status: status.String(), Phase: ctrl.auth.Phase()})
}

func (ctrl *PairController) HandleTokenValidity(c *gin.Context) {
	validity, err := ctrl.auth.CheckAppToken(c.Request.Context())
	if err != nil && validity != types.TokenIndeterminate {
		respondError(c, err)
		return
	}
	if err != nil {
		tool.DefaultLogger.Warnf("App token check inconclusive: %v", err)
	}
	c.JSON(http.StatusOK, models.ValidityResponse{Validity: validity.String(), Phase: ctrl.auth.Phase()})
}
