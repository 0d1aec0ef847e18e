package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/fbxcast/discovery"
	"github.com/moyoez/fbxcast/tool"
)

// ProbeFunc matches discovery.Probe.
type ProbeFunc func(host string, count int, timeout time.Duration, privileged bool) (discovery.ProbeResult, error)

type DiagController struct {
	host       func() string
	controlURL string
	probe      ProbeFunc
}

// NewDiagController builds the diagnostics routes. A nil probe uses discovery.Probe.
func NewDiagController(host func() string, controlURL string, probe ProbeFunc) *DiagController {
	if probe == nil {
		probe = discovery.Probe
	}
	return &DiagController{host: host, controlURL: controlURL, probe: probe}
}

func (ctrl *DiagController) HandlePing(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "3"))
	if err != nil || count <= 0 || count > 20 {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("count must be between 1 and 20"))
		return
	}
	result, err := ctrl.probe(ctrl.host(), count, 5*time.Second, false)
	if err != nil {
		tool.DefaultLogger.Warnf("Probe failed: %v", err)
		c.JSON(http.StatusBadGateway, tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, result)
}

func (ctrl *DiagController) HandleQRCode(c *gin.Context) {
	size, err := strconv.Atoi(c.DefaultQuery("size", "256"))
	if err != nil || size < 64 || size > 1024 {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("size must be between 64 and 1024"))
		return
	}
	png, err := tool.ControlURLQRCodePNG(ctrl.controlURL, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError(err.Error()))
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
