package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/fbxcast/tool"
	"github.com/moyoez/fbxcast/types"
)

// respondError maps the failure kind to a status and passes the box's error_code/msg through.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrPrecondition):
		status = http.StatusConflict
	case errors.Is(err, types.ErrProtocolRejected):
		status = http.StatusForbidden
	case errors.Is(err, types.ErrUnreachable), errors.Is(err, types.ErrParseAmbiguous):
		status = http.StatusBadGateway
	}

	if be, ok := types.AsBoxError(err); ok && be.Kind == types.ErrProtocolRejected {
		c.JSON(status, tool.FastReturnBoxError(be.Kind.Error(), be.Code, be.Msg))
		return
	}
	if errors.Is(err, types.ErrUnreachable) {
		tool.DefaultLogger.Debugf("Box unreachable: %v", err)
		c.JSON(status, tool.FastReturnError("Freebox unreachable"))
		return
	}
	c.JSON(status, tool.FastReturnError(err.Error()))
}
