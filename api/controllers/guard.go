package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/fbxcast/tool"
)

// Guard keys. Handshake steps share one key since they race on the same credentials.
const (
	ActionDiscover  = "discover"
	ActionHandshake = "handshake"
	ActionPlayback  = "playback"
)

// InFlight lists the guarded actions currently running.
func InFlight() []string {
	running := make([]string, 0)
	for _, key := range []string{ActionDiscover, ActionHandshake, ActionPlayback} {
		if tool.ActionInFlight(key) {
			running = append(running, key)
		}
	}
	return running
}

// SingleFlight rejects a request while another one holding the same key is running.
func SingleFlight(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := tool.BeginAction(key); err != nil {
			c.AbortWithStatusJSON(http.StatusConflict, tool.FastReturnError(err.Error()))
			return
		}
		defer tool.EndAction(key)
		c.Next()
	}
}
