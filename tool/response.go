package tool

import "github.com/gin-gonic/gin"

// FastReturnError builds the error body of the control API.
func FastReturnError(msg string) gin.H {
	return gin.H{"error": msg}
}

// FastReturnBoxError also carries the receiver's error_code and msg verbatim.
func FastReturnBoxError(msg, code, boxMsg string) gin.H {
	body := gin.H{"error": msg}
	if code != "" {
		body["error_code"] = code
	}
	if boxMsg != "" {
		body["msg"] = boxMsg
	}
	return body
}
