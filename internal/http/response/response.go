package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	RespondErrorDetails(c, status, code, err, nil)
}

// RespondErrorDetails merges details into the envelope next to "error".
func RespondErrorDetails(c *gin.Context, status int, code string, err error, details map[string]any) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	body := gin.H{
		"success": false,
		"error":   APIError{Message: msg, Code: code},
	}
	for k, v := range details {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}

// RespondOK writes {"success":true} merged with payload.
func RespondOK(c *gin.Context, payload gin.H) {
	RespondStatus(c, http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload gin.H) {
	RespondStatus(c, http.StatusCreated, payload)
}

func RespondStatus(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}
