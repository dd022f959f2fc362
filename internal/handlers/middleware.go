package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snapit/avatar-orderflow/internal/apperr"
)

// CORS answers preflights and stamps the open-origin headers the web client
// expects on every response, error paths included.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// renderError writes the error body for a failed request. The status comes
// from the error's kind; internal detail stays in the logs.
func renderError(c *gin.Context, err error) {
	body := gin.H{"error": apperr.PublicMessage(err)}
	if ae, ok := apperr.As(err); ok && len(ae.Fields) > 0 {
		body["fields"] = ae.Fields
	}
	c.JSON(apperr.HTTPStatus(err), body)
}
