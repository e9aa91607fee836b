package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const clientIDKey = "clientId"

// maxClientIDLen bounds header-supplied identities written to logs.
const maxClientIDLen = 128

// Identity records who is calling for logs and error bodies. Browsers send
// X-Client-Id (a random id kept in local storage); anything else is
// identified by client IP. Rate limiting does not trust the header. The Authorization
// header is left alone: the GitHub proxy forwards it upstream.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		id := strings.TrimSpace(c.GetHeader("X-Client-Id"))
		if len(id) > maxClientIDLen {
			id = id[:maxClientIDLen]
		}
		if id != "" {
			c.Set(clientIDKey, "client:"+id)
		} else {
			c.Set(clientIDKey, "ip:"+c.ClientIP())
		}
		c.Next()
	}
}

// ClientIDFromContext fetches the identity set by Identity.
func ClientIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(clientIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
