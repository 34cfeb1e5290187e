package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// apikeyAuthentication rejects requests whose Api-Token header does not
// match key. An empty key rejects everything.
func (s *Server) apikeyAuthentication(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiToken := c.GetHeader("Api-Token")
		if apiToken == "" || apiToken != key {
			abortWithEncoding(c, http.StatusForbidden, errorInvalidAPIToken)
			return
		}
		c.Next()
	}
}
