package middleware

import (
	"fmt"
	"time"

	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
)

// EndpointCallLogger records each HTTP request as an ENDPOINT_CALL security
// event. Events reach the security_logs table once util.SetSecurityLoggerDB
// has been called at startup.
func EndpointCallLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		userID, _ := GetUserID(c)

		details := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"raw_path":    c.Request.URL.Path,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"query":       c.Request.URL.RawQuery,
		}
		if userID != 0 {
			details["user_id"] = userID
		}
		if role := GetRole(c); role != "" {
			details["role"] = role
		}

		uid := ""
		if userID != 0 {
			uid = fmt.Sprintf("%d", userID)
		}

		util.LogSecurityEvent(util.SecurityEvent{
			EventType: util.EventEndpointCall,
			UserID:    uid,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			RequestID: GetRequestID(c),
			Message:   fmt.Sprintf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, status),
			Details:   details,
		})
	}
}
