package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
)

const (
	UserIDKey = "user_id"
	RoleKey   = "role"
	RoleIDKey = "role_id"
	ClaimsKey = "claims"
)

var errSessionRevoked = errors.New("session revoked or expired")

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// ValidateLoginToken authenticates the bearer JWT. The token must not be
// revoked: Redis answers first, the sessions table when Redis is off or
// failing.
func ValidateLoginToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Unauthorized",
				Err: fmt.Errorf("missing bearer token"),
			})
			c.Abort()
			return
		}

		claims, err := util.ParseToken(raw)
		if err != nil {
			util.LogUnauthorizedAccess("", c.ClientIP(), c.Request.URL.Path, "invalid token")
			util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Invalid token", Err: err})
			c.Abort()
			return
		}

		if err := checkSession(c, claims); err != nil {
			if errors.Is(err, errSessionRevoked) {
				util.LogUnauthorizedAccess(fmt.Sprintf("%d", claims.UserID), c.ClientIP(), c.Request.URL.Path, err.Error())
				util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Session expired, please log in again", Err: err})
			} else {
				util.CallServerError(c, util.APIErrorParams{Msg: "Failed to validate session", Err: err})
			}
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Set(RoleIDKey, claims.RoleID)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func checkSession(c *gin.Context, claims *util.Claims) error {
	if rdb := redisFrom(c); rdb != nil {
		revoked, err := util.IsTokenRevoked(c.Request.Context(), rdb, claims.ID)
		if err == nil {
			if revoked {
				return errSessionRevoked
			}
			return nil
		}
		util.Logger().Warn().Err(err).Msg("redis revocation check failed, using sessions table")
	}

	db := GetDB(c)
	if db == nil {
		return errors.New("database not available")
	}
	var count int64
	err := db.Model(&model.Session{}).
		Where("token_id = ? AND revoked_at IS NULL AND expires_at > ?", claims.ID, time.Now()).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return errSessionRevoked
	}
	return nil
}

// RequireRole lets the request through only for the given role names.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if !util.Contains(role, roles) {
			userID, _ := GetUserID(c)
			util.LogSecurityEvent(util.SecurityEvent{
				EventType: util.EventForbiddenAccess,
				UserID:    fmt.Sprintf("%d", userID),
				IP:        c.ClientIP(),
				RequestID: GetRequestID(c),
				Message:   fmt.Sprintf("role %q denied on %s", role, c.FullPath()),
			})
			util.CallForbidden(c, util.APIErrorParams{
				Msg: "You do not have permission to perform this action",
				Err: fmt.Errorf("role %q not allowed", role),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func GetRoleID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(RoleIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func GetRole(c *gin.Context) string {
	return c.GetString(RoleKey)
}

// GetClaims returns the parsed token of an authenticated request.
func GetClaims(c *gin.Context) *util.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*util.Claims)
	return claims
}
