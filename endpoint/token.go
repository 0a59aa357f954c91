package endpoint

import (
	"errors"
	"time"

	"github.com/ariebrainware/dentplanner-api/middleware"
	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
)

type TokenInfo struct {
	UserID    uint      `json:"user_id" example:"1"`
	FirstName string    `json:"first_name" example:"Laura"`
	LastName  string    `json:"last_name" example:"Gomez"`
	Role      string    `json:"role" example:"dentist"`
	RoleID    uint      `json:"role_id" example:"2"`
	TokenID   string    `json:"token_id"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientIP  string    `json:"client_ip"`
}

// ValidateToken godoc
// @Summary      Validate bearer token
// @Description  Returns the identity carried by a valid, unrevoked token
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=TokenInfo} "Valid token"
// @Failure      401 {object} util.APIResponse "Invalid or expired token"
// @Router       /auth/validate [get]
func ValidateToken(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Unauthorized", Err: errors.New("no claims on request")})
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	info := TokenInfo{
		UserID:    claims.UserID,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Role:      claims.Role,
		RoleID:    claims.RoleID,
		TokenID:   claims.ID,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}

	var session model.Session
	err := db.Where("token_id = ?", claims.ID).First(&session).Error
	switch {
	case err == nil:
		info.ClientIP = session.ClientIP
	case !util.IsNotFound(err):
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load session", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Valid token", Data: info})
}
