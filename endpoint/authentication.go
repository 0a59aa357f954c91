package endpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/dentplanner-api/middleware"
	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/notify"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	maxFailedAttempts = 5
	lockDuration      = 15 * time.Minute
	defaultTokenTTL   = 24 * time.Hour
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"laura@clinic.com"`
	Password string `json:"password" binding:"required,min=8" example:"password123"`
}

type LoginResponse struct {
	Token  string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	UserID uint   `json:"user_id" example:"1"`
	Role   string `json:"role" example:"dentist"`
}

// Login godoc
// @Summary      User login
// @Description  Authenticate a staff member with email and password
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} util.APIResponse{data=LoginResponse} "Login successful"
// @Failure      400 {object} util.APIResponse "Invalid email or password"
// @Failure      429 {object} util.APIResponse "Too many requests"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /auth/login [post]
func Login(c *gin.Context) {
	var req LoginRequest

	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	ctx := loginContext{C: c, DB: db, Email: req.Email, CI: clientOf(c), Services: middleware.GetServices(c)}

	user, ok := loadUserForLogin(ctx)
	if !ok {
		return
	}

	if !ensureAccountNotLocked(ctx, &user) {
		return
	}

	if !verifyPasswordOrRespond(ctx, &user, req.Password) {
		return
	}

	finalizeLogin(ctx, &user, req.Password)
}

type loginContext struct {
	C        *gin.Context
	DB       *gorm.DB
	Email    string
	CI       clientInfo
	Services *middleware.Services
}

func (l loginContext) tokenTTL() time.Duration {
	if l.Services != nil && l.Services.Config != nil && l.Services.Config.JWTExpiry > 0 {
		return l.Services.Config.JWTExpiry
	}
	return defaultTokenTTL
}

func loadUserForLogin(ctx loginContext) (model.User, bool) {
	user, err := loadUserByEmail(ctx.DB, ctx.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "user not found")
		util.CallUserError(ctx.C, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("user not found")})
		return model.User{}, false
	}
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "database error")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Database error", Err: err})
		return model.User{}, false
	}
	if !user.Active {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "user inactive")
		util.CallUserError(ctx.C, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("user inactive")})
		return model.User{}, false
	}
	return user, true
}

func ensureAccountNotLocked(ctx loginContext, user *model.User) bool {
	if locked, expiry := isAccountLocked(user); locked {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "account locked")
		util.CallUserError(ctx.C, util.APIErrorParams{Msg: fmt.Sprintf("Account is locked until %s due to multiple failed login attempts", expiry.Format(time.RFC3339)), Err: fmt.Errorf("account locked")})
		return false
	}
	return true
}

func verifyPasswordOrRespond(ctx loginContext, user *model.User, plain string) bool {
	match, err := util.VerifyPassword(plain, user.Password, user.PasswordSalt)
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "password verification error")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Password verification failed", Err: err})
		return false
	}
	if !match {
		incrementFailedAttempts(ctx.DB, user, ctx.CI)
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "invalid password")
		util.CallUserError(ctx.C, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("invalid password")})
		return false
	}
	return true
}

func finalizeLogin(ctx loginContext, user *model.User, plain string) bool {
	if err := resetFailedAttempts(ctx.DB, user); err != nil {
		util.LogSecurityEvent(util.SecurityEvent{EventType: util.EventSuspiciousActivity, UserID: fmt.Sprintf("%d", user.ID), Email: user.Email, IP: ctx.CI.IP, Message: fmt.Sprintf("Failed to reset failed attempts: %v", err)})
	}

	// best-effort
	_ = upgradeLegacyPasswordIfNeeded(ctx.DB, user, plain, ctx.CI)

	role, err := fetchRole(ctx.DB, user.RoleID)
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "role not found")
		respondDBError(ctx.C, err, "Role not found", "Database error")
		return false
	}

	ttl := ctx.tokenTTL()
	tokenString, claims, err := util.GenerateToken(util.TokenSubject{
		UserID:    user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      role.Name,
		RoleID:    role.ID,
	}, ttl)
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "token generation failed")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Could not generate token", Err: err})
		return false
	}

	session := model.Session{
		UserID:    user.ID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		ClientIP:  ctx.CI.IP,
		Browser:   ctx.CI.Agent,
	}
	if err := ctx.DB.Create(&session).Error; err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "session creation failed")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Failed to record session", Err: err})
		return false
	}

	if ctx.Services != nil {
		if err := util.TrackUserToken(ctx.C.Request.Context(), ctx.Services.Redis, user.ID, claims.ID, ttl); err != nil {
			util.Logger().Warn().Err(err).Uint("user_id", user.ID).Msg("failed to track token in redis")
		}
		if ctx.Services.Redis != nil {
			_ = middleware.ResetRateLimit(ctx.C.Request.Context(), ctx.Services.Redis, ctx.CI.IP, ctx.C.Request.URL.Path)
		}
	}

	util.LogLoginSuccess(user.ID, user.Email, ctx.CI.IP, ctx.CI.Agent)
	util.CallSuccessOK(ctx.C, util.APISuccessParams{Msg: "Login successful", Data: LoginResponse{Token: tokenString, UserID: user.ID, Role: role.Name}})
	return true
}

func loadUserByEmail(db *gorm.DB, email string) (model.User, error) {
	var user model.User
	err := db.Where("email = ?", email).First(&user).Error
	return user, err
}

func isAccountLocked(user *model.User) (bool, time.Time) {
	if user.LockedUntil != nil && *user.LockedUntil > time.Now().Unix() {
		return true, time.Unix(*user.LockedUntil, 0)
	}
	return false, time.Time{}
}

func incrementFailedAttempts(db *gorm.DB, user *model.User, ci clientInfo) {
	user.FailedAttempts++
	if user.FailedAttempts >= maxFailedAttempts {
		lockUntil := time.Now().Add(lockDuration).Unix()
		user.LockedUntil = &lockUntil
		util.LogAccountLocked(user.ID, user.Email, ci.IP, "too many failed login attempts")
	}
	if err := db.Model(user).Select("failed_attempts", "locked_until").Updates(user).Error; err != nil {
		util.LogLoginFailure(user.Email, ci.IP, ci.Agent, "failed to update failed attempts")
	}
}

func resetFailedAttempts(db *gorm.DB, user *model.User) error {
	if user.FailedAttempts > 0 || user.LockedUntil != nil {
		user.FailedAttempts = 0
		user.LockedUntil = nil
		return db.Model(user).Select("failed_attempts", "locked_until").Updates(user).Error
	}
	return nil
}

func upgradeLegacyPasswordIfNeeded(db *gorm.DB, user *model.User, plain string, ci clientInfo) error {
	if !util.IsLegacyHash(user.Password) {
		return nil
	}
	hashed, salt, err := util.HashNewPassword(plain)
	if err != nil {
		return err
	}
	if err := db.Model(user).Updates(map[string]interface{}{"password": hashed, "password_salt": salt}).Error; err != nil {
		util.LogSecurityEvent(util.SecurityEvent{EventType: util.EventSuspiciousActivity, UserID: fmt.Sprintf("%d", user.ID), Email: user.Email, IP: ci.IP, Message: fmt.Sprintf("Failed to upgrade password hash: %v", err)})
		return err
	}
	user.Password, user.PasswordSalt = hashed, salt
	util.LogSecurityEvent(util.SecurityEvent{EventType: util.EventPasswordChanged, UserID: fmt.Sprintf("%d", user.ID), Email: user.Email, IP: ci.IP, Message: "Upgraded password hash to Argon2"})
	return nil
}

func fetchRole(db *gorm.DB, roleID uint) (model.Role, error) {
	var role model.Role
	err := db.First(&role, roleID).Error
	return role, err
}

// Logout godoc
// @Summary      User logout
// @Description  Revoke the bearer token of the current session
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse "Logout successful"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /auth/logout [post]
func Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Unauthorized", Err: fmt.Errorf("missing token claims")})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	now := time.Now()
	if err := db.Model(&model.Session{}).
		Where("token_id = ? AND revoked_at IS NULL", claims.ID).
		Update("revoked_at", now).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to revoke session", Err: err})
		return
	}

	if s := middleware.GetServices(c); s != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if err := util.RevokeToken(c.Request.Context(), s.Redis, claims.UserID, claims.ID, ttl); err != nil {
			util.Logger().Warn().Err(err).Str("jti", claims.ID).Msg("failed to revoke token in redis")
		}
	}

	util.LogLogout(claims.UserID, c.ClientIP(), c.Request.UserAgent())
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Logout successful"})
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" binding:"required,min=8"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}

// ChangePassword godoc
// @Summary      Change password
// @Description  Change the password of a user. Users may change their own password, admins any password. Every session of the user is revoked.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Param        request body ChangePasswordRequest true "Passwords"
// @Success      200 {object} util.APIResponse "Password changed"
// @Failure      400 {object} util.APIResponse "Invalid request or wrong password"
// @Failure      403 {object} util.APIResponse "Forbidden"
// @Failure      404 {object} util.APIResponse "User not found"
// @Router       /auth/change-password/{id} [post]
func ChangePassword(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	callerID, _ := middleware.GetUserID(c)
	if callerID != id && middleware.GetRole(c) != model.RoleAdmin {
		util.LogUnauthorizedAccess(fmt.Sprintf("%d", callerID), c.ClientIP(), c.Request.URL.Path, "password change for another user")
		util.CallForbidden(c, util.APIErrorParams{Msg: "You can only change your own password", Err: fmt.Errorf("forbidden")})
		return
	}

	var req ChangePasswordRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var user model.User
	if err := db.First(&user, id).Error; err != nil {
		respondDBError(c, err, "User not found", "Database error")
		return
	}

	match, err := util.VerifyPassword(req.OldPassword, user.Password, user.PasswordSalt)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Password verification failed", Err: err})
		return
	}
	if !match {
		util.CallUserError(c, util.APIErrorParams{Msg: "Old password is incorrect", Err: fmt.Errorf("invalid password")})
		return
	}

	hashed, salt, err := util.HashNewPassword(req.NewPassword)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to hash password", Err: err})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(map[string]interface{}{"password": hashed, "password_salt": salt}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Session{}).
			Where("user_id = ? AND revoked_at IS NULL", user.ID).
			Update("revoked_at", time.Now()).Error
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to change password", Err: err})
		return
	}

	revokeAllTokens(c, user.ID)

	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventPasswordChanged,
		UserID:    fmt.Sprintf("%d", user.ID),
		Email:     user.Email,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   "Password changed",
	})
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Password changed successfully"})
}

func revokeAllTokens(c *gin.Context, userID uint) {
	s := middleware.GetServices(c)
	if s == nil {
		return
	}
	ttl := defaultTokenTTL
	if s.Config != nil && s.Config.JWTExpiry > 0 {
		ttl = s.Config.JWTExpiry
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := util.RevokeUserTokens(ctx, s.Redis, userID, ttl); err != nil {
		util.Logger().Warn().Err(err).Uint("user_id", userID).Msg("failed to revoke user tokens in redis")
	}
}

type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email" example:"laura@clinic.com"`
}

// ResetPassword godoc
// @Summary      Reset password
// @Description  Generate a new random password for the account and email it
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Account email"
// @Success      200 {object} util.APIResponse "Password reset"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      404 {object} util.APIResponse "User not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /auth/reset-password [post]
func ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	services, ok := getServicesOrRespond(c)
	if !ok {
		return
	}

	user, err := loadUserByEmail(db, req.Email)
	if err != nil {
		respondDBError(c, err, "User not found", "Database error")
		return
	}

	plain, err := util.GenerateRandomPassword()
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to generate password", Err: err})
		return
	}
	hashed, salt, err := util.HashNewPassword(plain)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to hash password", Err: err})
		return
	}

	msg, err := notify.PasswordResetEmail(user.Email, user.FullName(), plain)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to render email", Err: err})
		return
	}

	// the new password only sticks when the email went out
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"password":        hashed,
			"password_salt":   salt,
			"failed_attempts": 0,
			"locked_until":    nil,
		}).Error; err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		return services.Mailer.Send(ctx, msg)
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to reset password", Err: err})
		return
	}

	revokeAllTokens(c, user.ID)

	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventPasswordReset,
		UserID:    fmt.Sprintf("%d", user.ID),
		Email:     user.Email,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   "Password reset by email",
	})
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "A new password was sent to your email"})
}
