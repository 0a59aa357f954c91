package endpoint

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ariebrainware/dentplanner-api/middleware"
	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const duplicateEmailOrDNI = "Duplicate entry for email or dni"

type UserRequest struct {
	FirstName   string `json:"first_name" form:"first_name" binding:"required,max=55" example:"Laura"`
	LastName    string `json:"last_name" form:"last_name" binding:"required,max=55" example:"Gomez"`
	DNI         string `json:"dni" form:"dni" binding:"required,dni" example:"30111222"`
	Email       string `json:"email" form:"email" binding:"required,email" example:"laura@clinic.com"`
	PhoneNumber string `json:"phone_number" form:"phone_number" binding:"omitempty,max=30" example:"+5491155550000"`
	Password    string `json:"password" form:"password" binding:"omitempty,min=8" example:"password123"`
	RoleID      uint   `json:"role_id" form:"role_id" binding:"required" example:"2"`
	ClinicID    *uint  `json:"clinic_id" form:"clinic_id" example:"1"`
	Active      *bool  `json:"active" form:"active" example:"true"`
}

type UserPatchRequest struct {
	FirstName   *string `json:"first_name" form:"first_name" binding:"omitempty,min=1,max=55"`
	LastName    *string `json:"last_name" form:"last_name" binding:"omitempty,min=1,max=55"`
	DNI         *string `json:"dni" form:"dni" binding:"omitempty,dni"`
	Email       *string `json:"email" form:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" form:"phone_number" binding:"omitempty,max=30"`
	Password    *string `json:"password" form:"password" binding:"omitempty,min=8"`
	RoleID      *uint   `json:"role_id" form:"role_id"`
	ClinicID    *uint   `json:"clinic_id" form:"clinic_id"`
	Active      *bool   `json:"active" form:"active"`
}

// ListUsers godoc
// @Summary      List users
// @Description  List staff members, optionally filtered by role
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        role_id query int false "Role ID"
// @Success      200 {object} util.APIResponse{data=[]model.User} "Users retrieved"
// @Failure      400 {object} util.APIResponse "Invalid role_id"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /users [get]
func ListUsers(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	query := db.Order("id")
	if raw := c.Query("role_id"); raw != "" {
		roleID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "Invalid role_id", Err: err})
			return
		}
		query = query.Where("role_id = ?", roleID)
	}

	var users []model.User
	if err := query.Find(&users).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve users", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Users retrieved", Data: users})
}

// GetUser godoc
// @Summary      Get user
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      200 {object} util.APIResponse{data=model.User} "User retrieved"
// @Failure      404 {object} util.APIResponse "User not found"
// @Router       /users/{id} [get]
func GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var user model.User
	if err := db.First(&user, id).Error; err != nil {
		respondDBError(c, err, "User not found", "Failed to retrieve user")
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "User retrieved", Data: user})
}

// CreateUser godoc
// @Summary      Create user
// @Description  Create a staff member. Accepts JSON or multipart with an optional jpeg/png "image" up to 10MB.
// @Tags         Users
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        request body UserRequest true "User data"
// @Param        image formData file false "Profile image"
// @Success      201 {object} util.APIResponse{data=model.User} "User created"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      409 {object} util.APIResponse "Duplicate entry for email or dni"
// @Router       /users [post]
func CreateUser(c *gin.Context) {
	var req UserRequest
	if !bindOrRespond(c, &req, "Invalid request payload") {
		return
	}
	if req.Password == "" {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request payload", Err: errors.New("password is required")})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	if !ensureUserRefs(c, db, &req.RoleID, req.ClinicID) {
		return
	}

	imagePath, ok := saveOptionalImage(c, "image")
	if !ok {
		return
	}

	hashed, salt, err := util.HashNewPassword(req.Password)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to hash password", Err: err})
		return
	}

	user := model.User{
		FirstName:    util.NormalizeName(req.FirstName),
		LastName:     util.NormalizeName(req.LastName),
		DNI:          req.DNI,
		Email:        strings.ToLower(req.Email),
		PhoneNumber:  req.PhoneNumber,
		Password:     hashed,
		PasswordSalt: salt,
		RoleID:       req.RoleID,
		ClinicID:     req.ClinicID,
		Active:       req.Active == nil || *req.Active,
		ImagePath:    imagePath,
	}

	if err := db.Create(&user).Error; err != nil {
		respondUserWriteError(c, err, "Failed to create user")
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "User created successfully", Data: user})
}

// UpdateUser godoc
// @Summary      Replace user
// @Description  Full update of a staff member. The password changes only when given.
// @Tags         Users
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Param        request body UserRequest true "User data"
// @Success      200 {object} util.APIResponse{data=model.User} "User updated"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      404 {object} util.APIResponse "User not found"
// @Failure      409 {object} util.APIResponse "Duplicate entry for email or dni"
// @Router       /users/{id} [put]
func UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UserRequest
	if !bindOrRespond(c, &req, "Invalid request payload") {
		return
	}

	patch := UserPatchRequest{
		FirstName:   &req.FirstName,
		LastName:    &req.LastName,
		DNI:         &req.DNI,
		Email:       &req.Email,
		PhoneNumber: &req.PhoneNumber,
		RoleID:      &req.RoleID,
		ClinicID:    req.ClinicID,
		Active:      req.Active,
	}
	if req.Password != "" {
		patch.Password = &req.Password
	}
	applyUserUpdate(c, id, patch)
}

// PatchUser godoc
// @Summary      Update user
// @Description  Partial update of a staff member. Only supplied fields change.
// @Tags         Users
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Param        request body UserPatchRequest true "Fields to change"
// @Success      200 {object} util.APIResponse{data=model.User} "User updated"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      404 {object} util.APIResponse "User not found"
// @Failure      409 {object} util.APIResponse "Duplicate entry for email or dni"
// @Router       /users/{id} [patch]
func PatchUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UserPatchRequest
	if !bindOrRespond(c, &req, "Invalid request payload") {
		return
	}
	applyUserUpdate(c, id, req)
}

func applyUserUpdate(c *gin.Context, id uint, req UserPatchRequest) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var user model.User
	if err := db.First(&user, id).Error; err != nil {
		respondDBError(c, err, "User not found", "Failed to retrieve user")
		return
	}
	if !ensureUserRefs(c, db, req.RoleID, req.ClinicID) {
		return
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = util.NormalizeName(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = util.NormalizeName(*req.LastName)
	}
	if req.DNI != nil {
		updates["dni"] = *req.DNI
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(*req.Email)
	}
	if req.PhoneNumber != nil {
		updates["phone_number"] = *req.PhoneNumber
	}
	if req.RoleID != nil {
		updates["role_id"] = *req.RoleID
	}
	if req.ClinicID != nil {
		updates["clinic_id"] = *req.ClinicID
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if req.Password != nil {
		hashed, salt, err := util.HashNewPassword(*req.Password)
		if err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to hash password", Err: err})
			return
		}
		updates["password"] = hashed
		updates["password_salt"] = salt
	}

	imagePath, ok := saveOptionalImage(c, "image")
	if !ok {
		return
	}
	if imagePath != "" {
		updates["image_path"] = imagePath
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			respondUserWriteError(c, err, "Failed to update user")
			return
		}
	}
	if req.Password != nil || (req.Active != nil && !*req.Active) {
		revokeAllTokens(c, user.ID)
	}

	if err := db.First(&user, id).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to reload user", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "User updated successfully", Data: user})
}

// DeleteUser godoc
// @Summary      Delete user
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      200 {object} util.APIResponse "User deleted"
// @Failure      404 {object} util.APIResponse "User not found"
// @Failure      409 {object} util.APIResponse "User has appointments as dentist"
// @Router       /users/{id} [delete]
func DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	guards := []refGuard{{model: &model.Appointment{}, column: "dentist_id", msg: "User has appointments as dentist"}}
	deleted := hardDeleteByID(c, db, &model.User{}, id, guards, func(tx *gorm.DB) error {
		return tx.Unscoped().Where("user_id = ?", id).Delete(&model.Session{}).Error
	}, "User not found", "User deleted successfully")
	if deleted {
		revokeAllTokens(c, id)
	}
}

// ensureUserRefs answers 400 when the role or clinic does not exist.
func ensureUserRefs(c *gin.Context, db *gorm.DB, roleID, clinicID *uint) bool {
	check := func(m interface{}, id uint, name string) bool {
		var count int64
		if err := db.Model(m).Where("id = ?", id).Count(&count).Error; err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
			return false
		}
		if count == 0 {
			util.CallUserError(c, util.APIErrorParams{Msg: fmt.Sprintf("Invalid %s", name), Err: fmt.Errorf("%s %d does not exist", name, id)})
			return false
		}
		return true
	}
	if roleID != nil && !check(&model.Role{}, *roleID, "role_id") {
		return false
	}
	if clinicID != nil && !check(&model.ClinicInfo{}, *clinicID, "clinic_id") {
		return false
	}
	return true
}

func respondUserWriteError(c *gin.Context, err error, msg string) {
	if util.IsDuplicateKey(err) {
		util.CallConflict(c, util.APIErrorParams{Msg: duplicateEmailOrDNI, Err: err})
		return
	}
	util.CallServerError(c, util.APIErrorParams{Msg: msg, Err: err})
}

// saveOptionalImage stores the multipart file in field, if any, under the
// configured uploads directory and returns its path.
func saveOptionalImage(c *gin.Context, field string) (string, bool) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return "", true
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", true
	}
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid image upload", Err: err})
		return "", false
	}
	path, err := util.SaveImage(fh, uploadDir(c))
	if err != nil {
		if errors.Is(err, util.ErrImageTooLarge) || errors.Is(err, util.ErrImageType) {
			util.CallUserError(c, util.APIErrorParams{Msg: "Invalid image", Err: err})
			return "", false
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to store image", Err: err})
		return "", false
	}
	return path, true
}

func uploadDir(c *gin.Context) string {
	if s := middleware.GetServices(c); s != nil && s.Config != nil && s.Config.UploadDir != "" {
		return s.Config.UploadDir
	}
	return "uploads"
}
