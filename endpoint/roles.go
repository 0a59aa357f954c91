package endpoint

import (
	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
)

type RoleRequest struct {
	Name string `json:"name" binding:"required,min=1,max=55" example:"dentist"`
}

// ListRoles godoc
// @Summary      List roles
// @Tags         Roles
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=[]model.Role} "Roles retrieved"
// @Router       /roles [get]
func ListRoles(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var roles []model.Role
	if err := db.Order("id").Find(&roles).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve roles", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Roles retrieved", Data: roles})
}

// GetRole godoc
// @Summary      Get role
// @Tags         Roles
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Role ID"
// @Success      200 {object} util.APIResponse{data=model.Role} "Role retrieved"
// @Failure      404 {object} util.APIResponse "Role not found"
// @Router       /roles/{id} [get]
func GetRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var role model.Role
	if err := db.First(&role, id).Error; err != nil {
		respondDBError(c, err, "Role not found", "Failed to retrieve role")
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Role retrieved", Data: role})
}

// CreateRole godoc
// @Summary      Create role
// @Tags         Roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body RoleRequest true "Role"
// @Success      201 {object} util.APIResponse{data=model.Role} "Role created"
// @Failure      409 {object} util.APIResponse "Duplicate entry"
// @Router       /roles [post]
func CreateRole(c *gin.Context) {
	var req RoleRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	role := model.Role{Name: req.Name}
	if err := db.Create(&role).Error; err != nil {
		respondDBError(c, err, "Role not found", "Failed to create role")
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Role created successfully", Data: role})
}

// UpdateRole godoc
// @Summary      Update role
// @Tags         Roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Role ID"
// @Param        request body RoleRequest true "Role"
// @Success      200 {object} util.APIResponse{data=model.Role} "Role updated"
// @Failure      404 {object} util.APIResponse "Role not found"
// @Failure      409 {object} util.APIResponse "Duplicate entry"
// @Router       /roles/{id} [put]
func UpdateRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req RoleRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var role model.Role
	if err := db.First(&role, id).Error; err != nil {
		respondDBError(c, err, "Role not found", "Failed to retrieve role")
		return
	}
	if err := db.Model(&role).Update("name", req.Name).Error; err != nil {
		respondDBError(c, err, "Role not found", "Failed to update role")
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Role updated successfully", Data: role})
}

// DeleteRole godoc
// @Summary      Delete role
// @Tags         Roles
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Role ID"
// @Success      200 {object} util.APIResponse "Role deleted"
// @Failure      404 {object} util.APIResponse "Role not found"
// @Failure      409 {object} util.APIResponse "Role is assigned to users"
// @Router       /roles/{id} [delete]
func DeleteRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	guards := []refGuard{{model: &model.User{}, column: "role_id", msg: "Role is assigned to users"}}
	hardDeleteByID(c, db, &model.Role{}, id, guards, nil, "Role not found", "Role deleted successfully")
}
