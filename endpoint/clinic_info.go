package endpoint

import (
	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
)

type ClinicInfoRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=55" example:"DentPlanner"`
	PhoneNumber  string `json:"phone_number" binding:"max=30" example:"+5491155550000"`
	Address      string `json:"address" binding:"required,min=1,max=55" example:"Av. Siempreviva 742"`
	Email        string `json:"email" binding:"required,email" example:"info@clinic.com"`
	OpeningHours string `json:"opening_hours" binding:"required,clock" example:"08:00"`
	ClosingHours string `json:"closing_hours" binding:"required,clock" example:"18:00"`
}

type ClinicInfoPatchRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=55"`
	PhoneNumber  *string `json:"phone_number" binding:"omitempty,max=30"`
	Address      *string `json:"address" binding:"omitempty,min=1,max=55"`
	Email        *string `json:"email" binding:"omitempty,email"`
	OpeningHours *string `json:"opening_hours" binding:"omitempty,clock"`
	ClosingHours *string `json:"closing_hours" binding:"omitempty,clock"`
}

// ListClinicInfo godoc
// @Summary      List clinic records
// @Tags         ClinicInfo
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=[]model.ClinicInfo} "Clinic info retrieved"
// @Router       /clinic-info [get]
func ListClinicInfo(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var out []model.ClinicInfo
	if err := db.Order("id").Find(&out).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve clinic info", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Clinic info retrieved", Data: out})
}

// GetClinicInfo godoc
// @Summary      Get clinic record
// @Tags         ClinicInfo
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Clinic ID"
// @Success      200 {object} util.APIResponse{data=model.ClinicInfo} "Clinic info retrieved"
// @Failure      404 {object} util.APIResponse "Clinic info not found"
// @Router       /clinic-info/{id} [get]
func GetClinicInfo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var info model.ClinicInfo
	if err := db.First(&info, id).Error; err != nil {
		respondDBError(c, err, "Clinic info not found", "Failed to retrieve clinic info")
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Clinic info retrieved", Data: info})
}

// CreateClinicInfo godoc
// @Summary      Create clinic record
// @Tags         ClinicInfo
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ClinicInfoRequest true "Clinic info"
// @Success      201 {object} util.APIResponse{data=model.ClinicInfo} "Clinic info created"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Router       /clinic-info [post]
func CreateClinicInfo(c *gin.Context) {
	var req ClinicInfoRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	info := model.ClinicInfo{
		Name:         req.Name,
		PhoneNumber:  req.PhoneNumber,
		Address:      req.Address,
		Email:        req.Email,
		OpeningHours: req.OpeningHours,
		ClosingHours: req.ClosingHours,
	}
	if err := db.Create(&info).Error; err != nil {
		respondDBError(c, err, "Clinic info not found", "Failed to create clinic info")
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Clinic info created successfully", Data: info})
}

// UpdateClinicInfo godoc
// @Summary      Replace clinic record
// @Tags         ClinicInfo
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Clinic ID"
// @Param        request body ClinicInfoRequest true "Clinic info"
// @Success      200 {object} util.APIResponse{data=model.ClinicInfo} "Clinic info updated"
// @Failure      404 {object} util.APIResponse "Clinic info not found"
// @Router       /clinic-info/{id} [put]
func UpdateClinicInfo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ClinicInfoRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	applyClinicInfoUpdate(c, id, ClinicInfoPatchRequest{
		Name:         &req.Name,
		PhoneNumber:  &req.PhoneNumber,
		Address:      &req.Address,
		Email:        &req.Email,
		OpeningHours: &req.OpeningHours,
		ClosingHours: &req.ClosingHours,
	})
}

// PatchClinicInfo godoc
// @Summary      Update clinic record
// @Tags         ClinicInfo
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Clinic ID"
// @Param        request body ClinicInfoPatchRequest true "Fields to change"
// @Success      200 {object} util.APIResponse{data=model.ClinicInfo} "Clinic info updated"
// @Failure      404 {object} util.APIResponse "Clinic info not found"
// @Router       /clinic-info/{id} [patch]
func PatchClinicInfo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ClinicInfoPatchRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	applyClinicInfoUpdate(c, id, req)
}

func applyClinicInfoUpdate(c *gin.Context, id uint, req ClinicInfoPatchRequest) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var info model.ClinicInfo
	if err := db.First(&info, id).Error; err != nil {
		respondDBError(c, err, "Clinic info not found", "Failed to retrieve clinic info")
		return
	}

	updates := map[string]interface{}{}
	for col, v := range map[string]*string{
		"name":          req.Name,
		"phone_number":  req.PhoneNumber,
		"address":       req.Address,
		"email":         req.Email,
		"opening_hours": req.OpeningHours,
		"closing_hours": req.ClosingHours,
	} {
		if v != nil {
			updates[col] = *v
		}
	}
	if len(updates) > 0 {
		if err := db.Model(&info).Updates(updates).Error; err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update clinic info", Err: err})
			return
		}
	}
	if err := db.First(&info, id).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to reload clinic info", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Clinic info updated successfully", Data: info})
}

// DeleteClinicInfo godoc
// @Summary      Delete clinic record
// @Tags         ClinicInfo
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Clinic ID"
// @Success      200 {object} util.APIResponse "Clinic info deleted"
// @Failure      404 {object} util.APIResponse "Clinic info not found"
// @Router       /clinic-info/{id} [delete]
func DeleteClinicInfo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	deleteByID(c, db, &model.ClinicInfo{}, id, "Clinic info not found", "Clinic info deleted successfully")
}
