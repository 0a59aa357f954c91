package endpoint

import (
	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
)

type ToothRequest struct {
	OdontogramID     uint   `json:"odontogram_id" binding:"required" example:"1"`
	ToothNumber      int    `json:"tooth_number" binding:"required" example:"18"`
	GeneralCondition string `json:"general_condition" binding:"max=55"`
	MesialSide       string `json:"mesial_side" binding:"max=55"`
	DistalSide       string `json:"distal_side" binding:"max=55"`
	BuccalSide       string `json:"buccal_side" binding:"max=55"`
	LingualSide      string `json:"lingual_side" binding:"max=55"`
	Center           string `json:"center" binding:"max=55"`
}

type ToothPatchRequest struct {
	OdontogramID     *uint   `json:"odontogram_id"`
	ToothNumber      *int    `json:"tooth_number"`
	GeneralCondition *string `json:"general_condition" binding:"omitempty,max=55"`
	MesialSide       *string `json:"mesial_side" binding:"omitempty,max=55"`
	DistalSide       *string `json:"distal_side" binding:"omitempty,max=55"`
	BuccalSide       *string `json:"buccal_side" binding:"omitempty,max=55"`
	LingualSide      *string `json:"lingual_side" binding:"omitempty,max=55"`
	Center           *string `json:"center" binding:"omitempty,max=55"`
}

// ListTeeth godoc
// @Summary      List teeth
// @Tags         Teeth
// @Produce      json
// @Security     BearerAuth
// @Param        odontogram_id query int false "Odontogram ID"
// @Success      200 {object} util.APIResponse{data=[]model.Tooth} "Teeth retrieved"
// @Router       /teeth [get]
func ListTeeth(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	q := db.Order("odontogram_id, tooth_number")
	if o := c.Query("odontogram_id"); o != "" {
		q = q.Where("odontogram_id = ?", o)
	}
	var teeth []model.Tooth
	if err := q.Find(&teeth).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve teeth", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Teeth retrieved", Data: teeth})
}

// GetTooth godoc
// @Summary      Get tooth
// @Tags         Teeth
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Tooth ID"
// @Success      200 {object} util.APIResponse{data=model.Tooth} "Tooth retrieved"
// @Failure      404 {object} util.APIResponse "Tooth not found"
// @Router       /teeth/{id} [get]
func GetTooth(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var tooth model.Tooth
	if err := db.First(&tooth, id).Error; err != nil {
		respondDBError(c, err, "Tooth not found", "Failed to retrieve tooth")
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Tooth retrieved", Data: tooth})
}

// CreateTooth godoc
// @Summary      Create tooth record
// @Tags         Teeth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ToothRequest true "Tooth"
// @Success      201 {object} util.APIResponse{data=model.Tooth} "Tooth created"
// @Failure      404 {object} util.APIResponse "Odontogram not found"
// @Router       /teeth [post]
func CreateTooth(c *gin.Context) {
	var req ToothRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	if !ensureExists(c, db, &model.Odontogram{}, req.OdontogramID, "Odontogram not found") {
		return
	}
	tooth := model.Tooth{
		OdontogramID:     req.OdontogramID,
		ToothNumber:      req.ToothNumber,
		GeneralCondition: req.GeneralCondition,
		MesialSide:       req.MesialSide,
		DistalSide:       req.DistalSide,
		BuccalSide:       req.BuccalSide,
		LingualSide:      req.LingualSide,
		Center:           req.Center,
	}
	if err := db.Create(&tooth).Error; err != nil {
		respondDBError(c, err, "Tooth not found", "Failed to create tooth")
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Tooth created successfully", Data: tooth})
}

// UpdateTooth godoc
// @Summary      Replace tooth record
// @Tags         Teeth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Tooth ID"
// @Param        request body ToothRequest true "Tooth"
// @Success      200 {object} util.APIResponse{data=model.Tooth} "Tooth updated"
// @Failure      404 {object} util.APIResponse "Tooth not found"
// @Router       /teeth/{id} [put]
func UpdateTooth(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ToothRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	applyToothUpdate(c, id, ToothPatchRequest{
		OdontogramID:     &req.OdontogramID,
		ToothNumber:      &req.ToothNumber,
		GeneralCondition: &req.GeneralCondition,
		MesialSide:       &req.MesialSide,
		DistalSide:       &req.DistalSide,
		BuccalSide:       &req.BuccalSide,
		LingualSide:      &req.LingualSide,
		Center:           &req.Center,
	})
}

// PatchTooth godoc
// @Summary      Update tooth record
// @Tags         Teeth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Tooth ID"
// @Param        request body ToothPatchRequest true "Fields to change"
// @Success      200 {object} util.APIResponse{data=model.Tooth} "Tooth updated"
// @Failure      404 {object} util.APIResponse "Tooth not found"
// @Router       /teeth/{id} [patch]
func PatchTooth(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ToothPatchRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	applyToothUpdate(c, id, req)
}

func applyToothUpdate(c *gin.Context, id uint, req ToothPatchRequest) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var tooth model.Tooth
	if err := db.First(&tooth, id).Error; err != nil {
		respondDBError(c, err, "Tooth not found", "Failed to retrieve tooth")
		return
	}
	if req.OdontogramID != nil && !ensureExists(c, db, &model.Odontogram{}, *req.OdontogramID, "Odontogram not found") {
		return
	}

	updates := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			updates[col] = *v
		}
	}
	if req.OdontogramID != nil {
		updates["odontogram_id"] = *req.OdontogramID
	}
	if req.ToothNumber != nil {
		updates["tooth_number"] = *req.ToothNumber
	}
	set("general_condition", req.GeneralCondition)
	set("mesial_side", req.MesialSide)
	set("distal_side", req.DistalSide)
	set("buccal_side", req.BuccalSide)
	set("lingual_side", req.LingualSide)
	set("center", req.Center)

	if len(updates) > 0 {
		if err := db.Model(&tooth).Updates(updates).Error; err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update tooth", Err: err})
			return
		}
	}
	if err := db.First(&tooth, id).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to reload tooth", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Tooth updated successfully", Data: tooth})
}

// DeleteTooth godoc
// @Summary      Delete tooth record
// @Tags         Teeth
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Tooth ID"
// @Success      200 {object} util.APIResponse "Tooth deleted"
// @Failure      404 {object} util.APIResponse "Tooth not found"
// @Router       /teeth/{id} [delete]
func DeleteTooth(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	deleteByID(c, db, &model.Tooth{}, id, "Tooth not found", "Tooth deleted successfully")
}
