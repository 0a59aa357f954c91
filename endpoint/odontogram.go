package endpoint

import (
	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
)

type OdontogramRequest struct {
	AppointmentID uint   `json:"appointment_id" binding:"required" example:"1"`
	PatientID     uint   `json:"patient_id" binding:"required" example:"1"`
	Date          string `json:"date" binding:"required" example:"2026-03-14"`
	Type          string `json:"type" binding:"required,oneof=adult child" example:"adult"`
	Notes         string `json:"notes" binding:"max=1000"`
}

type OdontogramDetail struct {
	model.Odontogram
	Teeth []model.Tooth `json:"teeth"`
}

// ListOdontograms godoc
// @Summary      List odontograms
// @Tags         Odontograms
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=[]model.Odontogram} "Odontograms retrieved"
// @Router       /odontograms [get]
func ListOdontograms(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var out []model.Odontogram
	if err := db.Order("date DESC, id DESC").Find(&out).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve odontograms", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Odontograms retrieved", Data: out})
}

// ListPatientOdontograms godoc
// @Summary      List odontograms of a patient
// @Tags         Odontograms
// @Produce      json
// @Security     BearerAuth
// @Param        patient_id path int true "Patient ID"
// @Success      200 {object} util.APIResponse{data=[]model.Odontogram} "Odontograms retrieved"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Router       /odontograms/patient/{patient_id} [get]
func ListPatientOdontograms(c *gin.Context) {
	patientID, ok := parseIDParam(c, "patient_id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	if !ensureExists(c, db, &model.Patient{}, patientID, "Patient not found") {
		return
	}
	var out []model.Odontogram
	if err := db.Where("patient_id = ?", patientID).Order("date DESC, id DESC").Find(&out).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve odontograms", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Odontograms retrieved", Data: out})
}

// GetOdontogram godoc
// @Summary      Get odontogram with its teeth
// @Tags         Odontograms
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Odontogram ID"
// @Success      200 {object} util.APIResponse{data=OdontogramDetail} "Odontogram retrieved"
// @Failure      404 {object} util.APIResponse "Odontogram not found"
// @Router       /odontograms/{id} [get]
func GetOdontogram(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var detail OdontogramDetail
	if err := db.First(&detail.Odontogram, id).Error; err != nil {
		respondDBError(c, err, "Odontogram not found", "Failed to retrieve odontogram")
		return
	}
	if err := db.Where("odontogram_id = ?", id).Order("tooth_number").Find(&detail.Teeth).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve teeth", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Odontogram retrieved", Data: detail})
}

// CreateOdontogram godoc
// @Summary      Create odontogram
// @Tags         Odontograms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body OdontogramRequest true "Odontogram"
// @Success      201 {object} util.APIResponse{data=model.Odontogram} "Odontogram created"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      404 {object} util.APIResponse "Patient or appointment not found"
// @Router       /odontograms [post]
func CreateOdontogram(c *gin.Context) {
	var req OdontogramRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	o, ok := odontogramFromRequest(c, req)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	if !ensureOdontogramRefs(c, req) {
		return
	}
	if err := db.Create(&o).Error; err != nil {
		respondDBError(c, err, "Odontogram not found", "Failed to create odontogram")
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Odontogram created successfully", Data: o})
}

// UpdateOdontogram godoc
// @Summary      Update odontogram
// @Tags         Odontograms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Odontogram ID"
// @Param        request body OdontogramRequest true "Odontogram"
// @Success      200 {object} util.APIResponse{data=model.Odontogram} "Odontogram updated"
// @Failure      404 {object} util.APIResponse "Odontogram not found"
// @Router       /odontograms/{id} [put]
func UpdateOdontogram(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req OdontogramRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	next, ok := odontogramFromRequest(c, req)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var o model.Odontogram
	if err := db.First(&o, id).Error; err != nil {
		respondDBError(c, err, "Odontogram not found", "Failed to retrieve odontogram")
		return
	}
	if !ensureOdontogramRefs(c, req) {
		return
	}
	if err := db.Model(&o).Select("appointment_id", "patient_id", "date", "type", "notes").Updates(&next).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update odontogram", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Odontogram updated successfully", Data: o})
}

// DeleteOdontogram godoc
// @Summary      Delete odontogram
// @Tags         Odontograms
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Odontogram ID"
// @Success      200 {object} util.APIResponse "Odontogram deleted"
// @Failure      404 {object} util.APIResponse "Odontogram not found"
// @Router       /odontograms/{id} [delete]
func DeleteOdontogram(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	deleteByID(c, db, &model.Odontogram{}, id, "Odontogram not found", "Odontogram deleted successfully")
}

func odontogramFromRequest(c *gin.Context, req OdontogramRequest) (model.Odontogram, bool) {
	date, err := util.ParseISODate(req.Date)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request payload", Err: err})
		return model.Odontogram{}, false
	}
	return model.Odontogram{
		AppointmentID: req.AppointmentID,
		PatientID:     req.PatientID,
		Date:          date,
		Type:          req.Type,
		Notes:         req.Notes,
	}, true
}

func ensureOdontogramRefs(c *gin.Context, req OdontogramRequest) bool {
	db, ok := getDBOrRespond(c)
	if !ok {
		return false
	}
	return ensureExists(c, db, &model.Patient{}, req.PatientID, "Patient not found") &&
		ensureExists(c, db, &model.Appointment{}, req.AppointmentID, "Appointment not found")
}
