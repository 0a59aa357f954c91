package endpoint

import (
	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
)

// MedicalHistoryRequest requires every condition flag to be sent explicitly.
type MedicalHistoryRequest struct {
	PatientID             uint   `json:"patient_id" binding:"required" example:"1"`
	CardiacIssues         *bool  `json:"cardiac_issues" binding:"required"`
	Diabetes              *bool  `json:"diabetes" binding:"required"`
	Hepatitis             *bool  `json:"hepatitis" binding:"required"`
	DrugConsumption       *bool  `json:"drug_consumption" binding:"required"`
	AbnormalBloodPressure *bool  `json:"abnormal_blood_pressure" binding:"required"`
	HIV                   *bool  `json:"hiv" binding:"required"`
	Asthma                *bool  `json:"asthma" binding:"required"`
	Anemia                *bool  `json:"anemia" binding:"required"`
	Epilepsy              *bool  `json:"epilepsy" binding:"required"`
	Pregnancy             *bool  `json:"pregnancy" binding:"required"`
	MedicationConsumption *bool  `json:"medication_consumption" binding:"required"`
	Allergies             *bool  `json:"allergies" binding:"required"`
	MedicationsNotes      string `json:"medications_notes"`
	AllergiesNotes        string `json:"allergies_notes"`
	Notes                 string `json:"notes"`
}

func (r MedicalHistoryRequest) toModel() model.MedicalHistory {
	return model.MedicalHistory{
		PatientID:             r.PatientID,
		CardiacIssues:         *r.CardiacIssues,
		Diabetes:              *r.Diabetes,
		Hepatitis:             *r.Hepatitis,
		DrugConsumption:       *r.DrugConsumption,
		AbnormalBloodPressure: *r.AbnormalBloodPressure,
		HIV:                   *r.HIV,
		Asthma:                *r.Asthma,
		Anemia:                *r.Anemia,
		Epilepsy:              *r.Epilepsy,
		Pregnancy:             *r.Pregnancy,
		MedicationConsumption: *r.MedicationConsumption,
		Allergies:             *r.Allergies,
		MedicationsNotes:      r.MedicationsNotes,
		AllergiesNotes:        r.AllergiesNotes,
		Notes:                 r.Notes,
	}
}

var medicalHistoryColumns = []string{
	"patient_id", "cardiac_issues", "diabetes", "hepatitis", "drug_consumption",
	"abnormal_blood_pressure", "hiv", "asthma", "anemia", "epilepsy", "pregnancy",
	"medication_consumption", "allergies", "medications_notes", "allergies_notes", "notes",
}

// ListMedicalHistories godoc
// @Summary      List medical histories
// @Tags         MedicalHistory
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=[]model.MedicalHistory} "Medical histories retrieved"
// @Router       /medical-history [get]
func ListMedicalHistories(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var out []model.MedicalHistory
	if err := db.Order("id").Find(&out).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve medical histories", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Medical histories retrieved", Data: out})
}

// ListPatientMedicalHistories godoc
// @Summary      List medical histories of a patient
// @Tags         MedicalHistory
// @Produce      json
// @Security     BearerAuth
// @Param        patient_id path int true "Patient ID"
// @Success      200 {object} util.APIResponse{data=[]model.MedicalHistory} "Medical histories retrieved"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Router       /medical-history/patient/{patient_id} [get]
func ListPatientMedicalHistories(c *gin.Context) {
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
	var out []model.MedicalHistory
	if err := db.Where("patient_id = ?", patientID).Order("created_at DESC").Find(&out).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve medical histories", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Medical histories retrieved", Data: out})
}

// GetMedicalHistory godoc
// @Summary      Get medical history
// @Tags         MedicalHistory
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Medical history ID"
// @Success      200 {object} util.APIResponse{data=model.MedicalHistory} "Medical history retrieved"
// @Failure      404 {object} util.APIResponse "Medical history not found"
// @Router       /medical-history/{id} [get]
func GetMedicalHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var mh model.MedicalHistory
	if err := db.First(&mh, id).Error; err != nil {
		respondDBError(c, err, "Medical history not found", "Failed to retrieve medical history")
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Medical history retrieved", Data: mh})
}

// CreateMedicalHistory godoc
// @Summary      Create medical history
// @Tags         MedicalHistory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body MedicalHistoryRequest true "Medical history"
// @Success      201 {object} util.APIResponse{data=model.MedicalHistory} "Medical history created"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Router       /medical-history [post]
func CreateMedicalHistory(c *gin.Context) {
	var req MedicalHistoryRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	if !ensureExists(c, db, &model.Patient{}, req.PatientID, "Patient not found") {
		return
	}
	mh := req.toModel()
	if err := db.Create(&mh).Error; err != nil {
		respondDBError(c, err, "Medical history not found", "Failed to create medical history")
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Medical history created successfully", Data: mh})
}

// UpdateMedicalHistory godoc
// @Summary      Update medical history
// @Tags         MedicalHistory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Medical history ID"
// @Param        request body MedicalHistoryRequest true "Medical history"
// @Success      200 {object} util.APIResponse{data=model.MedicalHistory} "Medical history updated"
// @Failure      404 {object} util.APIResponse "Medical history not found"
// @Router       /medical-history/{id} [put]
func UpdateMedicalHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req MedicalHistoryRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var mh model.MedicalHistory
	if err := db.First(&mh, id).Error; err != nil {
		respondDBError(c, err, "Medical history not found", "Failed to retrieve medical history")
		return
	}
	if !ensureExists(c, db, &model.Patient{}, req.PatientID, "Patient not found") {
		return
	}
	next := req.toModel()
	if err := db.Model(&mh).Select(medicalHistoryColumns).Updates(&next).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update medical history", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Medical history updated successfully", Data: mh})
}

// DeleteMedicalHistory godoc
// @Summary      Delete medical history
// @Tags         MedicalHistory
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Medical history ID"
// @Success      200 {object} util.APIResponse "Medical history deleted"
// @Failure      404 {object} util.APIResponse "Medical history not found"
// @Router       /medical-history/{id} [delete]
func DeleteMedicalHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	deleteByID(c, db, &model.MedicalHistory{}, id, "Medical history not found", "Medical history deleted successfully")
}
