package endpoint

import (
	"errors"
	"strings"

	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const patientStampLayout = "02/01/2006:15:04:05"

type PatientRequest struct {
	FirstName              string `json:"first_name" binding:"required,min=1,max=55" example:"Juan"`
	LastName               string `json:"last_name" binding:"required,min=1,max=55" example:"Perez"`
	BirthDate              string `json:"birth_date" binding:"required,isodate" example:"1990-05-17"`
	DNI                    string `json:"dni" binding:"required,dni" example:"A1234567"`
	PhoneNumber            string `json:"phone_number" binding:"required,max=30" example:"+5491155551111"`
	AlternativePhoneNumber string `json:"alternative_phone_number" binding:"omitempty,max=30"`
	Email                  string `json:"email" binding:"required,email" example:"juan@mail.com"`
}

type PatientPatchRequest struct {
	FirstName              *string `json:"first_name" binding:"omitempty,min=1,max=55"`
	LastName               *string `json:"last_name" binding:"omitempty,min=1,max=55"`
	BirthDate              *string `json:"birth_date" binding:"omitempty,isodate"`
	DNI                    *string `json:"dni" binding:"omitempty,dni"`
	PhoneNumber            *string `json:"phone_number" binding:"omitempty,max=30"`
	AlternativePhoneNumber *string `json:"alternative_phone_number" binding:"omitempty,max=30"`
	Email                  *string `json:"email" binding:"omitempty,email"`
}

// PatientResponse exposes birth_date as DD/MM/YYYY.
type PatientResponse struct {
	ID                     uint   `json:"id" example:"1"`
	FirstName              string `json:"first_name" example:"Juan"`
	LastName               string `json:"last_name" example:"Perez"`
	BirthDate              string `json:"birth_date" example:"17/05/1990"`
	DNI                    string `json:"dni" example:"A1234567"`
	PhoneNumber            string `json:"phone_number"`
	AlternativePhoneNumber string `json:"alternative_phone_number"`
	Email                  string `json:"email"`
	CreatedAt              string `json:"created_at" example:"13/03/2026:10:00:00"`
	UpdatedAt              string `json:"updated_at" example:"13/03/2026:10:00:00"`
}

func toPatientResponse(p model.Patient) PatientResponse {
	return PatientResponse{
		ID:                     p.ID,
		FirstName:              p.FirstName,
		LastName:               p.LastName,
		BirthDate:              util.ReformatDate(p.BirthDate, util.SlashDate),
		DNI:                    p.DNI,
		PhoneNumber:            p.PhoneNumber,
		AlternativePhoneNumber: p.AlternativePhoneNumber,
		Email:                  p.Email,
		CreatedAt:              p.CreatedAt.Format(patientStampLayout),
		UpdatedAt:              p.UpdatedAt.Format(patientStampLayout),
	}
}

func toPatientResponses(patients []model.Patient) []PatientResponse {
	out := make([]PatientResponse, 0, len(patients))
	for _, p := range patients {
		out = append(out, toPatientResponse(p))
	}
	return out
}

// ListPatients godoc
// @Summary      List patients
// @Description  List patients, optionally filtered by a keyword on name, dni or email
// @Tags         Patients
// @Produce      json
// @Security     BearerAuth
// @Param        keyword query string false "Search keyword"
// @Success      200 {object} util.APIResponse{data=[]PatientResponse} "Patients retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients [get]
func ListPatients(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	query := db.Order("last_name, first_name")
	if kw := strings.TrimSpace(c.Query("keyword")); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(dni) LIKE ? OR LOWER(email) LIKE ?", like, like, like, like)
	}

	var patients []model.Patient
	if err := query.Find(&patients).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve patients", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Patients retrieved", Data: toPatientResponses(patients)})
}

// GetPatient godoc
// @Summary      Get patient
// @Tags         Patients
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Patient ID"
// @Success      200 {object} util.APIResponse{data=PatientResponse} "Patient retrieved"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Router       /patients/{id} [get]
func GetPatient(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, id).Error; err != nil {
		respondDBError(c, err, "Patient not found", "Failed to retrieve patient")
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Patient retrieved", Data: toPatientResponse(patient)})
}

// CreatePatient godoc
// @Summary      Create patient
// @Tags         Patients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PatientRequest true "Patient data"
// @Success      201 {object} util.APIResponse{data=PatientResponse} "Patient created"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      409 {object} util.APIResponse "Duplicate entry for email or dni"
// @Router       /patients [post]
func CreatePatient(c *gin.Context) {
	var req PatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	patient := model.Patient{
		FirstName:              util.NormalizeName(req.FirstName),
		LastName:               util.NormalizeName(req.LastName),
		BirthDate:              req.BirthDate,
		DNI:                    req.DNI,
		PhoneNumber:            req.PhoneNumber,
		AlternativePhoneNumber: req.AlternativePhoneNumber,
		Email:                  strings.ToLower(req.Email),
	}

	// unique indexes decide, the pre-check only gives a clean message
	err := db.Transaction(func(tx *gorm.DB) error {
		if taken, err := patientIdentityTaken(tx, 0, patient.DNI, patient.Email); err != nil {
			return err
		} else if taken {
			return gorm.ErrDuplicatedKey
		}
		return tx.Create(&patient).Error
	})
	if err != nil {
		respondPatientWriteError(c, err, "Failed to create patient")
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Patient created successfully", Data: toPatientResponse(patient)})
}

// UpdatePatient godoc
// @Summary      Replace patient
// @Tags         Patients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Patient ID"
// @Param        request body PatientRequest true "Patient data"
// @Success      200 {object} util.APIResponse{data=PatientResponse} "Patient updated"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      409 {object} util.APIResponse "Duplicate entry for email or dni"
// @Router       /patients/{id} [put]
func UpdatePatient(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req PatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	applyPatientUpdate(c, id, PatientPatchRequest{
		FirstName:              &req.FirstName,
		LastName:               &req.LastName,
		BirthDate:              &req.BirthDate,
		DNI:                    &req.DNI,
		PhoneNumber:            &req.PhoneNumber,
		AlternativePhoneNumber: &req.AlternativePhoneNumber,
		Email:                  &req.Email,
	})
}

// PatchPatient godoc
// @Summary      Update patient
// @Description  Partial update, only supplied fields change
// @Tags         Patients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Patient ID"
// @Param        request body PatientPatchRequest true "Fields to change"
// @Success      200 {object} util.APIResponse{data=PatientResponse} "Patient updated"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      409 {object} util.APIResponse "Duplicate entry for email or dni"
// @Router       /patients/{id} [patch]
func PatchPatient(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req PatientPatchRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	applyPatientUpdate(c, id, req)
}

func applyPatientUpdate(c *gin.Context, id uint, req PatientPatchRequest) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var patient model.Patient
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&patient, id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.FirstName != nil {
			updates["first_name"] = util.NormalizeName(*req.FirstName)
		}
		if req.LastName != nil {
			updates["last_name"] = util.NormalizeName(*req.LastName)
		}
		if req.BirthDate != nil {
			updates["birth_date"] = *req.BirthDate
		}
		if req.PhoneNumber != nil {
			updates["phone_number"] = *req.PhoneNumber
		}
		if req.AlternativePhoneNumber != nil {
			updates["alternative_phone_number"] = *req.AlternativePhoneNumber
		}
		dni, email := "", ""
		if req.DNI != nil {
			dni = *req.DNI
			updates["dni"] = dni
		}
		if req.Email != nil {
			email = strings.ToLower(*req.Email)
			updates["email"] = email
		}
		if dni != "" || email != "" {
			taken, err := patientIdentityTaken(tx, id, dni, email)
			if err != nil {
				return err
			}
			if taken {
				return gorm.ErrDuplicatedKey
			}
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&patient).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&patient, id).Error
	})
	if err != nil {
		respondPatientWriteError(c, err, "Failed to update patient")
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Patient updated successfully", Data: toPatientResponse(patient)})
}

// DeletePatient godoc
// @Summary      Delete patient
// @Tags         Patients
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Patient ID"
// @Success      200 {object} util.APIResponse "Patient deleted"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      409 {object} util.APIResponse "Patient has appointments"
// @Router       /patients/{id} [delete]
func DeletePatient(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	guards := []refGuard{{model: &model.Appointment{}, column: "patient_id", msg: "Patient has appointments"}}
	hardDeleteByID(c, db, &model.Patient{}, id, guards, func(tx *gorm.DB) error {
		return deletePatientRecords(tx, id)
	}, "Patient not found", "Patient deleted successfully")
}

// deletePatientRecords drops the clinical records owned by a patient.
func deletePatientRecords(tx *gorm.DB, patientID uint) error {
	odontograms := tx.Unscoped().Model(&model.Odontogram{}).Select("id").Where("patient_id = ?", patientID)
	if err := tx.Unscoped().Where("odontogram_id IN (?)", odontograms).Delete(&model.Tooth{}).Error; err != nil {
		return err
	}
	if err := tx.Unscoped().Where("patient_id = ?", patientID).Delete(&model.Odontogram{}).Error; err != nil {
		return err
	}
	return tx.Unscoped().Where("patient_id = ?", patientID).Delete(&model.MedicalHistory{}).Error
}

// ListPatientsByDentist godoc
// @Summary      List patients of a dentist
// @Description  Distinct patients that have at least one appointment with the dentist
// @Tags         Patients
// @Produce      json
// @Security     BearerAuth
// @Param        dentist_id path int true "Dentist user ID"
// @Success      200 {object} util.APIResponse{data=[]PatientResponse} "Patients retrieved"
// @Failure      404 {object} util.APIResponse "No patients found for this dentist"
// @Router       /patients/dentist/{dentist_id} [get]
func ListPatientsByDentist(c *gin.Context) {
	dentistID, ok := parseIDParam(c, "dentist_id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var patients []model.Patient
	err := db.Where("id IN (?)",
		db.Model(&model.Appointment{}).Select("patient_id").Where("dentist_id = ?", dentistID),
	).Order("last_name, first_name").Find(&patients).Error
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve patients", Err: err})
		return
	}
	if len(patients) == 0 {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "No patients found for this dentist", Err: errors.New("no patients")})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Patients retrieved", Data: toPatientResponses(patients)})
}

// patientIdentityTaken reports whether another patient already uses dni
// or email. Empty values are not checked.
func patientIdentityTaken(db *gorm.DB, excludeID uint, dni, email string) (bool, error) {
	q := db.Model(&model.Patient{})
	switch {
	case dni != "" && email != "":
		q = q.Where("dni = ? OR email = ?", dni, email)
	case dni != "":
		q = q.Where("dni = ?", dni)
	default:
		q = q.Where("email = ?", email)
	}
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func respondPatientWriteError(c *gin.Context, err error, msg string) {
	switch {
	case util.IsDuplicateKey(err):
		util.CallConflict(c, util.APIErrorParams{Msg: duplicateEmailOrDNI, Err: err})
	case util.IsNotFound(err):
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Patient not found", Err: err})
	default:
		util.CallServerError(c, util.APIErrorParams{Msg: msg, Err: err})
	}
}
