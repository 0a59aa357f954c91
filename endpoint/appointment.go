package endpoint

import (
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/scheduling"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const defaultAnticipationHours = 24

type AppointmentRequest struct {
	PatientID        uint   `json:"patient_id" binding:"required" example:"1"`
	DentistID        uint   `json:"dentist_id" binding:"required" example:"2"`
	ReasonID         uint   `json:"reason_id" binding:"required" example:"1"`
	Date             string `json:"date" binding:"required" example:"2026-03-14"`
	Time             string `json:"time" binding:"required,clock" example:"09:30"`
	State            string `json:"state" binding:"omitempty,oneof=pending confirmed cancelled rescheduled" example:"confirmed"`
	Assistance       string `json:"assistance" binding:"omitempty,oneof=pending present absent" example:"pending"`
	Observations     string `json:"observations"`
	AnticipationTime *int   `json:"anticipation_time" binding:"omitempty,min=0,max=4320" example:"24"`
	IsActive         *bool  `json:"is_active" example:"true"`
}

// AppointmentPatchRequest only changes the fields that are present.
type AppointmentPatchRequest struct {
	PatientID        *uint   `json:"patient_id"`
	DentistID        *uint   `json:"dentist_id"`
	ReasonID         *uint   `json:"reason_id"`
	Date             *string `json:"date"`
	Time             *string `json:"time" binding:"omitempty,clock"`
	State            *string `json:"state" binding:"omitempty,oneof=pending confirmed cancelled rescheduled"`
	Assistance       *string `json:"assistance" binding:"omitempty,oneof=pending present absent"`
	Observations     *string `json:"observations"`
	AnticipationTime *int    `json:"anticipation_time" binding:"omitempty,min=0,max=4320"`
	IsActive         *bool   `json:"is_active"`
}

// AppointmentResponse is the joined listing view of an appointment.
type AppointmentResponse struct {
	ID              uint   `json:"id" example:"1"`
	PatientID       uint   `json:"patient_id" example:"1"`
	DentistID       uint   `json:"dentist_id" example:"2"`
	ReasonID        uint   `json:"reason_id" example:"1"`
	Date            string `json:"date" example:"14-03-2026"`
	Time            string `json:"time" example:"09:30"`
	EndingTime      string `json:"ending_time" example:"10:00"`
	State           string `json:"state" example:"confirmed"`
	Assistance      string `json:"assistance" example:"pending"`
	Observations    string `json:"observations"`
	IsActive        bool   `json:"is_active"`
	PatientName     string `json:"patient_name" example:"Juan"`
	PatientLastName string `json:"patient_last_name" example:"Perez"`
	DentistName     string `json:"dentist_name" example:"Laura"`
	DentistLastName string `json:"dentist_last_name" example:"Gomez"`
	Reason          string `json:"reason" example:"Cleaning"`
	CreatedAt       string `json:"created_at" example:"13-03-2026:10:00:00"`
	UpdatedAt       string `json:"updated_at" example:"13-03-2026:10:00:00"`
}

// ConfirmedVisit is one attended appointment of a patient.
type ConfirmedVisit struct {
	Date   string `json:"date" example:"14-03-2026"`
	Time   string `json:"time" example:"09:30"`
	Reason string `json:"reason" example:"Cleaning"`
}

type appointmentRow struct {
	ID              uint
	PatientID       uint
	DentistID       uint
	ReasonID        uint
	Date            string
	Time            string
	State           string
	Assistance      string
	Observations    string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PatientName     string
	PatientLastName string
	DentistName     string
	DentistLastName string
	Reason          string
	DurationMinutes int
}

func (r appointmentRow) response() AppointmentResponse {
	ending := r.Time
	if start, err := scheduling.ParseClock(r.Time); err == nil {
		ending = scheduling.FormatClock(scheduling.NewInterval(start, r.DurationMinutes).End)
	}
	return AppointmentResponse{
		ID:              r.ID,
		PatientID:       r.PatientID,
		DentistID:       r.DentistID,
		ReasonID:        r.ReasonID,
		Date:            util.ReformatDate(r.Date, util.DisplayDate),
		Time:            r.Time,
		EndingTime:      ending,
		State:           r.State,
		Assistance:      r.Assistance,
		Observations:    r.Observations,
		IsActive:        r.IsActive,
		PatientName:     r.PatientName,
		PatientLastName: r.PatientLastName,
		DentistName:     r.DentistName,
		DentistLastName: r.DentistLastName,
		Reason:          r.Reason,
		CreatedAt:       util.FormatStamp(r.CreatedAt),
		UpdatedAt:       util.FormatStamp(r.UpdatedAt),
	}
}

func appointmentQuery(db *gorm.DB) *gorm.DB {
	return db.Table("appointments AS a").
		Select("a.id, a.patient_id, a.dentist_id, a.reason_id, a.date, a.time, a.state, a.assistance, a.observations, a.is_active, a.created_at, a.updated_at, " +
			"p.first_name AS patient_name, p.last_name AS patient_last_name, " +
			"d.first_name AS dentist_name, d.last_name AS dentist_last_name, " +
			"r.description AS reason, r.duration_minutes").
		Joins("JOIN patients p ON p.id = a.patient_id").
		Joins("JOIN users d ON d.id = a.dentist_id").
		Joins("JOIN reasons r ON r.id = a.reason_id").
		Where("a.deleted_at IS NULL")
}

func findAppointments(q *gorm.DB) ([]AppointmentResponse, error) {
	var rows []appointmentRow
	if err := q.Order("a.date, a.time, a.id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]AppointmentResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.response())
	}
	return out, nil
}

// ListAppointments godoc
// @Summary      List appointments
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=[]AppointmentResponse} "Appointments retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments [get]
func ListAppointments(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	out, err := findAppointments(appointmentQuery(db))
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve appointments", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Appointments retrieved", Data: out})
}

// GetAppointment godoc
// @Summary      Get appointment
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Appointment ID"
// @Success      200 {object} util.APIResponse{data=AppointmentResponse} "Appointment retrieved"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Router       /appointments/{id} [get]
func GetAppointment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	out, err := findAppointments(appointmentQuery(db).Where("a.id = ?", id))
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve appointment", Err: err})
		return
	}
	if len(out) == 0 {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Appointment not found", Err: errors.New("appointment not found")})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Appointment retrieved", Data: out[0]})
}

// ListAppointmentsByDentist godoc
// @Summary      List appointments of a dentist
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Param        dentist_id path int true "Dentist user ID"
// @Param        state query string false "State filter" Enums(pending, confirmed, cancelled, rescheduled)
// @Success      200 {object} util.APIResponse{data=[]AppointmentResponse} "Appointments retrieved"
// @Failure      404 {object} util.APIResponse "Invalid dentist ID"
// @Router       /appointments/dentist/{dentist_id} [get]
func ListAppointmentsByDentist(c *gin.Context) {
	dentistID, ok := parseIDParam(c, "dentist_id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var count int64
	err := db.Model(&model.User{}).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("users.id = ? AND roles.name = ?", dentistID, model.RoleDentist).
		Count(&count).Error
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return
	}
	if count == 0 {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Invalid dentist ID", Err: errors.New("user is not a dentist")})
		return
	}

	q := appointmentQuery(db).Where("a.dentist_id = ?", dentistID)
	if state := c.Query("state"); state != "" {
		q = q.Where("a.state = ?", state)
	}
	out, err := findAppointments(q)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve appointments", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Appointments retrieved", Data: out})
}

// ListAppointmentsByPatient godoc
// @Summary      List appointments of a patient
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Param        patient_id path int true "Patient ID"
// @Success      200 {object} util.APIResponse{data=[]AppointmentResponse} "Appointments retrieved"
// @Router       /appointments/patient/{patient_id} [get]
func ListAppointmentsByPatient(c *gin.Context) {
	patientID, ok := parseIDParam(c, "patient_id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	out, err := findAppointments(appointmentQuery(db).Where("a.patient_id = ?", patientID))
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve appointments", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Appointments retrieved", Data: out})
}

// ListConfirmedVisits godoc
// @Summary      Attended appointments of a patient
// @Description  Appointments the patient attended, newest first
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Param        patient_id path int true "Patient ID"
// @Success      200 {object} util.APIResponse{data=[]ConfirmedVisit} "Visits retrieved"
// @Router       /appointments/patient/{patient_id}/confirmed [get]
func ListConfirmedVisits(c *gin.Context) {
	patientID, ok := parseIDParam(c, "patient_id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var rows []appointmentRow
	err := appointmentQuery(db).
		Where("a.patient_id = ? AND a.assistance = ?", patientID, model.AssistancePresent).
		Order("a.date DESC, a.time DESC").
		Scan(&rows).Error
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve visits", Err: err})
		return
	}
	out := make([]ConfirmedVisit, 0, len(rows))
	for _, r := range rows {
		out = append(out, ConfirmedVisit{Date: util.ReformatDate(r.Date, util.DisplayDate), Time: r.Time, Reason: r.Reason})
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Visits retrieved", Data: out})
}

// CreateAppointment godoc
// @Summary      Create appointment
// @Description  Books an appointment. Confirmed appointments must not overlap another confirmed appointment of the same dentist on the same date. With is_active the appointment starts pending and gets a reminder configuration.
// @Tags         Appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body AppointmentRequest true "Appointment"
// @Success      201 {object} util.APIResponse{data=MessageResponse} "Appointment created"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      404 {object} util.APIResponse "Patient, dentist or reason not found"
// @Failure      409 {object} util.APIResponse "Appointment slot unavailable"
// @Router       /appointments [post]
func CreateAppointment(c *gin.Context) {
	var req AppointmentRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	date, err := util.ParseISODate(req.Date)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request payload", Err: err})
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

	isActive := req.IsActive != nil && *req.IsActive
	appt := model.Appointment{
		PatientID:    req.PatientID,
		DentistID:    req.DentistID,
		ReasonID:     req.ReasonID,
		Date:         date,
		Time:         req.Time,
		State:        createState(req.State, isActive),
		Assistance:   model.AssistancePending,
		Observations: req.Observations,
		IsActive:     isActive,
	}
	if req.Assistance != "" {
		appt.Assistance = req.Assistance
	}

	slot := scheduling.SlotRequest{
		PatientID: appt.PatientID,
		DentistID: appt.DentistID,
		ReasonID:  appt.ReasonID,
		Date:      appt.Date,
		Time:      appt.Time,
	}
	err = services.Slots.Reserve(c.Request.Context(), db, slot, appt.State, func(tx *gorm.DB) error {
		if err := tx.Create(&appt).Error; err != nil {
			return err
		}
		if !isActive {
			return nil
		}
		return tx.Create(&model.ReminderConfiguration{
			AppointmentID:    appt.ID,
			AnticipationTime: anticipationOrDefault(req.AnticipationTime),
			IsActive:         true,
		}).Error
	})
	if err != nil {
		respondDBError(c, err, "Appointment not found", "Failed to create appointment")
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Appointment created successfully", Data: MessageResponse{ID: appt.ID}})
}

// createState applies the booking rule: appointments with an active
// reminder start pending until the patient answers.
func createState(state string, isActive bool) string {
	if isActive || state == "" {
		return model.StatePending
	}
	return state
}

func anticipationOrDefault(v *int) int {
	if v == nil {
		return defaultAnticipationHours
	}
	return *v
}

// UpdateAppointment godoc
// @Summary      Replace appointment
// @Description  Full update. The slot is re-checked against other appointments. With is_active the state becomes pending and the reminder configuration is created or updated.
// @Tags         Appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Appointment ID"
// @Param        request body AppointmentRequest true "Appointment"
// @Success      200 {object} util.APIResponse{data=AppointmentResponse} "Appointment updated"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      409 {object} util.APIResponse "Appointment slot unavailable"
// @Router       /appointments/{id} [put]
func UpdateAppointment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AppointmentRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	isActive := req.IsActive != nil && *req.IsActive
	state := createState(req.State, isActive)
	change := appointmentChange{
		PatientID:        &req.PatientID,
		DentistID:        &req.DentistID,
		ReasonID:         &req.ReasonID,
		Date:             &req.Date,
		Time:             &req.Time,
		State:            &state,
		Observations:     &req.Observations,
		IsActive:         req.IsActive,
		AnticipationTime: req.AnticipationTime,
		createConfig:     true,
	}
	if req.Assistance != "" {
		change.Assistance = &req.Assistance
	}
	applyAppointmentChange(c, id, change)
}

// PatchAppointment godoc
// @Summary      Update appointment
// @Description  Partial update, only supplied fields change. When both state and is_active=false are supplied the state is stored as confirmed. A changed slot is checked using the supplied values merged with the stored ones.
// @Tags         Appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Appointment ID"
// @Param        request body AppointmentPatchRequest true "Fields to change"
// @Success      200 {object} util.APIResponse{data=AppointmentResponse} "Appointment updated"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      409 {object} util.APIResponse "Appointment slot unavailable"
// @Router       /appointments/{id} [patch]
func PatchAppointment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AppointmentPatchRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	change := appointmentChange{
		PatientID:        req.PatientID,
		DentistID:        req.DentistID,
		ReasonID:         req.ReasonID,
		Date:             req.Date,
		Time:             req.Time,
		State:            patchState(req.State, req.IsActive),
		Assistance:       req.Assistance,
		Observations:     req.Observations,
		IsActive:         req.IsActive,
		AnticipationTime: req.AnticipationTime,
	}
	applyAppointmentChange(c, id, change)
}

// patchState keeps the partial update rule of the booking screen: a state
// sent together with is_active=false is stored as confirmed.
func patchState(state *string, isActive *bool) *string {
	if state == nil {
		return nil
	}
	if isActive != nil && !*isActive {
		confirmed := model.StateConfirmed
		return &confirmed
	}
	return state
}

type appointmentChange struct {
	PatientID        *uint
	DentistID        *uint
	ReasonID         *uint
	Date             *string
	Time             *string
	State            *string
	Assistance       *string
	Observations     *string
	IsActive         *bool
	AnticipationTime *int
	// createConfig upserts the reminder configuration when is_active is
	// true; otherwise only an existing configuration is updated.
	createConfig bool
}

func applyAppointmentChange(c *gin.Context, id uint, ch appointmentChange) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	services, ok := getServicesOrRespond(c)
	if !ok {
		return
	}

	var current model.Appointment
	if err := db.First(&current, id).Error; err != nil {
		respondDBError(c, err, "Appointment not found", "Failed to retrieve appointment")
		return
	}

	next := current
	if ch.Date != nil {
		date, err := util.ParseISODate(*ch.Date)
		if err != nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request payload", Err: err})
			return
		}
		next.Date = date
	}
	if ch.PatientID != nil {
		next.PatientID = *ch.PatientID
	}
	if ch.DentistID != nil {
		next.DentistID = *ch.DentistID
	}
	if ch.ReasonID != nil {
		next.ReasonID = *ch.ReasonID
	}
	if ch.Time != nil {
		next.Time = *ch.Time
	}
	if ch.State != nil {
		next.State = *ch.State
	}
	if ch.Assistance != nil {
		next.Assistance = *ch.Assistance
	}
	if ch.Observations != nil {
		next.Observations = *ch.Observations
	}
	if ch.IsActive != nil {
		next.IsActive = *ch.IsActive
	}

	write := func(tx *gorm.DB) error {
		if err := tx.Model(&current).Select("patient_id", "dentist_id", "reason_id", "date", "time", "state", "assistance", "observations", "is_active").Updates(&next).Error; err != nil {
			return err
		}
		if ch.IsActive == nil || !*ch.IsActive {
			return nil
		}
		return syncReminderConfig(tx, id, ch.AnticipationTime, ch.createConfig)
	}

	ctx := c.Request.Context()
	var err error
	if slotChanged(current, next) {
		slot := scheduling.SlotRequest{
			PatientID: next.PatientID,
			DentistID: next.DentistID,
			ReasonID:  next.ReasonID,
			Date:      next.Date,
			Time:      next.Time,
			ExcludeID: id,
		}
		err = services.Slots.Reserve(ctx, db, slot, next.State, write)
	} else {
		err = db.WithContext(ctx).Transaction(write)
	}
	if err != nil {
		respondDBError(c, err, "Appointment not found", "Failed to update appointment")
		return
	}

	out, err := findAppointments(appointmentQuery(db).Where("a.id = ?", id))
	if err != nil || len(out) == 0 {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to reload appointment", Err: fmt.Errorf("reload appointment %d: %v", id, err)})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Appointment updated successfully", Data: out[0]})
}

// slotChanged reports whether the update touches a reference or anything
// the slot checks depend on, including a move from a free state into a
// holding one.
func slotChanged(current, next model.Appointment) bool {
	if next.PatientID != current.PatientID || next.DentistID != current.DentistID || next.ReasonID != current.ReasonID {
		return true
	}
	if !model.IsHolding(next.State) {
		return false
	}
	return next.Date != current.Date ||
		next.Time != current.Time ||
		!model.IsHolding(current.State)
}

func syncReminderConfig(tx *gorm.DB, appointmentID uint, anticipation *int, create bool) error {
	var cfg model.ReminderConfiguration
	err := tx.Where("appointment_id = ?", appointmentID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if !create {
			return nil
		}
		return tx.Create(&model.ReminderConfiguration{
			AppointmentID:    appointmentID,
			AnticipationTime: anticipationOrDefault(anticipation),
			IsActive:         true,
		}).Error
	}
	if err != nil {
		return err
	}
	updates := map[string]interface{}{"is_active": true}
	if anticipation != nil {
		updates["anticipation_time"] = *anticipation
	}
	return tx.Model(&cfg).Updates(updates).Error
}

// DeleteAppointment godoc
// @Summary      Delete appointment
// @Description  Deletes the appointment with its reminder configuration and reminders
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Appointment ID"
// @Success      200 {object} util.APIResponse "Appointment deleted"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Router       /appointments/{id} [delete]
func DeleteAppointment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("appointment_id = ?", id).Delete(&model.Reminder{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("appointment_id = ?", id).Delete(&model.ReminderConfiguration{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Appointment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		respondDBError(c, err, "Appointment not found", "Failed to delete appointment")
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Appointment deleted successfully"})
}
