package endpoint

import (
	"time"

	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
)

type ReminderRequest struct {
	AppointmentID uint    `json:"appointment_id" binding:"required" example:"1"`
	Status        string  `json:"status" binding:"omitempty,oneof=sent delivered failed" example:"sent"`
	Channel       string  `json:"channel" binding:"omitempty,oneof=email whatsapp" example:"email"`
	Response      *string `json:"response" binding:"omitempty,oneof=confirmed cancelled rescheduled"`
}

type ReminderUpdateRequest struct {
	Status   string  `json:"status" binding:"required,oneof=sent delivered failed" example:"delivered"`
	Response *string `json:"response" binding:"omitempty,oneof=confirmed cancelled rescheduled"`
}

type ReminderConfigurationRequest struct {
	AppointmentID    uint  `json:"appointment_id" binding:"required" example:"1"`
	AnticipationTime int   `json:"anticipation_time" binding:"required,gte=1,lte=4320" example:"24"`
	IsActive         *bool `json:"is_active" example:"true"`
}

// ListReminders godoc
// @Summary      List reminders
// @Tags         Reminders
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=[]model.Reminder} "Reminders retrieved"
// @Router       /reminders [get]
func ListReminders(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var out []model.Reminder
	if err := db.Order("sent_at DESC").Find(&out).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve reminders", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Reminders retrieved", Data: out})
}

// GetReminder godoc
// @Summary      Get reminder
// @Tags         Reminders
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Reminder ID"
// @Success      200 {object} util.APIResponse{data=model.Reminder} "Reminder retrieved"
// @Failure      404 {object} util.APIResponse "Reminder not found"
// @Router       /reminders/{id} [get]
func GetReminder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var r model.Reminder
	if err := db.First(&r, id).Error; err != nil {
		respondDBError(c, err, "Reminder not found", "Failed to retrieve reminder")
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Reminder retrieved", Data: r})
}

// CreateReminder godoc
// @Summary      Record a reminder
// @Description  Reminders are normally written by the dispatcher. An appointment holds at most one.
// @Tags         Reminders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ReminderRequest true "Reminder"
// @Success      201 {object} util.APIResponse{data=model.Reminder} "Reminder created"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      409 {object} util.APIResponse "Duplicate entry"
// @Router       /reminders [post]
func CreateReminder(c *gin.Context) {
	var req ReminderRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	if !ensureExists(c, db, &model.Appointment{}, req.AppointmentID, "Appointment not found") {
		return
	}

	r := model.Reminder{
		AppointmentID: req.AppointmentID,
		Status:        req.Status,
		Channel:       req.Channel,
		Response:      req.Response,
		SentAt:        time.Now(),
	}
	if r.Status == "" {
		r.Status = model.ReminderSent
	}
	if r.Channel == "" {
		r.Channel = model.ChannelEmail
	}
	if r.Response != nil {
		now := r.SentAt
		r.ResponseReceivedAt = &now
	}
	if err := db.Create(&r).Error; err != nil {
		respondDBError(c, err, "Reminder not found", "Failed to create reminder")
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Reminder created successfully", Data: r})
}

// UpdateReminder godoc
// @Summary      Update reminder status and response
// @Tags         Reminders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Reminder ID"
// @Param        request body ReminderUpdateRequest true "Reminder"
// @Success      200 {object} util.APIResponse{data=model.Reminder} "Reminder updated"
// @Failure      404 {object} util.APIResponse "Reminder not found"
// @Router       /reminders/{id} [put]
func UpdateReminder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ReminderUpdateRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var r model.Reminder
	if err := db.First(&r, id).Error; err != nil {
		respondDBError(c, err, "Reminder not found", "Failed to retrieve reminder")
		return
	}
	updates := map[string]interface{}{"status": req.Status, "response": req.Response}
	if req.Response != nil && r.ResponseReceivedAt == nil {
		updates["response_received_at"] = time.Now()
	}
	if err := db.Model(&r).Updates(updates).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update reminder", Err: err})
		return
	}
	if err := db.First(&r, id).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to reload reminder", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Reminder updated successfully", Data: r})
}

// DeleteReminder godoc
// @Summary      Delete reminder
// @Tags         Reminders
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Reminder ID"
// @Success      200 {object} util.APIResponse "Reminder deleted"
// @Failure      404 {object} util.APIResponse "Reminder not found"
// @Router       /reminders/{id} [delete]
func DeleteReminder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	// Hard delete frees the appointment's unique slot for a new reminder.
	deleteByID(c, db.Unscoped(), &model.Reminder{}, id, "Reminder not found", "Reminder deleted successfully")
}

// ListReminderConfigurations godoc
// @Summary      List reminder configurations
// @Tags         ReminderConfigurations
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=[]model.ReminderConfiguration} "Reminder configurations retrieved"
// @Router       /reminder-configurations [get]
func ListReminderConfigurations(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var out []model.ReminderConfiguration
	if err := db.Order("id").Find(&out).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve reminder configurations", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Reminder configurations retrieved", Data: out})
}

// GetReminderConfiguration godoc
// @Summary      Get reminder configuration
// @Tags         ReminderConfigurations
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Configuration ID"
// @Success      200 {object} util.APIResponse{data=model.ReminderConfiguration} "Reminder configuration retrieved"
// @Failure      404 {object} util.APIResponse "Reminder configuration not found"
// @Router       /reminder-configurations/{id} [get]
func GetReminderConfiguration(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var cfg model.ReminderConfiguration
	if err := db.First(&cfg, id).Error; err != nil {
		respondDBError(c, err, "Reminder configuration not found", "Failed to retrieve reminder configuration")
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Reminder configuration retrieved", Data: cfg})
}

// CreateReminderConfiguration godoc
// @Summary      Create reminder configuration
// @Tags         ReminderConfigurations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ReminderConfigurationRequest true "Configuration"
// @Success      201 {object} util.APIResponse{data=model.ReminderConfiguration} "Reminder configuration created"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      409 {object} util.APIResponse "Duplicate entry"
// @Router       /reminder-configurations [post]
func CreateReminderConfiguration(c *gin.Context) {
	var req ReminderConfigurationRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	if !ensureExists(c, db, &model.Appointment{}, req.AppointmentID, "Appointment not found") {
		return
	}

	cfg := model.ReminderConfiguration{
		AppointmentID:    req.AppointmentID,
		AnticipationTime: req.AnticipationTime,
		IsActive:         req.IsActive == nil || *req.IsActive,
	}
	if err := db.Create(&cfg).Error; err != nil {
		respondDBError(c, err, "Reminder configuration not found", "Failed to create reminder configuration")
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Reminder configuration created successfully", Data: cfg})
}

// UpdateReminderConfiguration godoc
// @Summary      Update reminder configuration
// @Tags         ReminderConfigurations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Configuration ID"
// @Param        request body ReminderConfigurationRequest true "Configuration"
// @Success      200 {object} util.APIResponse{data=model.ReminderConfiguration} "Reminder configuration updated"
// @Failure      404 {object} util.APIResponse "Reminder configuration not found"
// @Failure      409 {object} util.APIResponse "Duplicate entry"
// @Router       /reminder-configurations/{id} [put]
func UpdateReminderConfiguration(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ReminderConfigurationRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var cfg model.ReminderConfiguration
	if err := db.First(&cfg, id).Error; err != nil {
		respondDBError(c, err, "Reminder configuration not found", "Failed to retrieve reminder configuration")
		return
	}
	if !ensureExists(c, db, &model.Appointment{}, req.AppointmentID, "Appointment not found") {
		return
	}
	updates := map[string]interface{}{
		"appointment_id":    req.AppointmentID,
		"anticipation_time": req.AnticipationTime,
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if err := db.Model(&cfg).Updates(updates).Error; err != nil {
		respondDBError(c, err, "Reminder configuration not found", "Failed to update reminder configuration")
		return
	}
	if err := db.First(&cfg, id).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to reload reminder configuration", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Reminder configuration updated successfully", Data: cfg})
}

// DeleteReminderConfiguration godoc
// @Summary      Delete reminder configuration
// @Tags         ReminderConfigurations
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Configuration ID"
// @Success      200 {object} util.APIResponse "Reminder configuration deleted"
// @Failure      404 {object} util.APIResponse "Reminder configuration not found"
// @Router       /reminder-configurations/{id} [delete]
func DeleteReminderConfiguration(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	deleteByID(c, db.Unscoped(), &model.ReminderConfiguration{}, id, "Reminder configuration not found", "Reminder configuration deleted successfully")
}
