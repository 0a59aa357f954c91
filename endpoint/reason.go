package endpoint

import (
	"errors"

	"github.com/ariebrainware/dentplanner-api/middleware"
	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/scheduling"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
)

// ReasonRequest sizes a reason with either time (HH:mm) or duration_minutes.
type ReasonRequest struct {
	Description     string `json:"description" binding:"required,min=1,max=55" example:"Cleaning"`
	Time            string `json:"time" example:"00:30"`
	DurationMinutes *int   `json:"duration_minutes" binding:"omitempty,gte=0" example:"30"`
}

type ReasonResponse struct {
	ID              uint   `json:"id" example:"1"`
	Description     string `json:"description" example:"Cleaning"`
	Time            string `json:"time" example:"00:30"`
	DurationMinutes int    `json:"duration_minutes" example:"30"`
}

func toReasonResponse(r model.Reason) ReasonResponse {
	return ReasonResponse{
		ID:              r.ID,
		Description:     r.Description,
		Time:            scheduling.FormatDuration(r.DurationMinutes),
		DurationMinutes: r.DurationMinutes,
	}
}

func (r ReasonRequest) minutes() (int, error) {
	if r.DurationMinutes != nil {
		return *r.DurationMinutes, nil
	}
	if r.Time == "" {
		return 0, errors.New("time or duration_minutes is required")
	}
	return scheduling.ParseDuration(r.Time)
}

// ListReasons godoc
// @Summary      List reasons
// @Tags         Reasons
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=[]ReasonResponse} "Reasons retrieved"
// @Router       /reasons [get]
func ListReasons(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var reasons []model.Reason
	if err := db.Order("id").Find(&reasons).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve reasons", Err: err})
		return
	}
	out := make([]ReasonResponse, 0, len(reasons))
	for _, r := range reasons {
		out = append(out, toReasonResponse(r))
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Reasons retrieved", Data: out})
}

// GetReason godoc
// @Summary      Get reason
// @Tags         Reasons
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Reason ID"
// @Success      200 {object} util.APIResponse{data=ReasonResponse} "Reason retrieved"
// @Failure      404 {object} util.APIResponse "Reason not found"
// @Router       /reasons/{id} [get]
func GetReason(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var reason model.Reason
	if err := db.First(&reason, id).Error; err != nil {
		respondDBError(c, err, "Reason not found", "Failed to retrieve reason")
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Reason retrieved", Data: toReasonResponse(reason)})
}

// CreateReason godoc
// @Summary      Create reason
// @Tags         Reasons
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ReasonRequest true "Reason"
// @Success      201 {object} util.APIResponse{data=ReasonResponse} "Reason created"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Router       /reasons [post]
func CreateReason(c *gin.Context) {
	var req ReasonRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	minutes, err := req.minutes()
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request payload", Err: err})
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	reason := model.Reason{Description: req.Description, DurationMinutes: minutes}
	if err := db.Create(&reason).Error; err != nil {
		respondDBError(c, err, "Reason not found", "Failed to create reason")
		return
	}
	util.CallCreated(c, util.APISuccessParams{Msg: "Reason created successfully", Data: toReasonResponse(reason)})
}

// UpdateReason godoc
// @Summary      Update reason
// @Description  Changing the duration resizes every appointment booked with the reason
// @Tags         Reasons
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Reason ID"
// @Param        request body ReasonRequest true "Reason"
// @Success      200 {object} util.APIResponse{data=ReasonResponse} "Reason updated"
// @Failure      404 {object} util.APIResponse "Reason not found"
// @Router       /reasons/{id} [put]
func UpdateReason(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ReasonRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	minutes, err := req.minutes()
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request payload", Err: err})
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var reason model.Reason
	if err := db.First(&reason, id).Error; err != nil {
		respondDBError(c, err, "Reason not found", "Failed to retrieve reason")
		return
	}
	if err := db.Model(&reason).Updates(map[string]interface{}{
		"description":      req.Description,
		"duration_minutes": minutes,
	}).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update reason", Err: err})
		return
	}
	invalidateReason(c, id)
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Reason updated successfully", Data: toReasonResponse(reason)})
}

// DeleteReason godoc
// @Summary      Delete reason
// @Tags         Reasons
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Reason ID"
// @Success      200 {object} util.APIResponse "Reason deleted"
// @Failure      404 {object} util.APIResponse "Reason not found"
// @Router       /reasons/{id} [delete]
func DeleteReason(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	deleteByID(c, db, &model.Reason{}, id, "Reason not found", "Reason deleted successfully")
	invalidateReason(c, id)
}

func invalidateReason(c *gin.Context, id uint) {
	if s := middleware.GetServices(c); s != nil && s.Slots != nil && s.Slots.Checker != nil {
		s.Slots.Checker.InvalidateReason(id)
	}
}
