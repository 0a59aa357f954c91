package endpoint

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ariebrainware/dentplanner-api/middleware"
	"github.com/ariebrainware/dentplanner-api/reminder"
	"github.com/ariebrainware/dentplanner-api/scheduling"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MessageResponse is the data of create responses that only return an id.
type MessageResponse struct {
	ID uint `json:"id" example:"1"`
}

func bindJSONOrRespond(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: msg, Err: errors.New(util.ValidationMessage(err))})
		return false
	}
	return true
}

// bindOrRespond binds JSON, form or multipart bodies depending on the
// request content type.
func bindOrRespond(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBind(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: msg, Err: errors.New(util.ValidationMessage(err))})
		return false
	}
	return true
}

func getDBOrRespond(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database connection not available", Err: fmt.Errorf("db is nil")})
		return nil, false
	}
	return db, true
}

func getServicesOrRespond(c *gin.Context) (*middleware.Services, bool) {
	s := middleware.GetServices(c)
	if s == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Services not available", Err: fmt.Errorf("services are nil")})
		return nil, false
	}
	return s, true
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		util.CallUserError(c, util.APIErrorParams{Msg: fmt.Sprintf("Invalid %s", name), Err: fmt.Errorf("invalid %s %q", name, raw)})
		return 0, false
	}
	return uint(id), true
}

// respondDBError answers a failed write or lookup. notFound is the message
// used when the record does not exist.
func respondDBError(c *gin.Context, err error, notFound, msg string) {
	var inUse inUseError
	switch {
	case errors.As(err, &inUse):
		util.CallConflict(c, util.APIErrorParams{Msg: inUse.msg, Err: err})
	case errors.Is(err, scheduling.ErrSlotTaken), errors.Is(err, scheduling.ErrSlotUnavailable):
		util.CallConflict(c, util.APIErrorParams{Msg: "Appointment slot unavailable", Err: err})
	case errors.Is(err, scheduling.ErrLockBusy):
		util.CallConflict(c, util.APIErrorParams{Msg: "Another booking for this dentist is in progress, try again", Err: err})
	case errors.Is(err, scheduling.ErrPatientNotFound):
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Patient not found", Err: err})
	case errors.Is(err, scheduling.ErrDentistNotFound):
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Dentist not found", Err: err})
	case errors.Is(err, scheduling.ErrReasonNotFound):
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Reason not found", Err: err})
	case errors.Is(err, reminder.ErrAppointmentNotFound):
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Appointment not found", Err: err})
	case util.IsDuplicateKey(err):
		util.CallConflict(c, util.APIErrorParams{Msg: "Duplicate entry", Err: err})
	case util.IsNotFound(err):
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: notFound, Err: err})
	default:
		util.CallServerError(c, util.APIErrorParams{Msg: msg, Err: err})
	}
}

// ensureExists answers 404 with msg when no row of m has the given id.
func ensureExists(c *gin.Context, db *gorm.DB, m interface{}, id uint, msg string) bool {
	var count int64
	if err := db.Model(m).Where("id = ?", id).Count(&count).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return false
	}
	if count == 0 {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: msg, Err: errors.New(msg)})
		return false
	}
	return true
}

// deleteByID soft deletes the row of m with id, answering 404 when nothing
// was deleted.
func deleteByID(c *gin.Context, db *gorm.DB, m interface{}, id uint, notFound, okMsg string) {
	res := db.Delete(m, id)
	if res.Error != nil {
		respondDBError(c, res.Error, notFound, "Failed to delete record")
		return
	}
	if res.RowsAffected == 0 {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: notFound, Err: errors.New(notFound)})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: okMsg})
}

// inUseError refuses a delete while other rows still point at the record.
type inUseError struct{ msg string }

func (e inUseError) Error() string { return e.msg }

// refGuard blocks a hard delete while any live row of model matches
// column = id.
type refGuard struct {
	model  interface{}
	column string
	msg    string
}

// hardDeleteByID removes the row of m for good, so unique keys such as dni
// or email can be used again. Guards run first and answer 409; cleanup runs
// in the same transaction before the row goes. Reports whether it deleted.
func hardDeleteByID(c *gin.Context, db *gorm.DB, m interface{}, id uint, guards []refGuard, cleanup func(tx *gorm.DB) error, notFound, okMsg string) bool {
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, g := range guards {
			var count int64
			if err := tx.Model(g.model).Where(g.column+" = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return inUseError{msg: g.msg}
			}
		}
		if cleanup != nil {
			if err := cleanup(tx); err != nil {
				return err
			}
		}
		res := tx.Unscoped().Delete(m, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		respondDBError(c, err, notFound, "Failed to delete record")
		return false
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: okMsg})
	return true
}

type clientInfo struct {
	IP    string
	Agent string
}

func clientOf(c *gin.Context) clientInfo {
	return clientInfo{IP: c.ClientIP(), Agent: c.Request.UserAgent()}
}
