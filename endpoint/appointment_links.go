package endpoint

import (
	"errors"
	"net/http"

	"github.com/ariebrainware/dentplanner-api/notify"
	"github.com/ariebrainware/dentplanner-api/reminder"
	"github.com/ariebrainware/dentplanner-api/scheduling"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
)

var linkMessages = map[string]string{
	notify.ActionConfirm:    "Tu turno ha sido confirmado. Puede cerrar esta pestaña.",
	notify.ActionCancel:     "Tu turno ha sido cancelado. Puede cerrar esta pestaña.",
	notify.ActionReschedule: "Tu solicitud de reprogramación ha sido recibida. Puede cerrar esta pestaña.",
}

// ConfirmAppointment godoc
// @Summary      Confirm from reminder email
// @Description  Public link sent in the reminder email. Answers plain text.
// @Tags         Appointments
// @Produce      plain
// @Param        id path int true "Appointment ID"
// @Success      200 {string} string "Tu turno ha sido confirmado. Puede cerrar esta pestaña."
// @Failure      400 {string} string "Ya se ha registrado una respuesta para este turno."
// @Failure      404 {string} string "Turno no encontrado."
// @Failure      409 {string} string "El horario ya no está disponible."
// @Router       /appointments/confirm/{id} [get]
func ConfirmAppointment(c *gin.Context) { respondToReminder(c, notify.ActionConfirm) }

// CancelAppointment godoc
// @Summary      Cancel from reminder email
// @Tags         Appointments
// @Produce      plain
// @Param        id path int true "Appointment ID"
// @Success      200 {string} string "Tu turno ha sido cancelado. Puede cerrar esta pestaña."
// @Failure      400 {string} string "Ya se ha registrado una respuesta para este turno."
// @Failure      404 {string} string "Turno no encontrado."
// @Router       /appointments/cancel/{id} [get]
func CancelAppointment(c *gin.Context) { respondToReminder(c, notify.ActionCancel) }

// RescheduleAppointment godoc
// @Summary      Ask to reschedule from reminder email
// @Tags         Appointments
// @Produce      plain
// @Param        id path int true "Appointment ID"
// @Success      200 {string} string "Tu solicitud de reprogramación ha sido recibida. Puede cerrar esta pestaña."
// @Failure      400 {string} string "Ya se ha registrado una respuesta para este turno."
// @Failure      404 {string} string "Turno no encontrado."
// @Router       /appointments/reschedule/{id} [get]
func RescheduleAppointment(c *gin.Context) { respondToReminder(c, notify.ActionReschedule) }

func respondToReminder(c *gin.Context, action string) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	services, ok := getServicesOrRespond(c)
	if !ok {
		return
	}
	if services.Reminders == nil {
		c.String(http.StatusInternalServerError, "Error al actualizar el turno.")
		return
	}

	_, err := services.Reminders.RespondByLink(c.Request.Context(), id, action)
	switch {
	case err == nil:
		c.String(http.StatusOK, linkMessages[action])
	case errors.Is(err, reminder.ErrAppointmentNotFound):
		c.String(http.StatusNotFound, "Turno no encontrado.")
	case errors.Is(err, reminder.ErrReminderNotFound):
		c.String(http.StatusNotFound, "Recordatorio no encontrado.")
	case errors.Is(err, reminder.ErrAlreadyAnswered):
		c.String(http.StatusBadRequest, "Ya se ha registrado una respuesta para este turno.")
	case errors.Is(err, scheduling.ErrSlotTaken), errors.Is(err, scheduling.ErrSlotUnavailable), errors.Is(err, scheduling.ErrLockBusy):
		c.String(http.StatusConflict, "El horario de este turno ya no está disponible. Nos pondremos en contacto para coordinar una nueva fecha.")
	default:
		util.Logger().Error().Err(err).Uint("appointment_id", id).Str("action", action).Msg("reminder response failed")
		c.String(http.StatusInternalServerError, "Error al actualizar el turno.")
	}
}
