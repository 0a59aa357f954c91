package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/notify"
	"github.com/ariebrainware/dentplanner-api/scheduling"
	"github.com/ariebrainware/dentplanner-api/util"
	"gorm.io/gorm"
)

// ActionStates maps the reminder link actions to appointment states.
var ActionStates = map[string]string{
	notify.ActionConfirm:    model.StateConfirmed,
	notify.ActionCancel:     model.StateCancelled,
	notify.ActionReschedule: model.StateRescheduled,
}

// StateForReply maps a WhatsApp answer ("1", "2", "3") to a state.
func StateForReply(body string) (string, bool) {
	switch body {
	case "1":
		return model.StateConfirmed, true
	case "2":
		return model.StateCancelled, true
	case "3":
		return model.StateRescheduled, true
	}
	return "", false
}

// ApplyResponse records a patient's answer to the reminder of an
// appointment and moves the appointment to state. Confirming goes through
// the slot checks because confirmed appointments hold their slot.
func (s *Service) ApplyResponse(ctx context.Context, appointmentID uint, state string) (*model.Appointment, error) {
	var appt model.Appointment
	if err := s.db.WithContext(ctx).First(&appt, appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	req := scheduling.SlotRequest{
		DentistID: appt.DentistID,
		ReasonID:  appt.ReasonID,
		Date:      appt.Date,
		Time:      appt.Time,
		ExcludeID: appt.ID,
	}

	write := func(tx *gorm.DB) error {
		var rem model.Reminder
		if err := tx.Where("appointment_id = ?", appt.ID).First(&rem).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReminderNotFound
			}
			return err
		}
		if rem.Response != nil {
			return ErrAlreadyAnswered
		}

		now := s.now()
		if err := tx.Model(&rem).Updates(map[string]interface{}{
			"response":             state,
			"response_received_at": now,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&appt).Update("state", state).Error
	}

	var err error
	if s.slots != nil {
		err = s.slots.Reserve(ctx, s.db, req, state, write)
	} else {
		err = s.db.WithContext(ctx).Transaction(write)
	}
	if err != nil {
		return nil, err
	}
	appt.State = state
	return &appt, nil
}

// RespondByLink applies an emailed link action and emails the patient the
// matching notice. A failed notice is logged only.
func (s *Service) RespondByLink(ctx context.Context, appointmentID uint, action string) (*model.Appointment, error) {
	state, ok := ActionStates[action]
	if !ok {
		return nil, ErrUnknownAction
	}
	appt, err := s.ApplyResponse(ctx, appointmentID, state)
	if err != nil {
		return nil, err
	}

	if err := s.sendResponseNotice(ctx, appt, action); err != nil {
		util.Logger().Error().Err(err).Uint("appointment_id", appointmentID).Msg("response notice failed")
	}
	return appt, nil
}

func (s *Service) sendResponseNotice(ctx context.Context, appt *model.Appointment, action string) error {
	var info struct {
		Email       string
		PatientName string
		DentistName string
	}
	err := s.db.WithContext(ctx).
		Table("appointments AS a").
		Select("p.email AS email, p.first_name AS patient_name, u.first_name AS dentist_name").
		Joins("JOIN patients p ON p.id = a.patient_id").
		Joins("JOIN users u ON u.id = a.dentist_id").
		Where("a.id = ?", appt.ID).
		Scan(&info).Error
	if err != nil {
		return err
	}

	msg, err := notify.ResponseEmail(info.Email, action, info.PatientName, info.DentistName)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}

// ReplyOutcome reports what HandleWhatsAppReply did with a message.
type ReplyOutcome struct {
	PatientID     uint
	AppointmentID uint
	State         string
	Replied       bool
}

const replySlotUnavailable = "No pudimos confirmar tu turno porque el horario ya no está disponible. Nos pondremos en contacto para coordinar una nueva fecha."

// HandleWhatsAppReply processes one inbound text from the sender with
// WhatsApp id from. Unknown senders and senders without a pending reminder
// are ignored. Answers other than 1, 2 or 3 only get an acknowledgment.
func (s *Service) HandleWhatsAppReply(ctx context.Context, from, body, messageID string) (ReplyOutcome, error) {
	var out ReplyOutcome
	log := util.Logger().With().Str("wa_id", from).Logger()

	if from == "" {
		return out, nil
	}

	var patientID uint
	err := s.db.WithContext(ctx).
		Table("reminders AS r").
		Select("a.patient_id").
		Joins("JOIN appointments a ON a.id = r.appointment_id").
		Where("r.wa_id = ? AND r.deleted_at IS NULL", from).
		Limit(1).
		Scan(&patientID).Error
	if err != nil {
		return out, err
	}
	if patientID == 0 {
		log.Info().Msg("no patient for whatsapp sender")
		return out, nil
	}
	out.PatientID = patientID

	state, ok := StateForReply(body)
	if !ok {
		out.Replied = s.reply(ctx, from, notify.ReplyText(body), messageID)
		return out, nil
	}

	var rem model.Reminder
	err = s.db.WithContext(ctx).
		Where("appointment_id IN (?)", s.db.Model(&model.Appointment{}).Select("id").Where("patient_id = ?", patientID)).
		Where("status = ? AND response IS NULL", model.ReminderSent).
		Order("sent_at DESC").
		First(&rem).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Info().Uint("patient_id", patientID).Msg("no open reminder for patient")
		return out, nil
	}
	if err != nil {
		return out, err
	}
	out.AppointmentID = rem.AppointmentID

	if _, err := s.ApplyResponse(ctx, rem.AppointmentID, state); err != nil {
		if errors.Is(err, scheduling.ErrSlotUnavailable) || errors.Is(err, scheduling.ErrSlotTaken) {
			out.Replied = s.reply(ctx, from, replySlotUnavailable, messageID)
			return out, err
		}
		return out, err
	}
	out.State = state
	out.Replied = s.reply(ctx, from, notify.ReplyText(body), messageID)
	return out, nil
}

func (s *Service) reply(ctx context.Context, to, body, messageID string) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.whatsapp.Reply(ctx, to, body, messageID); err != nil {
		util.Logger().Error().Err(err).Str("wa_id", to).Msg("whatsapp reply failed")
		return false
	}
	return true
}
